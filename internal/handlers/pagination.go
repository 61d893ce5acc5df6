package handlers

import (
	"strconv"
	"strings"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type listQueryParams struct {
	Limit   int
	Offset  int
	Search  string
	Pattern string
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func parseListQueryParams(rawLimit, rawOffset, rawSearch string) listQueryParams {
	limit := defaultPageLimit
	if parsed, err := strconv.Atoi(strings.TrimSpace(rawLimit)); err == nil && parsed > 0 {
		limit = parsed
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offset := 0
	if parsed, err := strconv.Atoi(strings.TrimSpace(rawOffset)); err == nil && parsed >= 0 {
		offset = parsed
	}

	search := strings.TrimSpace(rawSearch)
	pattern := ""
	if search != "" {
		pattern = "%" + strings.ToLower(search) + "%"
	}

	return listQueryParams{
		Limit:   limit,
		Offset:  offset,
		Search:  search,
		Pattern: pattern,
	}
}
