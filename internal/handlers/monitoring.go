package handlers

import (
	"net/http"
	"os"
	"strings"
	"time"

	"sonore/internal/database"
	"sonore/internal/monitoring"

	"github.com/gin-gonic/gin"
)

var monitoringService *monitoring.Service

// SetMonitoringService registers runtime monitoring service for handlers.
func SetMonitoringService(service *monitoring.Service) {
	monitoringService = service
}

func getMonitoringService() *monitoring.Service {
	if monitoringService == nil {
		monitoringService = monitoring.NewService(time.Now())
	}
	return monitoringService
}

func checkMonitoringKey(c *gin.Context) bool {
	expected := strings.TrimSpace(os.Getenv("MONITORING_API_KEY"))
	if expected == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitoring API is disabled"})
		return false
	}

	provided := strings.TrimSpace(c.GetHeader("X-Monitoring-Key"))
	if provided == "" || provided != expected {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid monitoring key"})
		return false
	}
	return true
}

func MonitorStatus(c *gin.Context) {
	if !checkMonitoringKey(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().StatusText()})
}

func MonitorConnections(c *gin.Context) {
	if !checkMonitoringKey(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().ConnectionsText()})
}

func MonitorRuntime(c *gin.Context) {
	if !checkMonitoringKey(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().RuntimeText()})
}

func MonitorCatalog(c *gin.Context) {
	if !checkMonitoringKey(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().CatalogText()})
}

func MonitorAll(c *gin.Context) {
	if !checkMonitoringKey(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().AllText()})
}

func MonitorSnapshot(c *gin.Context) {
	if !checkMonitoringKey(c) {
		return
	}
	c.JSON(http.StatusOK, getMonitoringService().Snapshot())
}

// MonitorUsersList pages through registered users, newest first.
func MonitorUsersList(c *gin.Context) {
	if !checkMonitoringKey(c) {
		return
	}

	params := parseListQueryParams(c.Query("limit"), c.Query("offset"), "")
	if params.Limit > 50 {
		params.Limit = 50
	}

	var totalUsers int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&totalUsers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users count"})
		return
	}

	rows, err := database.DB.Query(`
		SELECT id, email, COALESCE(username, ''), created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, params.Limit, params.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users list"})
		return
	}
	defer rows.Close()

	type monitorUserItem struct {
		ID        int       `json:"id"`
		Email     string    `json:"email"`
		Username  string    `json:"username"`
		CreatedAt time.Time `json:"created_at"`
	}

	users := make([]monitorUserItem, 0)
	for rows.Next() {
		var item monitorUserItem
		if scanErr := rows.Scan(&item.ID, &item.Email, &item.Username, &item.CreatedAt); scanErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan users list"})
			return
		}
		users = append(users, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":       params.Limit,
		"offset":      params.Offset,
		"total_users": totalUsers,
		"users":       users,
	})
}
