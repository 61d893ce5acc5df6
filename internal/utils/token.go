package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer         = "sonore-api"
	minSessionSecretLen = 32
	sessionTTL          = 24 * time.Hour
)

// SessionTTL is the lifetime of a minted session token and of the cookie
// that carries it.
func SessionTTL() time.Duration {
	return sessionTTL
}

// SessionClaims is the full session state: the user id, signed. There is no
// server-side session store.
type SessionClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

var (
	sessionSecret     []byte
	sessionSecretErr  error
	sessionSecretOnce sync.Once
)

func EnsureSessionSecretReady() error {
	_, err := getSessionSecret()
	return err
}

func getSessionSecret() ([]byte, error) {
	sessionSecretOnce.Do(func() {
		raw := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
		if raw == "" {
			sessionSecretErr = errors.New("SESSION_SECRET is required")
			return
		}
		if len(raw) < minSessionSecretLen {
			sessionSecretErr = fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen)
			return
		}
		sessionSecret = []byte(raw)
	})

	if sessionSecretErr != nil {
		return nil, sessionSecretErr
	}
	return sessionSecret, nil
}

// MintSessionToken creates the signed token placed in the auth cookie.
func MintSessionToken(userID int) (string, error) {
	if userID <= 0 {
		return "", errors.New("invalid user ID")
	}

	secret, err := getSessionSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifySessionToken validates a cookie value and returns the embedded user
// id. Any failure means the request is unauthenticated; callers do not need
// to distinguish the causes.
func VerifySessionToken(tokenString string) (int, error) {
	if strings.TrimSpace(tokenString) == "" {
		return 0, errors.New("token is empty")
	}

	secret, err := getSessionSecret()
	if err != nil {
		return 0, err
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return 0, err
	}

	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	if claims.UserID <= 0 {
		return 0, errors.New("invalid token user")
	}

	if claims.Issuer != tokenIssuer {
		return 0, errors.New("invalid token issuer")
	}

	if claims.Subject != strconv.Itoa(claims.UserID) {
		return 0, errors.New("invalid token subject")
	}

	return claims.UserID, nil
}
