package middleware

import (
	"database/sql"
	"log"
	"net/http"

	"sonore/internal/database"
	"sonore/internal/models"
	"sonore/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	// AuthCookieName is the cookie carrying the signed session token.
	AuthCookieName = "auth"

	userIDContextKey = "user_id"
	userContextKey   = "current_user"
)

// ClearAuthCookie expires the session cookie on the client.
func ClearAuthCookie(c *gin.Context) {
	c.SetCookie(AuthCookieName, "", -1, "/", "", false, true)
}

// SetAuthCookie installs a freshly minted session token, httpOnly, with the
// session TTL as max-age.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(AuthCookieName, token, int(utils.SessionTTL().Seconds()), "/", "", false, true)
}

// UserIDFromContext returns the authenticated user's id, or false when the
// request did not pass the session guard.
func UserIDFromContext(c *gin.Context) (int, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok
}

// UserFromContext returns the password-stripped user record attached by the
// session guard.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// SessionGuard authenticates requests from the auth cookie. The token alone
// is the session: it is verified by signature, then the embedded user id is
// resolved against the user store. A token for a deleted account clears the
// cookie before rejecting.
func SessionGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(AuthCookieName)
		if err != nil || raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Please log in"})
			c.Abort()
			return
		}

		userID, err := utils.VerifySessionToken(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Please log in"})
			c.Abort()
			return
		}

		var user models.User
		var name, username sql.NullString
		query := `SELECT id, name, username, email, created_at, updated_at FROM users WHERE id = $1`
		err = database.DB.QueryRow(query, userID).Scan(
			&user.ID,
			&name,
			&username,
			&user.Email,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				// Signed token for an account that no longer exists.
				ClearAuthCookie(c)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Please log in"})
				c.Abort()
				return
			}
			log.Printf("Error resolving session user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error verifying session"})
			c.Abort()
			return
		}

		if name.Valid {
			user.Name = &name.String
		}
		if username.Valid {
			user.Username = &username.String
		}

		c.Set(userIDContextKey, user.ID)
		c.Set(userContextKey, &user)
		c.Next()
	}
}
