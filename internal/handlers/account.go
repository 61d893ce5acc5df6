package handlers

import (
	"log"
	"net/http"
	"strings"

	"sonore/internal/database"
	"sonore/internal/middleware"
	"sonore/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetAccount returns the authenticated user's profile. The session guard
// already resolved and password-stripped the record.
func GetAccount(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account information retrieved",
		"user": gin.H{
			"name":       user.Name,
			"username":   user.Username,
			"email":      user.Email,
			"created_at": user.CreatedAt,
		},
	})
}

type updateAccountRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UpdateAccount applies a partial profile update: only supplied fields
// change. A supplied password is re-hashed before storage.
func UpdateAccount(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	assignments := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name must not be empty"})
			return
		}
		args = append(args, trimmed)
		assignments = append(assignments, "name = $"+itoa(len(args)))
	}
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		if trimmed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must not be empty"})
			return
		}
		args = append(args, trimmed)
		assignments = append(assignments, "username = $"+itoa(len(args)))
	}
	if req.Password != nil {
		if *req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must not be empty"})
			return
		}
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			log.Printf("Error hashing password: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating account"})
			return
		}
		args = append(args, hashed)
		assignments = append(assignments, "password = $"+itoa(len(args)))
	}

	if len(assignments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	args = append(args, userID)
	query := "UPDATE users SET " + strings.Join(assignments, ", ") +
		", updated_at = CURRENT_TIMESTAMP WHERE id = $" + itoa(len(args)) +
		" RETURNING name, username, email"

	var name, username, email *string
	err := database.DB.QueryRow(query, args...).Scan(&name, &username, &email)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
			return
		}
		log.Printf("Error updating account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account updated",
		"user": gin.H{
			"name":     name,
			"username": username,
			"email":    email,
		},
	})
}

// DeleteAccount removes the user record. Owned playlists and their song
// links go with it via ON DELETE CASCADE; catalog songs are untouched.
func DeleteAccount(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := database.DB.Exec(`DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		log.Printf("Error deleting account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting account"})
		return
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	middleware.ClearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
