package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"

	"sonore/internal/database"
	"sonore/internal/middleware"
	"sonore/internal/models"
	"sonore/internal/utils"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// Register handles user registration. It never logs the new user in; the
// client follows up with a login request.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	var username *string
	if req.Username != nil && strings.TrimSpace(*req.Username) != "" {
		trimmed := strings.TrimSpace(*req.Username)
		username = &trimmed
	}
	var name *string
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		trimmed := strings.TrimSpace(*req.Name)
		name = &trimmed
	}

	db := database.DB
	var userID int
	query := `INSERT INTO users (name, username, email, password) VALUES ($1, $2, $3, $4) RETURNING id`
	err = db.QueryRow(query, name, username, email, hashedPassword).Scan(&userID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email or username already exists"})
			return
		}
		log.Printf("Error inserting user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"email":    email,
			"username": username,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and mints the signed session cookie.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	db := database.DB
	var user models.User
	var username sql.NullString
	query := `SELECT id, username, email, password FROM users WHERE email = $1`
	err := db.QueryRow(query, email).Scan(&user.ID, &username, &user.Email, &user.Password)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not registered on Sonore, please register first"})
			return
		}
		log.Printf("Error querying user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}

	token, err := utils.MintSessionToken(user.ID)
	if err != nil {
		log.Printf("Error minting session token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in"})
		return
	}

	middleware.SetAuthCookie(c, token)

	if username.Valid {
		user.Username = &username.String
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Logout clears the session cookie. The token itself stays valid until
// expiry; there is no server-side session state to revoke.
func Logout(c *gin.Context) {
	middleware.ClearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
