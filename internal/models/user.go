package models

import (
	"time"
)

// User represents a registered account. Password holds the bcrypt hash and
// is never serialized back to clients.
type User struct {
	ID        int       `json:"id" db:"id"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Username  *string   `json:"username,omitempty" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
