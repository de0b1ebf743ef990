package models

import (
	"time"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Preferences is an opaque per-user settings map (theme, notifications, etc.)
type Preferences map[string]any

// User represents an internal user record. Users are created on first login
// and updated on every subsequent login; email is the only natural key.
type User struct {
	ID          int64       `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name,omitempty"`
	Image       string      `json:"image,omitempty"`
	Provider    string      `json:"provider"`
	Role        string      `json:"role"`
	LastLogin   time.Time   `json:"last_login"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
