package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Staff roles
const (
	StaffRoleAdmin = "admin"
	StaffRoleStaff = "staff"
)

// ErrStaffUserNotFound is returned when no staff user matches
var ErrStaffUserNotFound = errors.New("staff user not found")

// StaffUser represents a rental office dashboard user
type StaffUser struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose password hash in JSON
	FullName     string     `json:"full_name" db:"full_name"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// StaffLoginRequest represents the login request payload
type StaffLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// StaffLoginResponse represents the login response
type StaffLoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	StaffUser   *StaffUser `json:"staff_user"`
}
