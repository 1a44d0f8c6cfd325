package users

import (
	"time"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var (
	ErrNotFound           = httpx.NewError(httpx.ErrNotFound, "User not found")
	ErrUsernameTaken      = httpx.NewError(httpx.ErrDuplicate, "Username already exists")
	ErrEmailTaken         = httpx.NewError(httpx.ErrDuplicate, "Email already exists")
	ErrInvalidRole        = httpx.NewError(httpx.ErrValidation, "Invalid role. Must be one of: emp, admin, super_admin")
	ErrInvalidStatus      = httpx.NewError(httpx.ErrValidation, "Invalid status. Must be active or inactive")
	ErrPasswordTooShort   = httpx.NewError(httpx.ErrValidation, "Password must be at least 6 characters")
	ErrWrongPassword      = httpx.NewError(httpx.ErrValidation, "Current password is incorrect")
	ErrInvalidAction      = httpx.NewError(httpx.ErrValidation, "Invalid action. Must be one of: create, view, update, delete, change_password")
	ErrInvalidCredentials = httpx.NewError(httpx.ErrUnauthorized, "Invalid username or password")
	ErrNoChanges          = httpx.NewError(httpx.ErrValidation, "No valid fields to update")
	ErrEmptyUsername      = httpx.NewError(httpx.ErrValidation, "Username cannot be empty")
	ErrEmptyEmail         = httpx.NewError(httpx.ErrValidation, "Email cannot be empty")
)

// User is the stored account record.
type User struct {
	ID           string      `json:"user_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         rbac.Role   `json:"role"`
	CreatedBy    string      `json:"created_by,omitempty"`
	Status       rbac.Status `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	LastLogin    *time.Time  `json:"last_login"`
}

// Principal projects the fields the authorization core consumes.
func (u User) Principal() rbac.Principal {
	return rbac.Principal{ID: u.ID, Role: u.Role, Status: u.Status}
}

// Safe strips credentials from the record.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedBy: u.CreatedBy,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		LastLogin: u.LastLogin,
	}
}

// SafeUser is the public view of a User.
type SafeUser struct {
	ID        string      `json:"user_id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      rbac.Role   `json:"role"`
	CreatedBy string      `json:"created_by,omitempty"`
	Status    rbac.Status `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	LastLogin *time.Time  `json:"last_login"`
}

// NewUser describes an account to create. Password is plain text.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	Role      rbac.Role
	CreatedBy string
}

// Filter narrows user listings.
type Filter struct {
	Role   rbac.Role
	Status rbac.Status
}

// ProfileUpdate carries optional profile changes.
type ProfileUpdate struct {
	Username *string
	Email    *string
}

// Statistics summarises the user base.
type Statistics struct {
	Total    int               `json:"total"`
	ByRole   map[rbac.Role]int `json:"by_role"`
	Active   int               `json:"active"`
	Inactive int               `json:"inactive"`
}
