package domain

import "time"

// UserRole distinguishes reporters from administrators.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is the domain model for accounts that submit damage reports.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         UserRole
	CreatedAt    time.Time
}

// UserProfile is the projection returned to authenticated callers.
// It never carries the password hash.
type UserProfile struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// Profile projects the user for API responses and session caching.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
