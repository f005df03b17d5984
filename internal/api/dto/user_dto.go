package dto

import "github.com/roadwatch/damage-service/internal/domain"

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyRequest payload for token verification.
type VerifyRequest struct {
	Token string `json:"token"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt int64              `json:"expires_at"`
	User      domain.UserProfile `json:"user"`
}
