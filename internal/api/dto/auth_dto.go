package dto

import "time"

// RegisterRequest payload.
type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	ExternalCode string `json:"external_code"`
	Password     string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued access token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PersonResponse is the public projection of a person.
type PersonResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ExternalCode string `json:"external_code,omitempty"`
	AssignedRole string `json:"assigned_role"`
}
