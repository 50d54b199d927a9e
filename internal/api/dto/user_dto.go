package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the wire shape of a local account. The password credential
// never appears here.
type UserResponse struct {
	ID          string    `json:"id"`
	AccountName string    `json:"account_name"`
	DisplayName string    `json:"display_name"`
	IsExternal  bool      `json:"is_external"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthResponse is returned on login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserFromDomain maps a user to its wire shape.
func UserFromDomain(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		AccountName: user.AccountName,
		DisplayName: user.DisplayName,
		IsExternal:  user.IsExternal,
		CreatedAt:   user.CreatedAt,
	}
}
