package transport

import "github.com/google/uuid"

// SignInRequest contains login credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SignOutRequest revokes a refresh token.
type SignOutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// CreateUserRequest registers a new portal user with a role set.
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email,max=255"`
	FullName string   `json:"fullName" validate:"required,max=200"`
	Password string   `json:"password" validate:"required,min=8,max=128"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,max=50"`
}

// SetRolesRequest replaces a user's role set.
type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,max=50"`
}

// TokenPairResponse carries a signed access token and its refresh token.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserResponse represents a portal user in API responses.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	IsActive bool      `json:"isActive"`
	Roles    []string  `json:"roles"`
}
