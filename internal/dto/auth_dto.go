package dto

import (
	"time"

	"github.com/relvanta/relvanta-api/internal/models"
)

// UserResponse is the public view of a user. Provider identifiers stay
// server-side.
type UserResponse struct {
	UserID           string      `json:"user_id"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	Picture          *string     `json:"picture"`
	Role             models.Role `json:"role"`
	OrganizationSlug *string     `json:"organization_slug"`
	CreatedAt        time.Time   `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		UserID:           u.UserID,
		Email:            u.Email,
		Name:             u.Name,
		Picture:          u.Picture,
		Role:             u.Role,
		OrganizationSlug: u.OrganizationSlug,
		CreatedAt:        u.CreatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	DB      string `json:"db"`
}
