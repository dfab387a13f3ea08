package models

import "time"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleClient       Role = "client"
)

// User is a platform account. UserID is minted by the API on first login and
// never changes; FirebaseUID links the account to its current identity
// provider subject and may be re-linked on later logins with the same email.
type User struct {
	UserID           string    `gorm:"primaryKey;size:32" json:"user_id"`
	Email            string    `gorm:"not null;size:255;uniqueIndex:idx_users_email" json:"email"`
	Name             string    `gorm:"size:255" json:"name"`
	Picture          *string   `gorm:"type:text" json:"picture"`
	Role             Role      `gorm:"size:20;not null;default:'client'" json:"role"`
	OrganizationSlug *string   `gorm:"size:100" json:"organization_slug"`
	FirebaseUID      string    `gorm:"size:128;index" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
