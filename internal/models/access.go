package models

import (
	"time"

	"gorm.io/datatypes"
)

type Permission string

const (
	PermissionRead    Permission = "read"
	PermissionComment Permission = "comment"
	PermissionEdit    Permission = "edit"
)

type AccessScope struct {
	Products []string `json:"products"`
	Services []string `json:"services"`
	Labs     []string `json:"labs"`
}

// ClientAccess is a per-user entitlement record. It is served to clients but
// not yet enforced against content reads.
type ClientAccess struct {
	UserID         string                          `gorm:"primaryKey;size:32" json:"user_id"`
	OrganizationID *string                         `gorm:"size:64;index" json:"organization_id"`
	Scope          datatypes.JSONType[AccessScope] `gorm:"type:jsonb" json:"scope"`
	Permissions    datatypes.JSONSlice[Permission] `gorm:"type:jsonb" json:"permissions"`
	GrantedAt      time.Time                       `gorm:"not null" json:"granted_at"`
	ExpiresAt      *time.Time                      `json:"expires_at"`
}

func (ClientAccess) TableName() string {
	return "client_access"
}

// DefaultClientAccess is the grant reported for users without a stored record:
// read permission over an empty scope.
func DefaultClientAccess(userID string, now time.Time) ClientAccess {
	return ClientAccess{
		UserID: userID,
		Scope: datatypes.NewJSONType(AccessScope{
			Products: []string{},
			Services: []string{},
			Labs:     []string{},
		}),
		Permissions: datatypes.JSONSlice[Permission]{PermissionRead},
		GrantedAt:   now.UTC(),
	}
}
