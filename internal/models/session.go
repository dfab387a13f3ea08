package models

import "time"

// Session binds an opaque session token to a user until ExpiresAt.
// Only the SHA-256 digest of the token is stored.
type Session struct {
	TokenHash   string    `gorm:"primaryKey;size:64" json:"-"`
	UserID      string    `gorm:"size:32;not null;index" json:"user_id"`
	FirebaseUID string    `gorm:"size:128" json:"-"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Session) TableName() string {
	return "user_sessions"
}

// Expired reports whether the session is no longer live at now. A session is
// live strictly before ExpiresAt; both instants are compared in UTC.
func (s *Session) Expired(now time.Time) bool {
	return !now.UTC().Before(s.ExpiresAt.UTC())
}
