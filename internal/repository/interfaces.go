package repository

import (
	"context"
	"errors"
	"time"

	"github.com/relvanta/relvanta-api/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ProfileUpdate carries the user fields refreshed on every login.
type ProfileUpdate struct {
	Name        string
	Picture     *string
	FirebaseUID string
	UpdatedAt   time.Time
}

// ContentFilter narrows a collection listing. Empty fields do not filter.
type ContentFilter struct {
	Visibility     models.Visibility
	Status         string
	Category       string
	EngagementType string
	Limit          int
}

// UserRepository persists platform users. Email is unique.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) error
	UpdateUserProfile(ctx context.Context, userID string, update ProfileUpdate) error
}

// SessionRepository persists sessions keyed by token digest.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, tokenHash string) (models.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// ContentRepository reads the content collections.
type ContentRepository interface {
	ListProducts(ctx context.Context, filter ContentFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, slug string) (models.Product, error)
	ListServices(ctx context.Context, filter ContentFilter) ([]models.Service, error)
	GetService(ctx context.Context, slug string) (models.Service, error)
	ListLabs(ctx context.Context, filter ContentFilter) ([]models.Lab, error)
	GetLab(ctx context.Context, slug string) (models.Lab, error)
	GetPage(ctx context.Context, slug string) (models.Page, error)
	ListRedirects(ctx context.Context, limit int) ([]models.Redirect, error)
}

type AccessRepository interface {
	GetClientAccess(ctx context.Context, userID string) (models.ClientAccess, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is everything the API needs from persistence.
type Store interface {
	UserRepository
	SessionRepository
	ContentRepository
	AccessRepository
	Pinger
}

// LogRepository persists error-level log records. Only the SQL store keeps them.
type LogRepository interface {
	CreateSystemLogs(ctx context.Context, logs []models.SystemLog) error
	DeleteSystemLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
