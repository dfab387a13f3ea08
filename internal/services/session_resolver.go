package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relvanta/relvanta-api/internal/metrics"
	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/repository"
)

// SessionResolver turns a session credential into the signed-in user.
type SessionResolver struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewSessionResolver(sessions repository.SessionRepository, users repository.UserRepository, m *metrics.Metrics) *SessionResolver {
	return &SessionResolver{
		sessions: sessions,
		users:    users,
		metrics:  m,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (r *SessionResolver) WithClock(now func() time.Time) *SessionResolver {
	r.now = now
	return r
}

// Resolve returns the user bound to token, or nil when the token is empty,
// unknown, expired, or points at a missing user. An expired session is
// deleted as a side effect. Only store failures are returned as errors.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		r.metrics.ObserveSessionLookup(metrics.SessionNone)
		return nil, nil
	}
	ctx, span := tracer().Start(ctx, "auth.ResolveSession")
	defer span.End()

	tokenHash := HashToken(token)
	session, err := r.sessions.GetSession(ctx, tokenHash)
	if errors.Is(err, repository.ErrNotFound) {
		r.metrics.ObserveSessionLookup(metrics.SessionUnknown)
		return nil, nil
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Expired(r.now()) {
		r.metrics.ObserveSessionLookup(metrics.SessionExpired)
		if err := r.sessions.DeleteSession(ctx, tokenHash); err != nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		slog.Info("expired session removed", "user_id", session.UserID)
		return nil, nil
	}

	user, err := r.users.GetUserByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		r.metrics.ObserveSessionLookup(metrics.SessionOrphaned)
		return nil, nil
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	r.metrics.ObserveSessionLookup(metrics.SessionLive)
	return &user, nil
}
