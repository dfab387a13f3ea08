package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/relvanta/relvanta-api/internal/config"
	"github.com/relvanta/relvanta-api/internal/metrics"
	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/repository"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrMalformedAuthHeader  = errors.New("missing or invalid authorization header")
	ErrInvalidIdentityToken = errors.New("invalid or expired identity token")
	ErrInvalidClaims        = errors.New("invalid token claims")
)

const bearerPrefix = "Bearer "

// SessionGrant is the outcome of a successful login.
type SessionGrant struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	verifier   IdentityVerifier
	metrics    *metrics.Metrics
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	verifier IdentityVerifier,
	m *metrics.Metrics,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		verifier:   verifier,
		metrics:    m,
		sessionTTL: cfg.SessionTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// BearerToken extracts the credential from an "Authorization: Bearer <t>"
// header value.
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CreateSession exchanges a provider identity token, presented as a bearer
// Authorization header, for a new session.
func (s *AuthService) CreateSession(ctx context.Context, authorization string) (*SessionGrant, error) {
	ctx, span := tracer().Start(ctx, "auth.CreateSession")
	defer span.End()

	idToken, ok := BearerToken(authorization)
	if !ok {
		s.metrics.ObserveLogin(metrics.LoginMalformedHeader)
		return nil, ErrMalformedAuthHeader
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		slog.Warn("identity token rejected", "error", err)
		s.metrics.ObserveLogin(metrics.LoginInvalidToken)
		recordSpanError(span, err)
		return nil, ErrInvalidIdentityToken
	}

	if identity.Subject == "" || identity.Email == "" {
		s.metrics.ObserveLogin(metrics.LoginInvalidClaims)
		return nil, ErrInvalidClaims
	}

	user, err := s.upsertUser(ctx, identity)
	if err != nil {
		s.metrics.ObserveLogin(metrics.LoginDependencyFailed)
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.UserID))

	token, err := newSessionToken()
	if err != nil {
		s.metrics.ObserveLogin(metrics.LoginDependencyFailed)
		recordSpanError(span, err)
		return nil, err
	}

	now := s.now().UTC()
	session := models.Session{
		TokenHash:   HashToken(token),
		UserID:      user.UserID,
		FirebaseUID: identity.Subject,
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		s.metrics.ObserveLogin(metrics.LoginDependencyFailed)
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.metrics.ObserveLogin(metrics.LoginSucceeded)
	slog.Info("session created", "user_id", user.UserID)

	return &SessionGrant{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

// upsertUser finds the account by email, the natural key across logins, and
// refreshes its profile; unknown emails get a new account with the client role.
func (s *AuthService) upsertUser(ctx context.Context, identity *VerifiedIdentity) (models.User, error) {
	name := identity.Name
	if name == "" {
		name = strings.Split(identity.Email, "@")[0]
	}
	var picture *string
	if identity.Picture != "" {
		picture = &identity.Picture
	}
	now := s.now().UTC()

	existing, err := s.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return s.refreshProfile(ctx, existing, name, picture, identity.Subject, now)
	case !errors.Is(err, repository.ErrNotFound):
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	user := models.User{
		UserID:      newUserID(),
		Email:       identity.Email,
		Name:        name,
		Picture:     picture,
		Role:        models.RoleClient,
		FirebaseUID: identity.Subject,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent first login for the same email won the insert.
		existing, err = s.users.GetUserByEmail(ctx, identity.Email)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to look up user: %w", err)
		}
		return s.refreshProfile(ctx, existing, name, picture, identity.Subject, now)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("user created", "user_id", user.UserID)
	return user, nil
}

func (s *AuthService) refreshProfile(ctx context.Context, user models.User, name string, picture *string, subject string, now time.Time) (models.User, error) {
	update := repository.ProfileUpdate{
		Name:        name,
		Picture:     picture,
		FirebaseUID: subject,
		UpdatedAt:   now,
	}
	if err := s.users.UpdateUserProfile(ctx, user.UserID, update); err != nil {
		return models.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	user.Name = name
	user.Picture = picture
	user.FirebaseUID = subject
	user.UpdatedAt = now
	return user, nil
}

// Logout deletes the session behind token. Unknown or empty tokens are not an
// error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	ctx, span := tracer().Start(ctx, "auth.Logout")
	defer span.End()

	if err := s.sessions.DeleteSession(ctx, HashToken(token)); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
