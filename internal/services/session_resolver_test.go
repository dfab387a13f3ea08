package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relvanta/relvanta-api/internal/metrics"
	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, store *repository.MemoryStore, token, userID string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, store.CreateSession(context.Background(), models.Session{
		TokenHash: HashToken(token),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-7 * 24 * time.Hour),
	}))
}

func TestResolveLiveSession(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateUser(ctx, models.User{UserID: "user_1", Email: "ada@example.com"}))
	expiry := testNow.Add(time.Hour)
	seedSession(t, store, "sess_live", "user_1", expiry)

	resolver := NewSessionResolver(store, store, nil).WithClock(func() time.Time { return testNow })

	user, err := resolver.Resolve(ctx, "sess_live")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user_1", user.UserID)
	assert.Equal(t, 1, store.SessionCount())
}

func TestResolveExpiresAtTheInstant(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateUser(ctx, models.User{UserID: "user_1", Email: "ada@example.com"}))
	expiry := testNow
	seedSession(t, store, "sess_x", "user_1", expiry)

	now := expiry.Add(-time.Nanosecond)
	reg := prometheus.NewRegistry()
	resolver := NewSessionResolver(store, store, metrics.New(reg)).WithClock(func() time.Time { return now })

	user, err := resolver.Resolve(ctx, "sess_x")
	require.NoError(t, err)
	require.NotNil(t, user)

	now = expiry
	user, err = resolver.Resolve(ctx, "sess_x")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Zero(t, store.SessionCount(), "expired session is removed on lookup")
	assert.Equal(t, 1.0, counterValue(t, reg, "relvanta_auth_session_lookups_total", metrics.SessionExpired))

	user, err = resolver.Resolve(ctx, "sess_x")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestResolveExpiryInOtherZone(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateUser(ctx, models.User{UserID: "user_1", Email: "ada@example.com"}))
	pst := time.FixedZone("PST", -8*3600)
	seedSession(t, store, "sess_tz", "user_1", testNow.Add(-time.Minute).In(pst))

	resolver := NewSessionResolver(store, store, nil).WithClock(func() time.Time { return testNow })
	user, err := resolver.Resolve(ctx, "sess_tz")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestResolveAnonymousCases(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedSession(t, store, "sess_orphan", "user_gone", testNow.Add(time.Hour))
	resolver := NewSessionResolver(store, store, nil).WithClock(func() time.Time { return testNow })

	for _, token := range []string{"", "sess_unknown", "sess_orphan"} {
		user, err := resolver.Resolve(ctx, token)
		require.NoError(t, err, token)
		assert.Nil(t, user, token)
	}
	assert.Equal(t, 1, store.SessionCount(), "orphaned sessions are not deleted")
}
