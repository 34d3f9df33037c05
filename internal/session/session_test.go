package session

import (
	"context"
	"testing"
	"time"

	"mock_trading/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewManager(rdb, "secret", time.Hour), mr
}

func TestCreateResolveDestroy(t *testing.T) {
	ctx := context.Background()
	m, mr := newManager(t)

	token, p, err := m.Create(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.UserID)
	assert.True(t, mr.Exists("session:"+p.SessionID))
	assert.Equal(t, m.TTL(), mr.TTL("session:"+p.SessionID))
	assert.Equal(t, time.Hour, m.TTL())

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, m.Destroy(ctx, token))
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.NoError(t, m.Destroy(ctx, token), "destroying twice is fine")
	require.NoError(t, m.Destroy(ctx, ""), "no session is fine")
	require.NoError(t, m.Destroy(ctx, "garbage"))
}

func TestResolveRejectsExpiredSession(t *testing.T) {
	ctx := context.Background()
	m, mr := newManager(t)
	token, _, err := m.Create(ctx, 7)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestResolveRejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	_, _, err := m.Create(ctx, 7)
	require.NoError(t, err)

	other := NewManager(m.rdb, "another-secret", time.Hour)
	forged, _, err := other.Create(ctx, 7)
	require.NoError(t, err)

	_, err = m.Resolve(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
