package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newGate(t *testing.T, password string) (*Gate, *clock, storage.KV) {
	t.Helper()
	c := &clock{now: t0}
	kv := storage.NewMemory()
	g, err := New(kv, password, "test-secret", WithClock(c.Now))
	require.NoError(t, err)
	return g, c, kv
}

func TestLoginAndVerify(t *testing.T) {
	ctx := context.Background()
	g, _, kv := newGate(t, "hunter2")

	session, err := g.Login(ctx, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, session.Role)
	assert.Equal(t, AdminPermissions, session.Permissions)
	assert.Equal(t, t0, session.Timestamp)
	assert.NotEmpty(t, session.Token)

	_, found, _ := kv.Get(ctx, storage.KeyAuth)
	assert.True(t, found)

	verified, err := g.Verify(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Token, verified.Token)
}

func TestLoginRejections(t *testing.T) {
	ctx := context.Background()

	g, _, kv := newGate(t, "hunter2")
	_, err := g.Login(ctx, "wrong")
	assert.ErrorIs(t, err, errs.ErrWrongPassword)
	assert.Equal(t, 401, errs.StatusCode(err))
	_, found, _ := kv.Get(ctx, storage.KeyAuth)
	assert.False(t, found)

	disabled, _, _ := newGate(t, "")
	_, err = disabled.Login(ctx, "")
	assert.ErrorIs(t, err, errs.ErrLoginDisabled)
}

func TestVerifyRejections(t *testing.T) {
	ctx := context.Background()
	g, c, _ := newGate(t, "hunter2")

	_, err := g.Verify(ctx, "")
	assert.ErrorIs(t, err, errs.ErrMissingToken)

	_, err = g.Verify(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, errs.ErrInvalidToken)

	first, err := g.Login(ctx, "hunter2")
	require.NoError(t, err)
	c.now = c.now.Add(time.Second)
	second, err := g.Login(ctx, "hunter2")
	require.NoError(t, err)

	_, err = g.Verify(ctx, first.Token)
	assert.ErrorIs(t, err, errs.ErrInvalidToken, "only the latest session is valid")
	_, err = g.Verify(ctx, second.Token)
	assert.NoError(t, err)

	other, err := New(storage.NewMemory(), "hunter2", "another-secret", WithClock(c.Now))
	require.NoError(t, err)
	_, err = other.Verify(ctx, second.Token)
	assert.ErrorIs(t, err, errs.ErrInvalidToken)

	c.now = c.now.Add(SessionTTL)
	_, err = g.Verify(ctx, second.Token)
	assert.ErrorIs(t, err, errs.ErrExpiredToken)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	g, _, kv := newGate(t, "hunter2")

	session, err := g.Login(ctx, "hunter2")
	require.NoError(t, err)
	require.NoError(t, g.Logout(ctx))

	_, found, _ := kv.Get(ctx, storage.KeyAuth)
	assert.False(t, found)
	_, err = g.Verify(ctx, session.Token)
	assert.ErrorIs(t, err, errs.ErrInvalidToken)

	assert.NoError(t, g.Logout(ctx))
}

func TestRandomSecretWhenUnset(t *testing.T) {
	g, err := New(storage.NewMemory(), "pw", "")
	require.NoError(t, err)
	assert.Len(t, g.secret, 32)
}
