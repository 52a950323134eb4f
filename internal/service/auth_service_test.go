package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newTestStorage(t), "test-secret", time.Hour)

	user, err := svc.Register("joe", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	_, err = svc.Register("joe", "other")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = svc.Register("", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	token, got, err := svc.Login("joe", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, _, err = svc.Login("joe", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = svc.Login("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestParseToken_Rejects(t *testing.T) {
	store := newTestStorage(t)
	svc := NewAuthService(store, "test-secret", time.Hour)

	token, err := svc.GenerateToken(7)
	require.NoError(t, err)

	other := NewAuthService(store, "another-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong signing key")

	_, err = svc.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestCurrentUser(t *testing.T) {
	svc := NewAuthService(newTestStorage(t), "test-secret", time.Hour)
	user, err := svc.Register("joe", "s3cret")
	require.NoError(t, err)

	got, err := svc.CurrentUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "joe", got.Username)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = svc.CurrentUser(user.ID + 100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
