package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainuser "hotelier/internal/domain/user"
)

func TestJWTIssuerRoundTrip(t *testing.T) {
	issuer, err := NewJWTIssuer("s3cret", time.Hour, "hotelier")
	require.NoError(t, err)

	token, exp, err := issuer.Issue("user-1", domainuser.RoleManager)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("user-1"), claims.UserID)
	assert.Equal(t, domainuser.RoleManager, claims.Role)
}

func TestJWTIssuerRejectsForeignAndExpiredTokens(t *testing.T) {
	a, err := NewJWTIssuer("secret-a", time.Hour, "")
	require.NoError(t, err)
	b, err := NewJWTIssuer("secret-b", time.Hour, "")
	require.NoError(t, err)

	token, _, err := a.Issue("user-1", domainuser.RoleUser)
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.Error(t, err)

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := a.Issue("user-1", domainuser.RoleUser)
	require.NoError(t, err)
	a.now = time.Now
	_, err = a.Verify(stale)
	assert.Error(t, err)
}

func TestNewJWTIssuerRequiresSecret(t *testing.T) {
	_, err := NewJWTIssuer(" ", time.Hour, "")
	assert.ErrorIs(t, err, ErrSecretRequired)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "wrong horse"))
}
