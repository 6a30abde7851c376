package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/smartwallet/core"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestAdminTokenRoundTrip(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t), time.Minute)

	token, err := tk.IssueAdminToken("operator")
	require.NoError(t, err)

	session, err := tk.ParseAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", session.Subject)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, time.Minute, session.ExpiresAt.Sub(session.IssuedAt))
}

func TestAdminTokenExpires(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t), time.Minute).(*JWTTokenizer)
	issued := time.Now()
	tk.now = func() time.Time { return issued }

	token, err := tk.IssueAdminToken("operator")
	require.NoError(t, err)

	tk.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tk.ParseAdminToken(token)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestAdminTokenFromAnotherKey(t *testing.T) {
	token, err := NewJWTTokenizer(newKey(t), time.Minute).IssueAdminToken("operator")
	require.NoError(t, err)

	_, err = NewJWTTokenizer(newKey(t), time.Minute).ParseAdminToken(token)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = NewJWTTokenizer(newKey(t), time.Minute).ParseAdminToken("not-a-token")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}
