package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

func TestToken_ExchangeCode(t *testing.T) {
	f := newFixture(t, Policy{})
	code := f.seedCode(t, "code-ok", nil)

	resp, err := f.exchange(code, testRedirect, "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(DefaultAccessTTL/time.Second), resp.ExpiresIn)
	assert.NotEmpty(t, resp.IDToken)
	assert.True(t, f.tokenStored(t, resp.AccessToken))
	assert.True(t, f.tokenStored(t, resp.RefreshToken))

	_, err = f.exchange(code, testRedirect, "")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestToken_RedirectMismatchBurnsCode(t *testing.T) {
	f := newFixture(t, Policy{})
	code := f.seedCode(t, "code-redirect", nil)

	_, err := f.exchange(code, "https://app.example/other", "")
	require.ErrorIs(t, err, ErrInvalidGrant)

	// El código quedó consumido: ni con el redirect correcto sirve.
	_, err = f.exchange(code, testRedirect, "")
	assert.ErrorIs(t, err, ErrInvalidGrant)

	_, err = f.exchange(f.seedCode(t, "code-no-redirect", nil), "", "")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestToken_CodeExpiry(t *testing.T) {
	f := newFixture(t, Policy{})
	start := f.now
	early := f.seedCode(t, "code-early", nil)
	late := f.seedCode(t, "code-late", nil)

	f.now = start.Add(DefaultCodeTTL - time.Nanosecond)
	_, err := f.exchange(early, testRedirect, "")
	require.NoError(t, err)

	// now == ExpiresAt ya está vencido, y sigue vencido en cada reintento.
	f.now = start.Add(DefaultCodeTTL)
	for i := 0; i < 3; i++ {
		_, err = f.exchange(late, testRedirect, "")
		assert.ErrorIs(t, err, ErrInvalidGrant, "attempt %d", i)
		f.now = f.now.Add(time.Minute)
	}
}

func TestToken_RefreshExpiry(t *testing.T) {
	f := newFixture(t, Policy{RefreshTTL: time.Hour})
	start := f.now

	a, err := f.exchange(f.seedCode(t, "code-a", nil), testRedirect, "")
	require.NoError(t, err)
	b, err := f.exchange(f.seedCode(t, "code-b", nil), testRedirect, "")
	require.NoError(t, err)

	f.now = start.Add(time.Hour - time.Second)
	rotated, err := f.refresh(b.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, b.RefreshToken, rotated.RefreshToken)
	assert.False(t, f.tokenStored(t, b.RefreshToken))

	f.now = start.Add(time.Hour)
	for i := 0; i < 3; i++ {
		_, err = f.refresh(a.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidGrant, "attempt %d", i)
		f.now = f.now.Add(time.Minute)
	}
	assert.False(t, f.tokenStored(t, a.RefreshToken))

	// Un access token no sirve como refresh token.
	_, err = f.refresh(rotated.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidGrant)
	assert.True(t, f.tokenStored(t, rotated.AccessToken))
}

func TestToken_PKCE(t *testing.T) {
	f := newFixture(t, Policy{})
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	withPKCE := func(c *repository.AuthCode) {
		c.CodeChallenge = tokens.SHA256Base64URL(verifier)
		c.CodeChallengeMethod = tokens.PKCEMethodS256
	}

	code := f.seedCode(t, "code-pkce-wrong", withPKCE)
	_, err := f.exchange(code, testRedirect, "not-the-verifier")
	require.ErrorIs(t, err, ErrInvalidGrant)
	_, err = f.exchange(code, testRedirect, verifier)
	assert.ErrorIs(t, err, ErrInvalidGrant, "failed verification burns the code")

	_, err = f.exchange(f.seedCode(t, "code-pkce-missing", withPKCE), testRedirect, "")
	assert.ErrorIs(t, err, ErrInvalidGrant)

	resp, err := f.exchange(f.seedCode(t, "code-pkce-ok", withPKCE), testRedirect, verifier)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestToken_CodeFromAnotherClient(t *testing.T) {
	f := newFixture(t, Policy{})
	code := f.seedCode(t, "code-foreign", func(c *repository.AuthCode) { c.ClientID = "other-app" })

	_, err := f.exchange(code, testRedirect, "")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}
