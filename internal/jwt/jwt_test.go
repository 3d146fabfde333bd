package jwt

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	t.Parallel()
	ks, err := Generate("kid-1")
	require.NoError(t, err)
	iss := NewIssuer("https://id.example", ks)

	now := time.Now()
	tok, err := iss.Sign(jwtv5.MapClaims{"sub": "u1", "aud": "c1", "iat": now.Unix(), "exp": now.Add(time.Minute).Unix()})
	require.NoError(t, err)

	claims, err := ParseEdDSA(tok, iss, "https://id.example")
	require.NoError(t, err)
	require.Equal(t, "u1", claims["sub"])
	require.Equal(t, "https://id.example", claims["iss"])

	_, err = ParseEdDSA(tok, iss, "https://other.example")
	require.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestParseRejectsForeignKey(t *testing.T) {
	t.Parallel()
	a, _ := Generate("a")
	b, _ := Generate("a")
	tok, err := NewIssuer("x", a).Sign(jwtv5.MapClaims{"sub": "u", "exp": time.Now().Add(time.Minute).Unix()})
	require.NoError(t, err)
	_, err = ParseEdDSA(tok, NewIssuer("x", b), "")
	require.ErrorIs(t, err, ErrInvalidJWT)
}

func TestParseExpired(t *testing.T) {
	t.Parallel()
	ks, _ := Generate("k")
	iss := NewIssuer("x", ks)
	tok, err := iss.Sign(jwtv5.MapClaims{"sub": "u", "exp": time.Now().Add(-2 * time.Minute).Unix()})
	require.NoError(t, err)
	_, err = ParseEdDSA(tok, iss, "")
	require.ErrorIs(t, err, ErrInvalidJWT)
}

func TestParseHS256(t *testing.T) {
	t.Parallel()
	secret := []byte("0123456789abcdef0123456789abcdef")
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{"sub": "u2", "iss": "rp"})
	s, err := tk.SignedString(secret)
	require.NoError(t, err)

	claims, err := ParseHS256(s, secret, "")
	require.NoError(t, err)
	require.Equal(t, "u2", claims["sub"])

	_, err = ParseHS256(s, []byte("another-secret-another-secret-xx"), "")
	require.Error(t, err)
}

func TestKeyFileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keys", "signing.json")

	k1, created, err := LoadOrGenerate(path, "kid-x")
	require.NoError(t, err)
	require.True(t, created)

	k2, created, err := LoadOrGenerate(path, "ignored")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, k1.KID, k2.KID)
	require.Equal(t, k1.Pub, k2.Pub)
}

func TestJWKSJSON(t *testing.T) {
	t.Parallel()
	ks, _ := Generate("kid-j")
	var doc struct {
		Keys []map[string]string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(ks.JWKSJSON(), &doc))
	require.Len(t, doc.Keys, 1)
	require.Equal(t, "OKP", doc.Keys[0]["kty"])
	require.Equal(t, "Ed25519", doc.Keys[0]["crv"])
	require.Equal(t, "kid-j", doc.Keys[0]["kid"])
}

func TestLogoutTokenShape(t *testing.T) {
	t.Parallel()
	ks, err := Generate("k")
	require.NoError(t, err)
	iss := NewIssuer("https://id.example", ks)
	now := time.Now()

	tok, err := iss.IssueLogoutToken("", "u1", "app", now)
	require.NoError(t, err)
	claims, err := ParseEdDSA(tok, iss, "https://id.example")
	require.NoError(t, err)
	require.True(t, IsLogoutToken(claims))

	tok, err = iss.IssueLogoutToken("https://proxy.example", "u1", "app", now)
	require.NoError(t, err)
	_, err = ParseEdDSA(tok, iss, "https://proxy.example")
	require.NoError(t, err)

	require.False(t, IsLogoutToken(map[string]any{"sub": "u1"}))
	require.False(t, IsLogoutToken(map[string]any{"sub": "u1", "events": map[string]any{"other": map[string]any{}}}))
	require.False(t, IsLogoutToken(map[string]any{
		"sub": "u1", "nonce": "n", "events": map[string]any{BackchannelLogoutEvent: map[string]any{}},
	}))
}
