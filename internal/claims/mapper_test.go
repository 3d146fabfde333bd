package claims

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

var fixed = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestIDToken_RequiredClaims(t *testing.T) {
	t.Parallel()
	m := NewMapper(func() time.Time { return fixed })
	u := &repository.User{ID: "abcdef123", FaceVerified: true, Email: "a@b.c", EmailVerified: true, UpdatedAt: fixed}

	c := m.IDToken(u.ID, u, IDTokenInput{
		Issuer: "https://id.example", Audience: "client-1", Nonce: "n1",
		AuthTime: fixed, IssuedAt: fixed, TTL: time.Hour,
	})

	assert.Equal(t, "abcdef123", c["sub"])
	assert.Equal(t, "https://id.example", c["iss"])
	assert.Equal(t, "client-1", c["aud"])
	assert.Equal(t, fixed.Unix(), c["iat"])
	assert.Equal(t, fixed.Add(time.Hour).Unix(), c["exp"])
	assert.Equal(t, fixed.Unix(), c["auth_time"])
	assert.Equal(t, "n1", c["nonce"])
	assert.Equal(t, true, c["face_verified"])
	assert.Equal(t, "a@b.c", c["email"])
}

func TestIDToken_OmitsEmptyNonce(t *testing.T) {
	t.Parallel()
	m := NewMapper(func() time.Time { return fixed })
	c := m.IDToken("u1", nil, IDTokenInput{IssuedAt: fixed, TTL: time.Minute})
	_, ok := c["nonce"]
	assert.False(t, ok)
	_, ok = c["auth_time"]
	assert.False(t, ok)
}

func TestProfile_Defaults(t *testing.T) {
	t.Parallel()
	m := NewMapper(func() time.Time { return fixed })
	c := m.Profile("0123456789", &repository.User{ID: "0123456789"})

	assert.Equal(t, "User 012345", c["name"])
	assert.Equal(t, "User", c["given_name"])
	assert.Equal(t, "012345", c["family_name"])
	assert.Nil(t, c["email"])
	assert.Nil(t, c["phone_number"])
	assert.Equal(t, fixed.Unix(), c["updated_at"])
	assert.Equal(t, false, c["face_verified"])

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"email":null`)
}

func TestProfile_MissingUser(t *testing.T) {
	t.Parallel()
	m := NewMapper(func() time.Time { return fixed })
	c := m.Profile("ghost", nil)
	assert.Equal(t, "ghost", c["sub"])
	assert.Equal(t, true, c["face_verified"])
	assert.Equal(t, "User ghost", c["name"])
}

func TestProfile_Deterministic(t *testing.T) {
	t.Parallel()
	m := NewMapper(func() time.Time { return fixed })
	u := &repository.User{ID: "u-123456", GivenName: "Ada", FamilyName: "Lovelace", Name: "Ada Lovelace"}
	assert.Equal(t, m.Profile(u.ID, u), m.Profile(u.ID, u))
}
