// Package claims projects user records into OpenID Connect claim sets.
package claims

import (
	"time"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

// IDTokenInput carries the token-specific values of an ID token.
type IDTokenInput struct {
	Issuer   string
	Audience string
	Nonce    string
	AuthTime time.Time
	IssuedAt time.Time
	TTL      time.Duration
}

// Mapper builds ID token and userinfo claim sets.
type Mapper struct {
	now func() time.Time
}

// NewMapper returns a Mapper. A nil clock uses time.Now.
func NewMapper(now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{now: now}
}

// IDToken returns the ID token claims for user u. When u is nil the claims are
// projected from the subject alone.
func (m *Mapper) IDToken(sub string, u *repository.User, in IDTokenInput) map[string]any {
	out := m.Profile(sub, u)
	out["iss"] = in.Issuer
	out["aud"] = in.Audience
	out["iat"] = in.IssuedAt.Unix()
	out["exp"] = in.IssuedAt.Add(in.TTL).Unix()
	if !in.AuthTime.IsZero() {
		out["auth_time"] = in.AuthTime.Unix()
	}
	if in.Nonce != "" {
		out["nonce"] = in.Nonce
	}
	return out
}

// Profile returns the userinfo claims. Absent optional values are emitted as
// nil so the JSON shape stays the same for every user.
func (m *Mapper) Profile(sub string, u *repository.User) map[string]any {
	if u == nil {
		u = &repository.User{ID: sub, FaceVerified: true}
	}
	short := shortID(sub)

	name := u.Name
	if name == "" {
		name = "User " + short
	}
	given := u.GivenName
	if given == "" {
		given = "User"
	}
	family := u.FamilyName
	if family == "" {
		family = short
	}
	updated := u.UpdatedAt
	if updated.IsZero() {
		updated = m.now()
	}

	return map[string]any{
		"sub":                   sub,
		"name":                  name,
		"given_name":            given,
		"family_name":           family,
		"preferred_username":    nullable(u.Username),
		"email":                 nullable(u.Email),
		"email_verified":        u.EmailVerified,
		"phone_number":          nullable(u.Phone),
		"phone_number_verified": u.PhoneVerified,
		"picture":               nullable(u.Picture),
		"face_verified":         u.FaceVerified,
		"updated_at":            updated.Unix(),
	}
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
