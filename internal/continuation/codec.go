// Package continuation carries an in-flight authorization request across the
// browser round trip to the capture page.
//
// Wire form: base64url(JSON) "." base64url(HMAC-SHA256(key, payload)).
// Any decode failure, including a bad MAC or an expired payload, is
// reported as ErrMalformed.
package continuation

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinKeyLen is the minimum HMAC key length in bytes.
const MinKeyLen = 32

// DefaultTTL bounds how long a user may take at the capture page.
const DefaultTTL = 15 * time.Minute

// ErrMalformed is returned for every continuation that cannot be trusted.
var ErrMalformed = errors.New("malformed continuation")

// PendingProfile holds registration attributes collected before enrollment.
type PendingProfile struct {
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Username      string `json:"preferred_username,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Phone         string `json:"phone_number,omitempty"`
	PhoneVerified bool   `json:"phone_number_verified,omitempty"`
}

// Continuation is the state of an authorization request awaiting a face capture.
type Continuation struct {
	ClientID            string          `json:"client_id"`
	RedirectURI         string          `json:"redirect_uri"`
	Scope               string          `json:"scope,omitempty"`
	State               string          `json:"state,omitempty"`
	Nonce               string          `json:"nonce,omitempty"`
	CodeChallenge       string          `json:"code_challenge,omitempty"`
	CodeChallengeMethod string          `json:"code_challenge_method,omitempty"`
	Profile             *PendingProfile `json:"profile,omitempty"`
	IssuedAt            int64           `json:"iat"`
	ExpiresAt           int64           `json:"exp"`
}

// Codec signs and verifies continuations.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithTTL sets the continuation lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec builds a Codec from a raw key of at least MinKeyLen bytes.
func NewCodec(key []byte, opts ...Option) (*Codec, error) {
	if len(key) < MinKeyLen {
		return nil, fmt.Errorf("continuation key must be at least %d bytes, got %d", MinKeyLen, len(key))
	}
	c := &Codec{key: append([]byte(nil), key...), ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ParseKey decodes a base64 (std or url, padded or not) key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			if len(b) < MinKeyLen {
				return nil, fmt.Errorf("continuation key must be at least %d bytes, got %d", MinKeyLen, len(b))
			}
			return b, nil
		}
	}
	return nil, errors.New("continuation key is not valid base64")
}

// RandomKey returns a fresh key. Continuations signed with it do not survive a restart.
func RandomKey() ([]byte, error) {
	b := make([]byte, MinKeyLen)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Encode stamps IssuedAt/ExpiresAt and returns the signed wire form.
func (c *Codec) Encode(in Continuation) (string, error) {
	now := c.now()
	in.IssuedAt = now.Unix()
	in.ExpiresAt = now.Add(c.ttl).Unix()
	payload, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal continuation: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + base64.RawURLEncoding.EncodeToString(c.sign(body)), nil
}

// Decode verifies and parses a continuation.
func (c *Codec) Decode(s string) (Continuation, error) {
	var out Continuation
	body, sig, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || body == "" || sig == "" {
		return out, ErrMalformed
	}
	mac, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return out, ErrMalformed
	}
	if !hmac.Equal(mac, c.sign(body)) {
		return out, ErrMalformed
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return out, ErrMalformed
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return Continuation{}, ErrMalformed
	}
	if out.ClientID == "" || out.RedirectURI == "" {
		return Continuation{}, ErrMalformed
	}
	if out.ExpiresAt != 0 && c.now().Unix() >= out.ExpiresAt {
		return Continuation{}, ErrMalformed
	}
	return out, nil
}

func (c *Codec) sign(body string) []byte {
	h := hmac.New(sha256.New, c.key)
	h.Write([]byte(body))
	return h.Sum(nil)
}
