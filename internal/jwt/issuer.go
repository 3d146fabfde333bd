package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidIssuer = errors.New("invalid_issuer")
	ErrInvalidJWT    = errors.New("invalid_jwt")
)

// Issuer firma tokens con la clave activa.
type Issuer struct {
	Iss  string  // "iss"
	Keys *KeySet // clave activa
}

func NewIssuer(iss string, keys *KeySet) *Issuer {
	return &Issuer{Iss: iss, Keys: keys}
}

// Sign firma un MapClaims arbitrario con EdDSA, setea header kid/typ.
// Si las claims no traen "iss" se usa el del issuer.
func (i *Issuer) Sign(claims jwtv5.MapClaims) (string, error) {
	if _, ok := claims["iss"]; !ok && i.Iss != "" {
		claims["iss"] = i.Iss
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.Keys.Priv)
}

// BackchannelLogoutEvent es la clave de "events" de un logout token OIDC.
const BackchannelLogoutEvent = "http://schemas.openid.net/event/backchannel-logout"

// IssueLogoutToken emite un logout token OIDC (backchannel) para sub/aud.
// iss vacío usa el del issuer.
func (i *Issuer) IssueLogoutToken(iss, sub, aud string, now time.Time) (string, error) {
	if iss == "" {
		iss = i.Iss
	}
	return i.Sign(jwtv5.MapClaims{
		"iss": iss,
		"sub": sub,
		"aud": aud,
		"iat": now.Unix(),
		"exp": now.Add(2 * time.Minute).Unix(),
		"events": map[string]any{
			BackchannelLogoutEvent: map[string]any{},
		},
	})
}

// IsLogoutToken reporta si claims tienen la forma de un logout token:
// evento backchannel-logout presente y sin nonce. Un ID token firmado por
// nosotros no pasa este chequeo.
func IsLogoutToken(claims map[string]any) bool {
	if _, ok := claims["nonce"]; ok {
		return false
	}
	events, ok := claims["events"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = events[BackchannelLogoutEvent]
	return ok
}

// Keyfunc devuelve un jwt.Keyfunc que acepta el kid activo (o tokens sin kid).
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != i.Keys.KID {
			return nil, errors.New("unknown kid")
		}
		return i.Keys.Pub, nil
	}
}

// JWKSJSON expone el JWKS actual.
func (i *Issuer) JWKSJSON() []byte {
	return i.Keys.JWKSJSON()
}
