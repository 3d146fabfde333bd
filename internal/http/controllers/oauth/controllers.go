// Package oauth contiene los controllers de /oauth/*.
package oauth

import (
	"net/http"

	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
)

// Límite de body para formularios OAuth.
const maxFormBytes = 64 << 10

// IssuerFunc resuelve el issuer para un request (config o host derivado).
type IssuerFunc func(r *http.Request) string

// Controllers agrupa los controllers OAuth.
type Controllers struct {
	Authorize  *AuthorizeController
	Token      *TokenController
	Revoke     *RevokeController
	Introspect *IntrospectController
	Register   *RegisterController
	Logout     *LogoutController
}

// NewControllers crea los controllers OAuth a partir de los services.
func NewControllers(s *svc.Services, issuer IssuerFunc) *Controllers {
	return &Controllers{
		Authorize:  NewAuthorizeController(s.Authorize),
		Token:      NewTokenController(s.Token, issuer),
		Revoke:     NewRevokeController(s.Revoke),
		Introspect: NewIntrospectController(s.Introspect, issuer),
		Register:   NewRegisterController(s.Register),
		Logout:     NewLogoutController(s.Logout, issuer),
	}
}
