package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/facegate/internal/http/middlewares"
)

// registerOAuthRoutes registra /oauth/* (RFC 6749, 7009, 7591, 7662 y
// OIDC logout). Todas las respuestas son no-store.
func registerOAuthRoutes(r chi.Router, deps Deps) {
	c := deps.OAuth
	if c == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.WithBodyLimit(maxFormBytes))

		r.Get("/oauth/authorize", c.Authorize.Authorize)
		r.With(limited(deps.Limits.Token)).Post("/oauth/token", c.Token.Token)
		r.Post("/oauth/revoke", c.Revoke.Revoke)
		r.With(limited(deps.Limits.Introspect)).Post("/oauth/introspect", c.Introspect.Introspect)
		r.With(limited(deps.Limits.Register)).Post("/oauth/register", c.Register.Register)
		r.Post("/oauth/backchannel-logout", c.Logout.Backchannel)
		r.Get("/oauth/logout", c.Logout.Logout)
		r.Post("/oauth/logout", c.Logout.Logout)
	})
}
