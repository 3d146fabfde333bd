package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/facegate/internal/http/middlewares"
)

const metadataCacheControl = "public, max-age=300"

// registerOIDCRoutes registra discovery, JWKS y userinfo.
func registerOIDCRoutes(r chi.Router, deps Deps) {
	c := deps.OIDC
	if c == nil {
		return
	}
	r.With(mw.WithCacheControl(metadataCacheControl)).Get("/.well-known/openid-configuration", c.Discovery)
	r.With(mw.WithCacheControl(metadataCacheControl)).Get("/oauth/jwks", c.JWKS)
	r.With(mw.WithBodyLimit(maxFormBytes)).Get("/oauth/userinfo", c.UserInfo)
	r.With(mw.WithBodyLimit(maxFormBytes)).Post("/oauth/userinfo", c.UserInfo)
}
