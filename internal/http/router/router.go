// Package router arma el árbol de rutas chi con sus cadenas de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	bioctrl "github.com/dropDatabas3/facegate/internal/http/controllers/biometric"
	healthctrl "github.com/dropDatabas3/facegate/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/facegate/internal/http/controllers/oauth"
	oidcctrl "github.com/dropDatabas3/facegate/internal/http/controllers/oidc"
	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	mw "github.com/dropDatabas3/facegate/internal/http/middlewares"
	"github.com/dropDatabas3/facegate/internal/rate"
)

// Límites de body por grupo.
const (
	maxFormBytes   = 64 << 10
	maxVerifyBytes = 256 << 10
)

// Limits son los limiters por grupo de endpoints. Un limiter nil desactiva
// el límite de ese grupo.
type Limits struct {
	Token      rate.Limiter
	Verify     rate.Limiter
	Register   rate.Limiter
	Introspect rate.Limiter
}

// Deps contiene los controllers y la infraestructura del router.
type Deps struct {
	OAuth     *oauthctrl.Controllers
	Biometric *bioctrl.Controllers
	OIDC      *oidcctrl.Controllers
	Health    *healthctrl.HealthController

	// Metrics es el handler Prometheus; nil => sin /metrics.
	Metrics     http.Handler
	MetricsPath string

	CORSOrigins []string
	Limits      Limits
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Infra: sin logging (muy frecuentes).
	r.Group(func(r chi.Router) {
		r.Use(mw.WithRecover(), mw.WithRequestID())
		if deps.Health != nil {
			r.Get("/healthz", deps.Health.Healthz)
			r.Head("/healthz", deps.Health.Healthz)
			r.Get("/readyz", deps.Health.Readyz)
		}
		if deps.Metrics != nil {
			path := deps.MetricsPath
			if path == "" {
				path = "/metrics"
			}
			r.Method(http.MethodGet, path, deps.Metrics)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithRecover(),
			mw.WithRequestID(),
			mw.WithSecurityHeaders(),
			mw.WithCORS(deps.CORSOrigins),
			mw.WithLogging(),
			mw.WithMetrics(),
		)
		registerOIDCRoutes(r, deps)
		registerOAuthRoutes(r, deps)
		registerBiometricRoutes(r, deps)
	})

	return r
}

func limited(l rate.Limiter) func(http.Handler) http.Handler {
	return mw.WithRateLimit(mw.RateLimitConfig{Limiter: l, KeyFunc: mw.IPPathRateKey})
}
