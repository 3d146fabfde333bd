package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/facegate/internal/http/middlewares"
)

// registerBiometricRoutes registra /face-auth/*. La captura (HTML) la sirve
// el frontend; aquí solo los endpoints que reciben el descriptor.
func registerBiometricRoutes(r chi.Router, deps Deps) {
	c := deps.Biometric
	if c == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.WithBodyLimit(maxVerifyBytes))
		r.With(limited(deps.Limits.Register)).Post("/face-auth/register", c.Register.Register)
		r.With(limited(deps.Limits.Verify)).Post("/face-auth/verify", c.Verify.Verify)
	})
}
