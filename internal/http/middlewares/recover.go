package middlewares

import (
	"net/http"

	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// WithRecover captura panics y devuelve server_error 500 en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Path(r.URL.Path),
						logger.Any("panic", rec),
					)
					httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusInternalServerError, httperrors.CodeServerError, ""))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
