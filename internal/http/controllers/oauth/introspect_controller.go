package oauth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// IntrospectController maneja POST /oauth/introspect (RFC 7662).
type IntrospectController struct {
	service svc.IntrospectService
	issuer  IssuerFunc
}

// NewIntrospectController crea el controller de introspección.
func NewIntrospectController(service svc.IntrospectService, issuer IssuerFunc) *IntrospectController {
	return &IntrospectController{service: service, issuer: issuer}
}

// Introspect devuelve {active:false} para tokens desconocidos, vencidos o de
// otro cliente.
func (c *IntrospectController) Introspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IntrospectController.Introspect"))

	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	p, err := readParams(w, r)
	if err != nil {
		httperrors.WriteOAuthError(w, err)
		return
	}
	creds := helpers.ReadClientCredentials(r, p)

	resp, err := c.service.Introspect(ctx, creds, p.Get("token"), c.issuer(r))
	if err != nil {
		oe := mapServiceError(err)
		if oe.Code == httperrors.CodeInvalidClient && creds.Basic {
			w.Header().Set("WWW-Authenticate", `Basic realm="introspect"`)
		}
		if oe.Status >= 500 {
			log.Error("introspection failed", logger.Err(err))
		}
		httperrors.WriteOAuthError(w, oe)
		return
	}

	httperrors.SetNoStore(w)
	helpers.WriteJSON(w, http.StatusOK, resp)
}
