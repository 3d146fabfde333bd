package oauth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// RevokeController maneja POST /oauth/revoke (RFC 7009).
type RevokeController struct {
	service svc.RevokeService
}

// NewRevokeController crea el controller de revocación.
func NewRevokeController(service svc.RevokeService) *RevokeController {
	return &RevokeController{service: service}
}

// Revoke responde 200 siempre que el body sea legible; revocar un token
// desconocido no es error.
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RevokeController.Revoke"))

	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	p, err := readParams(w, r)
	if err != nil {
		httperrors.WriteOAuthError(w, err)
		return
	}
	token := p.Get("token")
	if token == "" {
		token = helpers.BearerToken(r)
	}

	if err := c.service.Revoke(ctx, token); err != nil {
		log.Error("revoke failed", logger.Err(err))
		httperrors.WriteOAuthError(w, mapServiceError(err))
		return
	}

	httperrors.SetNoStore(w)
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"revoked": true})
}
