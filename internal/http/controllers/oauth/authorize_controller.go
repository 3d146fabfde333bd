package oauth

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// AuthorizeController maneja GET /oauth/authorize.
type AuthorizeController struct {
	service svc.AuthorizeService
}

// NewAuthorizeController crea el controller de authorize.
func NewAuthorizeController(service svc.AuthorizeService) *AuthorizeController {
	return &AuthorizeController{service: service}
}

// Authorize valida el request y redirige a la captura facial (o al cliente
// con error cuando el redirect_uri es confiable).
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorizeController.Authorize"))

	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	q := r.URL.Query()
	req := dto.AuthorizeRequest{
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		ResponseType:        q.Get("response_type"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}

	location, err := c.service.Authorize(ctx, req)
	if err != nil {
		oe := mapServiceError(err)
		// invalid_client en authorize no es autenticación de cliente: 400.
		if errors.Is(err, svc.ErrInvalidClient) {
			oe.Status = http.StatusBadRequest
		}
		if oe.Status >= 500 {
			log.Error("authorize failed", logger.Err(err))
		}
		httperrors.WriteOAuthError(w, oe)
		return
	}

	httperrors.SetNoStore(w)
	http.Redirect(w, r, location, http.StatusFound)
}
