package oauth

import (
	"net/http"

	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// LogoutController maneja /oauth/logout y /oauth/backchannel-logout.
type LogoutController struct {
	service svc.LogoutService
	issuer  IssuerFunc
}

// NewLogoutController crea el controller de logout.
func NewLogoutController(service svc.LogoutService, issuer IssuerFunc) *LogoutController {
	return &LogoutController{service: service, issuer: issuer}
}

// Backchannel procesa un logout_token (OIDC Back-Channel Logout). Responde
// 204 aunque el token no verifique.
func (c *LogoutController) Backchannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Backchannel"))

	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	p, err := readParams(w, r)
	if err != nil {
		httperrors.WriteOAuthError(w, err)
		return
	}

	if err := c.service.BackchannelLogout(ctx, p.Get("logout_token"), c.issuer(r)); err != nil {
		oe := mapServiceError(err)
		if oe.Status >= 500 {
			log.Error("backchannel logout failed", logger.Err(err))
		}
		httperrors.WriteOAuthError(w, oe)
		return
	}

	httperrors.SetNoStore(w)
	w.WriteHeader(http.StatusNoContent)
}

// Logout redirige al post_logout_redirect_uri registrado (o al default).
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, "GET, POST")
		return
	}

	p, err := readParams(w, r)
	if err != nil {
		httperrors.WriteOAuthError(w, err)
		return
	}

	location, err := c.service.Logout(ctx, dto.LogoutRequest{
		PostLogoutRedirectURI: p.Get("post_logout_redirect_uri"),
		ClientID:              p.Get("client_id"),
		IDTokenHint:           p.Get("id_token_hint"),
		State:                 p.Get("state"),
		Issuer:                c.issuer(r),
	})
	if err != nil {
		log.Error("logout failed", logger.Err(err))
		httperrors.WriteOAuthError(w, mapServiceError(err))
		return
	}

	httperrors.SetNoStore(w)
	http.Redirect(w, r, location, http.StatusFound)
}
