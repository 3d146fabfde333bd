package oauth

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// TokenController maneja POST /oauth/token.
type TokenController struct {
	service svc.TokenService
	issuer  IssuerFunc
}

// NewTokenController crea el controller del token endpoint.
func NewTokenController(service svc.TokenService, issuer IssuerFunc) *TokenController {
	return &TokenController{service: service, issuer: issuer}
}

// Token canjea un código o rota un refresh token.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Token"))

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
	req := dto.TokenRequest{
		GrantType:    p.Get("grant_type"),
		Code:         p.Get("code"),
		RedirectURI:  p.Get("redirect_uri"),
		CodeVerifier: p.Get("code_verifier"),
		RefreshToken: p.Get("refresh_token"),
		Issuer:       c.issuer(r),
	}

	resp, err := c.service.Token(ctx, creds, req)
	if err != nil {
		oe := mapServiceError(err)
		if errors.Is(err, svc.ErrInvalidClient) && creds.Basic {
			w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
		}
		if oe.Status >= 500 {
			log.Error("token request failed", logger.Err(err), logger.GrantType(req.GrantType))
		} else {
			log.Debug("token request rejected", logger.String("error", oe.Code), logger.GrantType(req.GrantType))
		}
		httperrors.WriteOAuthError(w, oe)
		return
	}

	httperrors.SetNoStore(w)
	helpers.WriteJSON(w, http.StatusOK, resp)
}
