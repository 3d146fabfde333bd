// Package oidc contiene los controllers de discovery, JWKS y userinfo.
package oidc

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oidc"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// IssuerFunc resuelve el issuer para un request.
type IssuerFunc func(r *http.Request) string

// Controllers agrupa los controllers OIDC.
type Controllers struct {
	service svc.Service
	issuer  IssuerFunc
}

// NewControllers crea los controllers OIDC.
func NewControllers(service svc.Service, issuer IssuerFunc) *Controllers {
	return &Controllers{service: service, issuer: issuer}
}

// Discovery maneja GET /.well-known/openid-configuration.
func (c *Controllers) Discovery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, c.service.Discovery(c.issuer(r)))
}

// JWKS maneja GET /oauth/jwks.
func (c *Controllers) JWKS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}
	helpers.WriteRawJSON(w, http.StatusOK, c.service.JWKS())
}

// UserInfo maneja GET|POST /oauth/userinfo.
func (c *Controllers) UserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Controllers.UserInfo"))

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	claims, err := c.service.UserInfo(ctx, helpers.BearerToken(r))
	if err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		if errors.Is(err, svc.ErrInvalidToken) {
			httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusUnauthorized, httperrors.CodeInvalidToken, "token invalid or expired"))
			return
		}
		log.Error("userinfo failed", logger.Err(err))
		httperrors.WriteOAuthError(w, err)
		return
	}

	httperrors.SetNoStore(w)
	w.Header().Add("Vary", "Authorization")
	helpers.WriteJSON(w, http.StatusOK, claims)
}
