// Package oidc contains the discovery, JWKS and userinfo services.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/facegate/internal/claims"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oidc"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

// ErrInvalidToken is returned for unknown, expired or non-access tokens.
var ErrInvalidToken = errors.New("invalid_token")

// Service exposes the OpenID Connect metadata endpoints.
type Service interface {
	Discovery(issuer string) dto.Discovery
	JWKS() []byte
	UserInfo(ctx context.Context, bearer string) (map[string]any, error)
}

// Deps contains the dependencies of the OIDC service.
type Deps struct {
	Grants repository.GrantRepository
	Users  repository.UserRepository
	Issuer *jwtx.Issuer
	Claims *claims.Mapper
	Now    func() time.Time
}

type service struct {
	d Deps
}

// NewService builds the OIDC service.
func NewService(d Deps) Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Claims == nil {
		d.Claims = claims.NewMapper(d.Now)
	}
	return &service{d: d}
}

func (s *service) Discovery(issuer string) dto.Discovery {
	base := strings.TrimRight(issuer, "/")
	return dto.Discovery{
		Issuer:                            issuer,
		AuthorizationEndpoint:             base + "/oauth/authorize",
		TokenEndpoint:                     base + "/oauth/token",
		UserinfoEndpoint:                  base + "/oauth/userinfo",
		JWKSURI:                           base + "/oauth/jwks",
		RegistrationEndpoint:              base + "/oauth/register",
		RevocationEndpoint:                base + "/oauth/revoke",
		IntrospectionEndpoint:             base + "/oauth/introspect",
		EndSessionEndpoint:                base + "/oauth/logout",
		BackchannelLogoutSupported:        true,
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{jwtx.AlgEdDSA},
		ScopesSupported:                   []string{"openid", "profile", "email", "phone"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
		CodeChallengeMethodsSupported:     []string{tokens.PKCEMethodS256},
		ClaimsSupported: []string{
			"sub", "iss", "aud", "exp", "iat", "auth_time", "nonce",
			"name", "given_name", "family_name", "preferred_username",
			"email", "email_verified", "phone_number", "phone_number_verified",
			"picture", "updated_at", "face_verified",
		},
	}
}

func (s *service) JWKS() []byte {
	return s.d.Issuer.JWKSJSON()
}

func (s *service) UserInfo(ctx context.Context, bearer string) (map[string]any, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("OIDCService.UserInfo"))

	if bearer == "" {
		return nil, ErrInvalidToken
	}
	tok, err := s.d.Grants.GetToken(ctx, tokens.SHA256Base64URL(bearer))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	if tok.Kind != repository.TokenKindAccess || tok.Expired(s.d.Now()) {
		log.Debug("bearer rejected", logger.String("kind", tok.Kind))
		return nil, ErrInvalidToken
	}

	u, err := s.d.Users.GetUser(ctx, tok.UserID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("get user: %w", err)
		}
		u = nil
	}
	return s.d.Claims.Profile(tok.UserID, u), nil
}
