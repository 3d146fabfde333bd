package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

// IntrospectService implements POST /oauth/introspect (RFC 7662).
type IntrospectService interface {
	Introspect(ctx context.Context, creds helpers.ClientCredentials, token, issuer string) (dto.IntrospectResponse, error)
}

type introspectService struct {
	clients *clients.Registry
	grants  repository.GrantRepository
	users   repository.UserRepository
	policy  Policy
	now     func() time.Time
}

func (s *introspectService) Introspect(ctx context.Context, creds helpers.ClientCredentials, token, issuer string) (dto.IntrospectResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("IntrospectService.Introspect"))
	inactive := dto.IntrospectResponse{Active: false}

	var caller *repository.Client
	if s.policy.IntrospectionRequiresClientAuth {
		c, err := s.clients.Authenticate(ctx, creds.ClientID, creds.ClientSecret)
		if err != nil {
			if errors.Is(err, clients.ErrUnknownClient) || errors.Is(err, clients.ErrInvalidSecret) {
				return inactive, ErrInvalidClient
			}
			return inactive, err
		}
		caller = c
	}

	if token == "" {
		return inactive, ErrInvalidRequest
	}

	t, err := s.grants.GetToken(ctx, tokens.SHA256Base64URL(token))
	if err != nil {
		if repository.IsNotFound(err) {
			return inactive, nil
		}
		return inactive, fmt.Errorf("get token: %w", err)
	}
	if t.Expired(s.now()) {
		return inactive, nil
	}
	if caller != nil && caller.ClientID != t.ClientID {
		log.Debug("introspection of foreign token", logger.ClientID(caller.ClientID))
		return inactive, nil
	}

	out := dto.IntrospectResponse{
		Active:    true,
		ClientID:  t.ClientID,
		Scope:     t.Scope,
		Sub:       t.UserID,
		Exp:       t.ExpiresAt.Unix(),
		Iat:       t.IssuedAt.Unix(),
		TokenType: t.Kind + "_token",
		Iss:       issuer,
	}
	if u, err := s.users.GetUser(ctx, t.UserID); err == nil {
		out.Username = u.Name
		if out.Username == "" {
			out.Username = u.Username
		}
	} else if !repository.IsNotFound(err) {
		return inactive, fmt.Errorf("get user: %w", err)
	}
	return out, nil
}
