package oauth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dropDatabas3/facegate/internal/audit"
	"github.com/dropDatabas3/facegate/internal/clients"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// RegisterService implements dynamic client registration.
type RegisterService interface {
	Register(ctx context.Context, req dto.RegisterClientRequest) (*dto.RegisterClientResponse, error)
}

type registerService struct {
	clients  *clients.Registry
	audit    *audit.Recorder
	validate *validator.Validate
}

func (s *registerService) Register(ctx context.Context, req dto.RegisterClientRequest) (*dto.RegisterClientResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("RegisterService.Register"))

	if err := s.validate.Struct(req); err != nil {
		log.Debug("client metadata rejected", logger.Err(err))
		return nil, ErrInvalidClientMetadata
	}

	reg, err := s.clients.Register(ctx, clients.Metadata{
		ClientName:    req.ClientName,
		RedirectURIs:  req.RedirectURIs,
		GrantTypes:    req.GrantTypes,
		ResponseTypes: req.ResponseTypes,
		Scope:         req.Scope,
	})
	if err != nil {
		if errors.Is(err, clients.ErrInvalidMetadata) {
			return nil, ErrInvalidClientMetadata
		}
		return nil, err
	}

	c := reg.Client
	s.audit.Record(ctx, audit.Event{Type: audit.EventClientRegistered, ClientID: c.ClientID, Outcome: "ok"})
	return &dto.RegisterClientResponse{
		ClientID:                c.ClientID,
		ClientSecret:            reg.ClientSecret,
		ClientName:              c.Name,
		ClientIDIssuedAt:        c.CreatedAt.Unix(),
		ClientSecretExpiresAt:   0,
		RedirectURIs:            c.RedirectURIs,
		GrantTypes:              c.GrantTypes,
		ResponseTypes:           c.ResponseTypes,
		Scope:                   strings.Join(c.Scopes, " "),
		TokenEndpointAuthMethod: "client_secret_basic",
	}, nil
}
