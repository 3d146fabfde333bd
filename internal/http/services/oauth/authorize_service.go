package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/continuation"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

// AuthorizeService validates an authorization request and hands it to the
// biometric capture page.
type AuthorizeService interface {
	// Authorize returns the 302 target. Errors are rendered locally
	// (ErrInvalidClient, ErrInvalidRedirectURI); errors that can be reported
	// to the client come back as a redirect location with error params.
	Authorize(ctx context.Context, req dto.AuthorizeRequest) (string, error)
}

type authorizeService struct {
	clients *clients.Registry
	codec   *continuation.Codec
	policy  Policy
}

func (s *authorizeService) Authorize(ctx context.Context, req dto.AuthorizeRequest) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AuthorizeService.Authorize"))

	client, err := s.clients.Resolve(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, clients.ErrUnknownClient) {
			log.Debug("unknown client", logger.ClientID(req.ClientID))
			return "", ErrInvalidClient
		}
		return "", err
	}

	if req.RedirectURI == "" {
		return "", ErrInvalidRedirectURI
	}
	if !s.clients.ValidateRedirect(client, req.RedirectURI) {
		log.Debug("redirect_uri not registered", logger.ClientID(client.ClientID))
		if s.policy.StrictRedirectErrors {
			return "", ErrInvalidRedirectURI
		}
		return errorRedirect(req.RedirectURI, "invalid_redirect_uri", "Invalid redirection URI", req.State), nil
	}

	if req.ResponseType != "code" {
		return errorRedirect(req.RedirectURI, "unsupported_response_type", "Unsupported response type", req.State), nil
	}
	if !client.AllowsResponseType(req.ResponseType) {
		return errorRedirect(req.RedirectURI, "unauthorized_client", "Client may not use this response type", req.State), nil
	}
	if bad := client.DisallowedScopes(req.Scope); len(bad) > 0 {
		log.Debug("scope not registered", logger.ClientID(client.ClientID), logger.String("scope", strings.Join(bad, " ")))
		return errorRedirect(req.RedirectURI, "invalid_scope", "Scope not allowed: "+strings.Join(bad, " "), req.State), nil
	}

	if req.CodeChallenge != "" || req.CodeChallengeMethod != "" {
		if req.CodeChallenge == "" || req.CodeChallengeMethod != tokens.PKCEMethodS256 {
			return errorRedirect(req.RedirectURI, "invalid_request", "code_challenge_method must be S256", req.State), nil
		}
	}

	cont, err := s.codec.Encode(continuation.Continuation{
		ClientID:            client.ClientID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		State:               req.State,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
	})
	if err != nil {
		return "", fmt.Errorf("encode continuation: %w", err)
	}

	log.Debug("authorization request accepted", logger.ClientID(client.ClientID))
	return helpers.AddQuery(s.policy.CaptureURL, "request", cont), nil
}

// errorRedirect builds redirect_uri?error=..&error_description=..&state=..
func errorRedirect(redirectURI, code, description, state string) string {
	return helpers.AddQuery(redirectURI, "error", code, "error_description", description, "state", state)
}
