package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/facegate/internal/audit"
	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	"github.com/dropDatabas3/facegate/internal/metrics"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

// Grant types.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// TokenService implements POST /oauth/token.
type TokenService interface {
	Token(ctx context.Context, creds helpers.ClientCredentials, req dto.TokenRequest) (*dto.TokenResponse, error)
}

type tokenService struct {
	clients *clients.Registry
	grants  repository.GrantRepository
	minter  *minter
	audit   *audit.Recorder
	now     func() time.Time
}

func (s *tokenService) Token(ctx context.Context, creds helpers.ClientCredentials, req dto.TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.Token"), logger.GrantType(req.GrantType))

	client, err := s.clients.Authenticate(ctx, creds.ClientID, creds.ClientSecret)
	if err != nil {
		if errors.Is(err, clients.ErrUnknownClient) || errors.Is(err, clients.ErrInvalidSecret) {
			log.Debug("client authentication failed", logger.ClientID(creds.ClientID))
			metrics.ObserveGrantFailure(req.GrantType, ErrInvalidClient.Error())
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	var resp *dto.TokenResponse
	switch req.GrantType {
	case GrantAuthorizationCode:
		if !client.AllowsGrant(req.GrantType) {
			err = ErrUnauthorizedClient
			break
		}
		resp, err = s.exchangeCode(ctx, client, req)
	case GrantRefreshToken:
		if !client.AllowsGrant(req.GrantType) {
			err = ErrUnauthorizedClient
			break
		}
		resp, err = s.refresh(ctx, client, req)
	case "":
		err = ErrInvalidRequest
	default:
		err = ErrUnsupportedGrantType
	}

	if err != nil {
		metrics.ObserveGrantFailure(req.GrantType, reasonOf(err))
		return nil, err
	}
	metrics.ObserveTokens(req.GrantType)
	return resp, nil
}

func (s *tokenService) exchangeCode(ctx context.Context, client *repository.Client, req dto.TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.exchangeCode"), logger.ClientID(client.ClientID))

	if req.Code == "" {
		return nil, ErrInvalidRequest
	}

	// Consumo atómico: ante intercambios concurrentes del mismo código sólo
	// uno obtiene el registro.
	code, err := s.grants.ConsumeCode(ctx, tokens.SHA256Base64URL(req.Code))
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("code not found or already used")
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}

	switch {
	case code.Expired(s.now()):
		log.Debug("code expired")
		return nil, ErrInvalidGrant
	case code.ClientID != client.ClientID:
		log.Warn("code presented by another client")
		return nil, ErrInvalidGrant
	case code.RedirectURI != req.RedirectURI:
		log.Debug("redirect_uri mismatch")
		return nil, ErrInvalidGrant
	}
	if code.CodeChallenge != "" && !tokens.VerifyPKCE(req.CodeVerifier, code.CodeChallenge, code.CodeChallengeMethod) {
		log.Debug("pkce verification failed")
		return nil, ErrInvalidGrant
	}

	resp, err := s.minter.mint(ctx, grantSubject{
		ClientID: client.ClientID,
		UserID:   code.UserID,
		Scope:    code.Scope,
		Nonce:    code.Nonce,
		AuthTime: code.AuthTime,
		Issuer:   req.Issuer,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{Type: audit.EventCodeExchanged, ClientID: client.ClientID, UserID: code.UserID, Outcome: "ok"})
	log.Info("authorization code exchanged", logger.UserID(code.UserID))
	return resp, nil
}

func (s *tokenService) refresh(ctx context.Context, client *repository.Client, req dto.TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.refresh"), logger.ClientID(client.ClientID))

	if req.RefreshToken == "" {
		return nil, ErrInvalidRequest
	}

	// Rotación: el refresh token se consume siempre, aun si después falla
	// la validación de cliente.
	old, err := s.grants.ConsumeToken(ctx, tokens.SHA256Base64URL(req.RefreshToken), repository.TokenKindRefresh)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if old.Expired(s.now()) {
		log.Debug("refresh token expired")
		return nil, ErrInvalidGrant
	}
	if old.ClientID != client.ClientID {
		log.Warn("refresh token presented by another client")
		return nil, ErrInvalidGrant
	}

	resp, err := s.minter.mint(ctx, grantSubject{
		ClientID: client.ClientID,
		UserID:   old.UserID,
		Scope:    old.Scope,
		Issuer:   req.Issuer,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{Type: audit.EventTokenRefreshed, ClientID: client.ClientID, UserID: old.UserID, Outcome: "ok"})
	log.Info("refresh token rotated", logger.UserID(old.UserID))
	return resp, nil
}

func reasonOf(err error) string {
	for _, e := range []error{ErrInvalidRequest, ErrInvalidClient, ErrInvalidGrant, ErrUnauthorizedClient, ErrUnsupportedGrantType} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "server_error"
}
