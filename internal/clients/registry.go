// Package clients resolves, authenticates and registers OAuth clients.
package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	"github.com/dropDatabas3/facegate/internal/security/secret"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

var (
	ErrUnknownClient   = errors.New("unknown client")
	ErrInvalidSecret   = errors.New("invalid client secret")
	ErrInvalidMetadata = errors.New("invalid_client_metadata")
)

// Defaults applied to dynamically registered clients.
var (
	DefaultGrantTypes    = []string{"authorization_code", "refresh_token"}
	DefaultResponseTypes = []string{"code"}
	DefaultScopes        = []string{"openid", "profile", "email", "phone"}
)

var (
	supportedGrants        = []string{"authorization_code", "refresh_token"}
	supportedResponseTypes = []string{"code"}
)

// Metadata is the client registration request.
type Metadata struct {
	ClientName    string
	RedirectURIs  []string
	GrantTypes    []string
	ResponseTypes []string
	Scope         string
}

// Registration is returned once; ClientSecret is not retrievable afterwards.
type Registration struct {
	Client       repository.Client
	ClientSecret string
}

// StaticClient is a client declared in configuration.
type StaticClient struct {
	ClientID     string
	ClientSecret string
	Name         string
	RedirectURIs []string
	GrantTypes   []string
	Scopes       []string
}

// Registry wraps a ClientRepository with OAuth client semantics.
type Registry struct {
	repo repository.ClientRepository
	now  func() time.Time
}

// NewRegistry returns a Registry over repo.
func NewRegistry(repo repository.ClientRepository) *Registry {
	return &Registry{repo: repo, now: time.Now}
}

// Resolve looks a client up by id.
func (r *Registry) Resolve(ctx context.Context, clientID string) (*repository.Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrUnknownClient
	}
	c, err := r.repo.GetClient(ctx, clientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnknownClient
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// ValidateRedirect reports whether uri is registered for c (exact match).
func (r *Registry) ValidateRedirect(c *repository.Client, uri string) bool {
	return c.HasRedirectURI(uri)
}

// Authenticate checks the client's secret.
func (r *Registry) Authenticate(ctx context.Context, clientID, clientSecret string) (*repository.Client, error) {
	c, err := r.Resolve(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !secret.Verify(clientSecret, c.SecretHash) {
		return nil, ErrInvalidSecret
	}
	return c, nil
}

// Register validates metadata and creates a confidential client.
func (r *Registry) Register(ctx context.Context, md Metadata) (*Registration, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("clients.Register"))

	if err := validateMetadata(md); err != nil {
		return nil, err
	}

	id, err := tokens.GenerateHex(8)
	if err != nil {
		return nil, fmt.Errorf("generate client id: %w", err)
	}
	plain, err := tokens.GenerateHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate client secret: %w", err)
	}
	hash, err := secret.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hash client secret: %w", err)
	}

	c := repository.Client{
		ClientID:      "client-" + id,
		SecretHash:    hash,
		Name:          strings.TrimSpace(md.ClientName),
		RedirectURIs:  slices.Clone(md.RedirectURIs),
		GrantTypes:    orDefault(md.GrantTypes, DefaultGrantTypes),
		ResponseTypes: orDefault(md.ResponseTypes, DefaultResponseTypes),
		Scopes:        orDefault(strings.Fields(md.Scope), DefaultScopes),
		CreatedAt:     r.now().UTC(),
	}
	if err := r.repo.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	log.Info("client registered", logger.ClientID(c.ClientID), zap.Int("redirect_uris", len(c.RedirectURIs)))
	return &Registration{Client: c, ClientSecret: plain}, nil
}

// SeedStatic upserts clients declared in configuration.
func (r *Registry) SeedStatic(ctx context.Context, list []StaticClient) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("clients.SeedStatic"))
	for _, sc := range list {
		if sc.ClientID == "" || sc.ClientSecret == "" {
			return fmt.Errorf("static client %q: client_id and client_secret are required", sc.ClientID)
		}
		if err := validateMetadata(Metadata{RedirectURIs: sc.RedirectURIs, GrantTypes: sc.GrantTypes}); err != nil {
			return fmt.Errorf("static client %q: %w", sc.ClientID, err)
		}
		hash, err := secret.Hash(sc.ClientSecret)
		if err != nil {
			return fmt.Errorf("static client %q: %w", sc.ClientID, err)
		}
		c := repository.Client{
			ClientID:      sc.ClientID,
			SecretHash:    hash,
			Name:          sc.Name,
			RedirectURIs:  slices.Clone(sc.RedirectURIs),
			GrantTypes:    orDefault(sc.GrantTypes, DefaultGrantTypes),
			ResponseTypes: DefaultResponseTypes,
			Scopes:        orDefault(sc.Scopes, DefaultScopes),
			Static:        true,
			CreatedAt:     r.now().UTC(),
		}
		if err := r.repo.UpsertClient(ctx, c); err != nil {
			return fmt.Errorf("upsert static client %q: %w", sc.ClientID, err)
		}
	}
	if len(list) > 0 {
		log.Info("static clients seeded", logger.Count(len(list)))
	}
	return nil
}

// List returns every registered client.
func (r *Registry) List(ctx context.Context) ([]repository.Client, error) {
	return r.repo.ListClients(ctx)
}

func validateMetadata(md Metadata) error {
	if len(md.RedirectURIs) == 0 {
		return fmt.Errorf("%w: redirect_uris is required", ErrInvalidMetadata)
	}
	for _, raw := range md.RedirectURIs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" || u.Fragment != "" {
			return fmt.Errorf("%w: redirect_uri %q must be an absolute URL without fragment", ErrInvalidMetadata, raw)
		}
	}
	for _, g := range md.GrantTypes {
		if !slices.Contains(supportedGrants, g) {
			return fmt.Errorf("%w: unsupported grant_type %q", ErrInvalidMetadata, g)
		}
	}
	for _, rt := range md.ResponseTypes {
		if !slices.Contains(supportedResponseTypes, rt) {
			return fmt.Errorf("%w: unsupported response_type %q", ErrInvalidMetadata, rt)
		}
	}
	return nil
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return slices.Clone(def)
	}
	return slices.Clone(v)
}
