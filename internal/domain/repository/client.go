package repository

import (
	"context"
	"slices"
	"strings"
	"time"
)

// Client representa un cliente OAuth registrado.
type Client struct {
	ClientID      string
	SecretHash    string // bcrypt; nunca el secreto en claro
	Name          string
	RedirectURIs  []string
	GrantTypes    []string
	ResponseTypes []string
	Scopes        []string
	Static        bool // proviene de configuración
	CreatedAt     time.Time
}

// HasRedirectURI reporta si uri está registrada. Comparación exacta de strings.
func (c *Client) HasRedirectURI(uri string) bool {
	return c != nil && slices.Contains(c.RedirectURIs, uri)
}

// AllowsResponseType reporta si el cliente puede pedir responseType.
// Sin response types configurados sólo se admite "code".
func (c *Client) AllowsResponseType(responseType string) bool {
	if c == nil {
		return false
	}
	if len(c.ResponseTypes) == 0 {
		return responseType == "code"
	}
	return slices.Contains(c.ResponseTypes, responseType)
}

// DisallowedScopes devuelve los scopes pedidos que el cliente no tiene
// registrados. Un cliente sin scopes registrados no restringe.
func (c *Client) DisallowedScopes(scope string) []string {
	if c == nil || len(c.Scopes) == 0 {
		return nil
	}
	var out []string
	for _, s := range strings.Fields(scope) {
		if !slices.Contains(c.Scopes, s) {
			out = append(out, s)
		}
	}
	return out
}

// AllowsGrant reporta si el cliente puede usar el grant indicado.
// Sin grants configurados se asumen los defaults (authorization_code + refresh_token).
func (c *Client) AllowsGrant(grant string) bool {
	if c == nil {
		return false
	}
	if len(c.GrantTypes) == 0 {
		return grant == "authorization_code" || grant == "refresh_token"
	}
	return slices.Contains(c.GrantTypes, grant)
}

// ClientRepository define operaciones sobre clientes OAuth.
type ClientRepository interface {
	// GetClient busca un cliente por client_id.
	// Retorna ErrNotFound si no existe.
	GetClient(ctx context.Context, clientID string) (*Client, error)

	// CreateClient persiste un cliente nuevo.
	// Retorna ErrConflict si el client_id ya existe.
	CreateClient(ctx context.Context, c Client) error

	// UpsertClient crea o reemplaza un cliente (clientes estáticos de config).
	UpsertClient(ctx context.Context, c Client) error

	// ListClients lista todos los clientes ordenados por created_at.
	ListClients(ctx context.Context) ([]Client, error)
}
