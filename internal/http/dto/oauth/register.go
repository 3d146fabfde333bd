package oauth

// RegisterClientRequest es el body de POST /oauth/register (RFC 7591).
type RegisterClientRequest struct {
	ClientName    string   `json:"client_name" validate:"omitempty,max=200"`
	RedirectURIs  []string `json:"redirect_uris" validate:"required,min=1,dive,required,max=2048"`
	GrantTypes    []string `json:"grant_types,omitempty" validate:"omitempty,dive,oneof=authorization_code refresh_token"`
	ResponseTypes []string `json:"response_types,omitempty" validate:"omitempty,dive,oneof=code"`
	Scope         string   `json:"scope,omitempty" validate:"omitempty,max=1000"`
}

// RegisterClientResponse devuelve el secreto en claro una única vez.
type RegisterClientResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret"`
	ClientName              string   `json:"client_name,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientSecretExpiresAt   int64    `json:"client_secret_expires_at"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	Scope                   string   `json:"scope,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}
