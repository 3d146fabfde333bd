package oauth

import "errors"

// Service errors. Error() equals the OAuth error code.
var (
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrInvalidClient           = errors.New("invalid_client")
	ErrInvalidGrant            = errors.New("invalid_grant")
	ErrUnauthorizedClient      = errors.New("unauthorized_client")
	ErrUnsupportedGrantType    = errors.New("unsupported_grant_type")
	ErrInvalidRedirectURI      = errors.New("invalid_redirect_uri")
	ErrInvalidClientMetadata   = errors.New("invalid_client_metadata")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")
)
