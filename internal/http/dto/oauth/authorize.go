// Package oauth contiene los DTOs de los endpoints /oauth/*.
package oauth

// AuthorizeRequest son los parámetros de GET /oauth/authorize.
type AuthorizeRequest struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
}
