package oauth

// LogoutRequest son los parámetros de GET /oauth/logout.
type LogoutRequest struct {
	PostLogoutRedirectURI string
	ClientID              string
	IDTokenHint           string
	State                 string
	Issuer                string
}
