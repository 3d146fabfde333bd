package helpers

import (
	"net/http"
	"net/url"
	"strings"
)

// ClientCredentials son las credenciales presentadas en el token endpoint.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	// Basic indica que vinieron en Authorization: Basic (client_secret_basic).
	Basic bool
}

// ReadClientCredentials toma client_secret_basic si está presente y
// client_secret_post en caso contrario.
func ReadClientCredentials(r *http.Request, p Params) ClientCredentials {
	if id, sec, ok := r.BasicAuth(); ok {
		// RFC 6749 2.3.1: los valores van form-urlencoded.
		if v, err := url.QueryUnescape(id); err == nil {
			id = v
		}
		if v, err := url.QueryUnescape(sec); err == nil {
			sec = v
		}
		return ClientCredentials{ClientID: id, ClientSecret: sec, Basic: true}
	}
	return ClientCredentials{ClientID: p.Get("client_id"), ClientSecret: p.Get("client_secret")}
}

// BearerToken extrae el token de Authorization: Bearer.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
