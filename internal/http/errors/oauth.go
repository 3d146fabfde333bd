package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Códigos OAuth / propios del flujo biométrico.
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeUnauthorizedClient      = "unauthorized_client"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeInvalidRedirectURI      = "invalid_redirect_uri"
	CodeInvalidClientMetadata   = "invalid_client_metadata"
	CodeInvalidToken            = "invalid_token"
	CodeAccessDenied            = "access_denied"
	CodeMalformedRequest        = "malformed_request"
	CodeNoFaceDetected          = "no_face_detected"
	CodeServerError             = "server_error"
)

// OAuthError es un error con cuerpo RFC 6749 ({error, error_description}).
type OAuthError struct {
	Code        string
	Description string
	Status      int
	Err         error
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

func (e *OAuthError) Unwrap() error { return e.Err }

// NewOAuth crea un OAuthError.
func NewOAuth(status int, code, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description, Status: status}
}

// WithCause devuelve una copia con la causa original.
func (e *OAuthError) WithCause(err error) *OAuthError {
	cp := *e
	cp.Err = err
	return &cp
}

type oauthBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// SetNoStore marca la respuesta como no cacheable.
func SetNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteOAuthError escribe {error, error_description} con headers no-store.
// Errores que no son *OAuthError salen como server_error 500 sin detalle.
func WriteOAuthError(w http.ResponseWriter, err error) {
	var oe *OAuthError
	if !errors.As(err, &oe) {
		oe = NewOAuth(http.StatusInternalServerError, CodeServerError, "")
	}
	status := oe.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	SetNoStore(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(oauthBody{Error: oe.Code, ErrorDescription: oe.Description})
}
