package oauth

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{svc.ErrInvalidClient, http.StatusUnauthorized},
	{svc.ErrInvalidRequest, http.StatusBadRequest},
	{svc.ErrInvalidGrant, http.StatusBadRequest},
	{svc.ErrUnauthorizedClient, http.StatusBadRequest},
	{svc.ErrUnsupportedGrantType, http.StatusBadRequest},
	{svc.ErrInvalidRedirectURI, http.StatusBadRequest},
	{svc.ErrInvalidClientMetadata, http.StatusBadRequest},
	{svc.ErrUnsupportedResponseType, http.StatusBadRequest},
}

// mapServiceError traduce un error del service a OAuthError. El texto que
// sigue al código ("code: detalle") pasa a error_description.
func mapServiceError(err error) *httperrors.OAuthError {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			code := m.err.Error()
			desc := strings.TrimPrefix(strings.TrimPrefix(err.Error(), code), ": ")
			return httperrors.NewOAuth(m.status, code, desc).WithCause(err)
		}
	}
	return httperrors.NewOAuth(http.StatusInternalServerError, httperrors.CodeServerError, "").WithCause(err)
}

// readParams lee el body con el límite de formularios; un body inválido es
// invalid_request.
func readParams(w http.ResponseWriter, r *http.Request) (helpers.Params, error) {
	p, err := helpers.ReadParams(w, r, maxFormBytes)
	if err != nil {
		if errors.Is(err, helpers.ErrBodyTooLarge) {
			return nil, httperrors.NewOAuth(http.StatusRequestEntityTooLarge, httperrors.CodeInvalidRequest, "request body too large")
		}
		return nil, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "malformed request body").WithCause(err)
	}
	return p, nil
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
}
