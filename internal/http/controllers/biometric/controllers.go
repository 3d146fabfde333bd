// Package biometric contiene los controllers de /face-auth/*.
package biometric

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/biometric"
)

// Límites de body.
const (
	maxFormBytes   = 64 << 10
	maxVerifyBytes = 256 << 10
)

// Controllers agrupa los controllers biométricos.
type Controllers struct {
	Register *RegisterController
	Verify   *VerifyController
}

// NewControllers crea los controllers biométricos.
func NewControllers(s *svc.Services) *Controllers {
	return &Controllers{
		Register: NewRegisterController(s.Register),
		Verify:   NewVerifyController(s.Verify),
	}
}

func readParams(w http.ResponseWriter, r *http.Request, max int64) (helpers.Params, error) {
	p, err := helpers.ReadParams(w, r, max)
	if err != nil {
		if errors.Is(err, helpers.ErrBodyTooLarge) {
			return nil, httperrors.NewOAuth(http.StatusRequestEntityTooLarge, httperrors.CodeInvalidRequest, "request body too large")
		}
		return nil, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "malformed request body").WithCause(err)
	}
	return p, nil
}

func mapServiceError(err error) *httperrors.OAuthError {
	switch {
	case errors.Is(err, svc.ErrMalformedRequest):
		return httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeMalformedRequest, "authorization request is invalid or expired").WithCause(err)
	case errors.Is(err, svc.ErrInvalidRequest):
		desc := strings.TrimPrefix(strings.TrimPrefix(err.Error(), svc.ErrInvalidRequest.Error()), ": ")
		return httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, desc).WithCause(err)
	default:
		return httperrors.NewOAuth(http.StatusInternalServerError, httperrors.CodeServerError, "").WithCause(err)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", "POST")
	httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
}
