package biometric

import (
	"net/http"

	dto "github.com/dropDatabas3/facegate/internal/http/dto/biometric"
	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/biometric"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// RegisterController maneja POST /face-auth/register.
type RegisterController struct {
	service svc.RegisterService
}

// NewRegisterController crea el controller de perfil pendiente.
func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

// Register embebe el perfil en la continuation y devuelve la URL de captura.
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	p, err := readParams(w, r, maxFormBytes)
	if err != nil {
		httperrors.WriteOAuthError(w, err)
		return
	}

	resp, err := c.service.RegisterProfile(ctx, dto.RegisterProfileRequest{
		Request:   p.Get("request"),
		FirstName: p.Get("first_name"),
		LastName:  p.Get("last_name"),
		Username:  p.Get("username"),
		Email:     p.Get("email"),
		Phone:     p.Get("phone"),
	})
	if err != nil {
		oe := mapServiceError(err)
		if oe.Status >= 500 {
			log.Error("profile registration failed", logger.Err(err))
		}
		httperrors.WriteOAuthError(w, oe)
		return
	}

	httperrors.SetNoStore(w)
	helpers.WriteJSON(w, http.StatusOK, resp)
}
