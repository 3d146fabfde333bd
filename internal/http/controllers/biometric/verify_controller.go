package biometric

import (
	"net/http"

	dto "github.com/dropDatabas3/facegate/internal/http/dto/biometric"
	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/biometric"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// VerifyController maneja POST /face-auth/verify.
type VerifyController struct {
	service svc.VerifyService
}

// NewVerifyController crea el controller de verificación.
func NewVerifyController(service svc.VerifyService) *VerifyController {
	return &VerifyController{service: service}
}

// Verify responde 302 al cliente (código o access_denied), 422 cuando no se
// detectó rostro y 200 cuando hace falta enrolar.
func (c *VerifyController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("VerifyController.Verify"))

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	p, err := readParams(w, r, maxVerifyBytes)
	if err != nil {
		httperrors.WriteOAuthError(w, err)
		return
	}

	action := p.Get("action")
	if action == "" {
		action = dto.ActionAuthenticate
	}
	res, err := c.service.Verify(ctx, dto.VerifyRequest{
		Request:    p.Get("request"),
		Descriptor: p.Get("descriptor"),
		Action:     action,
	})
	if err != nil {
		oe := mapServiceError(err)
		if oe.Status >= 500 {
			log.Error("verify failed", logger.Err(err))
		}
		httperrors.WriteOAuthError(w, oe)
		return
	}

	log.Debug("verify completed", logger.Action(action), logger.Outcome(res.Outcome))
	httperrors.SetNoStore(w)
	switch res.Outcome {
	case dto.OutcomeRedirect:
		http.Redirect(w, r, res.Location, http.StatusFound)
	case dto.OutcomeNoFaceDetected:
		helpers.WriteJSON(w, http.StatusUnprocessableEntity, dto.OutcomeResponse{
			Outcome: res.Outcome,
			Message: "No face detected, please try again",
			Request: res.Request,
		})
	default:
		helpers.WriteJSON(w, http.StatusOK, dto.OutcomeResponse{
			Outcome:     res.Outcome,
			Message:     "No enrolled faces found, registration required",
			Request:     res.Request,
			RegisterURL: res.RegisterURL,
		})
	}
}
