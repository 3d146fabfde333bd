package oauth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/facegate/internal/http/errors"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	svc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// RegisterController maneja POST /oauth/register (RFC 7591).
type RegisterController struct {
	service svc.RegisterService
}

// NewRegisterController crea el controller de registro dinámico.
func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

// Register acepta JSON o formulario. En formulario, redirect_uris puede
// repetirse o venir separado por espacios.
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	req, err := decodeRegister(w, r)
	if err != nil {
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidClientMetadata, "malformed client metadata").WithCause(err))
		return
	}

	resp, err := c.service.Register(ctx, req)
	if err != nil {
		oe := mapServiceError(err)
		if oe.Status >= 500 {
			log.Error("client registration failed", logger.Err(err))
		}
		httperrors.WriteOAuthError(w, oe)
		return
	}

	httperrors.SetNoStore(w)
	helpers.WriteJSON(w, http.StatusCreated, resp)
}

func decodeRegister(w http.ResponseWriter, r *http.Request) (dto.RegisterClientRequest, error) {
	var req dto.RegisterClientRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.ClientName = r.PostForm.Get("client_name")
	req.Scope = r.PostForm.Get("scope")
	req.RedirectURIs = splitMulti(r.PostForm["redirect_uris"])
	req.GrantTypes = splitMulti(r.PostForm["grant_types"])
	req.ResponseTypes = splitMulti(r.PostForm["response_types"])
	if len(req.RedirectURIs) == 0 && r.PostForm.Get("redirect_uri") != "" {
		req.RedirectURIs = []string{r.PostForm.Get("redirect_uri")}
	}
	if len(r.PostForm) == 0 {
		return req, errors.New("empty body")
	}
	return req, nil
}

func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(strings.ReplaceAll(v, ",", " "))...)
	}
	return out
}
