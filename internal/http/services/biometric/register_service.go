package biometric

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dropDatabas3/facegate/internal/continuation"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/biometric"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// RegisterService attaches a pending profile to a continuation so the next
// enrollment creates the user with those attributes.
type RegisterService interface {
	RegisterProfile(ctx context.Context, req dto.RegisterProfileRequest) (*dto.RegisterProfileResponse, error)
}

type registerService struct {
	codec    *continuation.Codec
	policy   Policy
	validate *validator.Validate
}

func (s *registerService) RegisterProfile(ctx context.Context, req dto.RegisterProfileRequest) (*dto.RegisterProfileResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("RegisterService.RegisterProfile"))

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := s.validate.Struct(req); err != nil {
		log.Debug("profile rejected", logger.Err(err))
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, firstField(err))
	}

	cont, err := s.codec.Decode(req.Request)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	cont.Profile = &continuation.PendingProfile{
		GivenName:     req.FirstName,
		FamilyName:    req.LastName,
		Username:      req.Username,
		Email:         req.Email,
		EmailVerified: true,
		Phone:         req.Phone,
		PhoneVerified: req.Phone != "",
	}
	enc, err := s.codec.Encode(cont)
	if err != nil {
		return nil, fmt.Errorf("encode continuation: %w", err)
	}

	log.Debug("pending profile attached", logger.ClientID(cont.ClientID))
	return &dto.RegisterProfileResponse{
		Request:    enc,
		CaptureURL: helpers.AddQuery(s.policy.CaptureURL, "request", enc, "action", dto.ActionEnroll),
	}, nil
}

func firstField(err error) string {
	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		return strings.ToLower(ve[0].Field()) + " is invalid"
	}
	return "invalid profile"
}
