package biometric

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dropDatabas3/facegate/internal/audit"
	bio "github.com/dropDatabas3/facegate/internal/biometric"
	"github.com/dropDatabas3/facegate/internal/continuation"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/biometric"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	"github.com/dropDatabas3/facegate/internal/metrics"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

// VerifyService matches or enrolls a probe and issues the authorization code.
type VerifyService interface {
	Verify(ctx context.Context, req dto.VerifyRequest) (*dto.VerifyResult, error)
}

type verifyService struct {
	d        Deps
	validate *validator.Validate
}

func newUUID() string { return uuid.NewString() }

func (s *verifyService) Verify(ctx context.Context, req dto.VerifyRequest) (*dto.VerifyResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("VerifyService.Verify"))

	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if err := s.validate.Struct(req); err != nil {
		log.Debug("verify request rejected", logger.Err(err))
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, firstField(err))
	}

	cont, err := s.d.Codec.Decode(req.Request)
	if err != nil {
		log.Debug("continuation rejected")
		return nil, ErrMalformedRequest
	}
	log = log.With(logger.ClientID(cont.ClientID))

	probe, err := bio.ParseVector(req.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: descriptor is not a list of numbers", ErrInvalidRequest)
	}
	if err := probe.Validate(s.d.Policy.Dimension); err != nil {
		if errors.Is(err, bio.ErrEmptyVector) {
			metrics.ObserveMatch("no_face", -1)
			return &dto.VerifyResult{Outcome: dto.OutcomeNoFaceDetected, Request: req.Request}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	switch req.Action {
	case dto.ActionEnroll, dto.ActionRegister:
		return s.enroll(ctx, cont, probe)
	default:
		return s.authenticate(ctx, cont, req.Request, probe)
	}
}

func (s *verifyService) authenticate(ctx context.Context, cont continuation.Continuation, raw string, probe bio.Vector) (*dto.VerifyResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("VerifyService.authenticate"), logger.ClientID(cont.ClientID))

	candidates, err := s.d.Templates.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(candidates) == 0 {
		metrics.ObserveMatch("empty", -1)
		log.Info("no enrolled templates, enrollment required")
		return &dto.VerifyResult{
			Outcome:     dto.OutcomeEnrollmentRequired,
			Request:     raw,
			RegisterURL: helpers.AddQuery(s.d.Policy.RegisterURL, "request", raw),
		}, nil
	}

	res, ok := s.d.Matcher.Match(probe, candidates, s.d.Policy.Threshold)
	if !ok {
		metrics.ObserveMatch("no_match", distanceOf(res))
		log.Info("face not matched")
		return s.deny(ctx, cont, "", "Face authentication failed"), nil
	}
	metrics.ObserveMatch("match", res.Distance)

	userID := res.Template.UserID
	if _, err := s.d.Users.GetUser(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			log.Warn("matched template without user record", logger.UserID(userID))
			return s.deny(ctx, cont, userID, "Face authentication failed"), nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	log.Info("face matched", logger.UserID(userID), logger.Distance(res.Distance))
	return s.issueCode(ctx, cont, userID, "authenticate")
}

func (s *verifyService) enroll(ctx context.Context, cont continuation.Continuation, probe bio.Vector) (*dto.VerifyResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("VerifyService.enroll"), logger.ClientID(cont.ClientID))
	now := s.d.Now().UTC()

	if s.d.Policy.DuplicateEnrollment != DuplicateAllow {
		candidates, err := s.d.Templates.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		if res, ok := s.d.Matcher.Match(probe, candidates, s.d.Policy.Threshold); ok {
			existing := res.Template.UserID
			if s.d.Policy.DuplicateEnrollment == DuplicateReject {
				metrics.ObserveEnrollment("rejected_duplicate")
				log.Info("enrollment rejected, face already enrolled", logger.UserID(existing))
				return s.deny(ctx, cont, existing, "face already enrolled"), nil
			}
			// merge: la identidad existente inicia sesión y suma el template.
			if err := s.d.Store.AddTemplate(ctx, repository.Template{
				ID:         s.d.NewID(),
				UserID:     existing,
				Vector:     probe,
				EnrolledAt: now,
			}); err != nil {
				if repository.IsNotFound(err) {
					return s.deny(ctx, cont, existing, "Face authentication failed"), nil
				}
				return nil, fmt.Errorf("add template: %w", err)
			}
			s.d.Templates.Invalidate()
			metrics.ObserveEnrollment("merged")
			log.Info("face merged into existing identity", logger.UserID(existing), logger.Distance(res.Distance))
			return s.issueCode(ctx, cont, existing, "merge")
		}
	}

	user := newUser(s.d.NewID(), cont.Profile, now)
	tpl := repository.Template{ID: s.d.NewID(), UserID: user.ID, Vector: probe, EnrolledAt: now}
	if err := s.d.Enroller.Enroll(ctx, user, tpl); err != nil {
		metrics.ObserveEnrollment("error")
		return nil, fmt.Errorf("enroll: %w", err)
	}
	s.d.Templates.Invalidate()
	metrics.ObserveEnrollment("created")
	s.d.Audit.Record(ctx, audit.Event{Type: audit.EventUserEnrolled, ClientID: cont.ClientID, UserID: user.ID, Outcome: "created"})
	log.Info("user enrolled", logger.UserID(user.ID))

	return s.issueCode(ctx, cont, user.ID, "enroll")
}

func (s *verifyService) issueCode(ctx context.Context, cont continuation.Continuation, userID, via string) (*dto.VerifyResult, error) {
	now := s.d.Now()
	code, err := tokens.GenerateOpaqueToken(tokens.CodeBytes)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	if err := s.d.Grants.SaveCode(ctx, repository.AuthCode{
		CodeHash:            tokens.SHA256Base64URL(code),
		ClientID:            cont.ClientID,
		UserID:              userID,
		RedirectURI:         cont.RedirectURI,
		Scope:               cont.Scope,
		Nonce:               cont.Nonce,
		CodeChallenge:       cont.CodeChallenge,
		CodeChallengeMethod: cont.CodeChallengeMethod,
		AuthTime:            now,
		ExpiresAt:           now.Add(s.d.Policy.CodeTTL),
	}); err != nil {
		return nil, fmt.Errorf("save code: %w", err)
	}

	s.d.Audit.Record(ctx, audit.Event{
		Type: audit.EventAuthSucceeded, ClientID: cont.ClientID, UserID: userID, Outcome: "code_issued",
		Detail: map[string]string{"via": via},
	})
	return &dto.VerifyResult{
		Outcome:  dto.OutcomeRedirect,
		Location: helpers.AddQuery(cont.RedirectURI, "code", code, "state", cont.State),
	}, nil
}

func (s *verifyService) deny(ctx context.Context, cont continuation.Continuation, userID, description string) *dto.VerifyResult {
	s.d.Audit.Record(ctx, audit.Event{
		Type: audit.EventAuthDenied, ClientID: cont.ClientID, UserID: userID, Outcome: "access_denied",
		Detail: map[string]string{"reason": description},
	})
	return &dto.VerifyResult{
		Outcome: dto.OutcomeRedirect,
		Location: helpers.AddQuery(cont.RedirectURI,
			"error", "access_denied", "error_description", description, "state", cont.State),
	}
}

// newUser construye el usuario a partir del perfil pendiente; los campos
// ausentes toman los defaults de la proyección de claims.
func newUser(id string, p *continuation.PendingProfile, now time.Time) repository.User {
	u := repository.User{ID: id, FaceVerified: true, CreatedAt: now, UpdatedAt: now}
	if p == nil {
		return u
	}
	u.GivenName = p.GivenName
	u.FamilyName = p.FamilyName
	if p.GivenName != "" && p.FamilyName != "" {
		u.Name = p.GivenName + " " + p.FamilyName
	}
	u.Username = p.Username
	u.Email = p.Email
	u.EmailVerified = p.EmailVerified
	u.Phone = p.Phone
	u.PhoneVerified = p.PhoneVerified
	return u
}

// distanceOf devuelve -1 cuando no hubo candidato comparable.
func distanceOf(r bio.Result) float64 {
	if r.Template.ID == "" && r.Template.UserID == "" {
		return -1
	}
	return r.Distance
}
