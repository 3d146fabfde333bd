// Package biometric contains the services behind /face-auth: pending
// registration profiles and face verification.
package biometric

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dropDatabas3/facegate/internal/audit"
	bio "github.com/dropDatabas3/facegate/internal/biometric"
	"github.com/dropDatabas3/facegate/internal/continuation"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

// Duplicate enrollment policies.
const (
	DuplicateAllow  = "allow"
	DuplicateReject = "reject"
	DuplicateMerge  = "merge"
)

// Errors. Error() equals the code written to the client.
var (
	ErrMalformedRequest = errors.New("malformed_request")
	ErrInvalidRequest   = errors.New("invalid_request")
)

// Policy holds matching and enrollment tunables.
type Policy struct {
	Threshold           float64
	Dimension           int
	DuplicateEnrollment string
	CodeTTL             time.Duration
	CaptureURL          string
	RegisterURL         string
}

// Deps contains the dependencies of the biometric services.
type Deps struct {
	Codec     *continuation.Codec
	Templates *bio.TemplateSource
	Store     repository.TemplateRepository
	Users     repository.UserRepository
	Enroller  repository.Enroller
	Grants    repository.GrantRepository
	Matcher   bio.Matcher
	Audit     *audit.Recorder
	Policy    Policy
	Now       func() time.Time
	NewID     func() string
}

// Services aggregates the biometric services.
type Services struct {
	Register RegisterService
	Verify   VerifyService
}

// NewServices builds the biometric services.
func NewServices(d Deps) *Services {
	if d.Policy.Threshold <= 0 {
		d.Policy.Threshold = bio.DefaultThreshold
	}
	if d.Policy.DuplicateEnrollment == "" {
		d.Policy.DuplicateEnrollment = DuplicateMerge
	}
	if d.Policy.CodeTTL <= 0 {
		d.Policy.CodeTTL = 10 * time.Minute
	}
	if d.Policy.CaptureURL == "" {
		d.Policy.CaptureURL = "/face-auth"
	}
	if d.Policy.RegisterURL == "" {
		d.Policy.RegisterURL = "/face-auth/register"
	}
	if d.Matcher == nil {
		d.Matcher = bio.NewLinearMatcher()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = newUUID
	}
	validate := validator.New()
	return &Services{
		Register: &registerService{codec: d.Codec, policy: d.Policy, validate: validate},
		Verify:   &verifyService{d: d, validate: validate},
	}
}
