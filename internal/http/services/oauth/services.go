// Package oauth contains services for the OAuth2/OIDC endpoints.
package oauth

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dropDatabas3/facegate/internal/audit"
	"github.com/dropDatabas3/facegate/internal/claims"
	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/continuation"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
)

// Default lifetimes.
const (
	DefaultCodeTTL    = 10 * time.Minute
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 720 * time.Hour
	DefaultIDTokenTTL = time.Hour
)

// Policy holds the tunables of the authorization engine.
type Policy struct {
	CodeTTL    time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	IDTokenTTL time.Duration

	// CaptureURL receives ?request=<continuation> after /oauth/authorize.
	CaptureURL string
	// StrictRedirectErrors renders unregistered redirect_uri locally instead
	// of redirecting to it.
	StrictRedirectErrors bool

	IntrospectionRequiresClientAuth bool
	BackchannelHMACSecret           []byte
	DefaultPostLogoutRedirectURI    string
}

func (p Policy) withDefaults() Policy {
	if p.CodeTTL <= 0 {
		p.CodeTTL = DefaultCodeTTL
	}
	if p.AccessTTL <= 0 {
		p.AccessTTL = DefaultAccessTTL
	}
	if p.RefreshTTL <= 0 {
		p.RefreshTTL = DefaultRefreshTTL
	}
	if p.IDTokenTTL <= 0 {
		p.IDTokenTTL = DefaultIDTokenTTL
	}
	if p.CaptureURL == "" {
		p.CaptureURL = "/face-auth"
	}
	if p.DefaultPostLogoutRedirectURI == "" {
		p.DefaultPostLogoutRedirectURI = "/"
	}
	return p
}

// Deps contains the dependencies shared by the OAuth services.
type Deps struct {
	Clients *clients.Registry
	Codec   *continuation.Codec
	Grants  repository.GrantRepository
	Users   repository.UserRepository
	Issuer  *jwtx.Issuer
	Claims  *claims.Mapper
	Audit   *audit.Recorder
	Policy  Policy
	Now     func() time.Time
}

// Services aggregates the OAuth services.
type Services struct {
	Authorize  AuthorizeService
	Token      TokenService
	Revoke     RevokeService
	Introspect IntrospectService
	Logout     LogoutService
	Register   RegisterService
}

// NewServices builds every OAuth service from d.
func NewServices(d Deps) *Services {
	d.Policy = d.Policy.withDefaults()
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Claims == nil {
		d.Claims = claims.NewMapper(d.Now)
	}
	m := &minter{
		grants: d.Grants,
		users:  d.Users,
		issuer: d.Issuer,
		claims: d.Claims,
		policy: d.Policy,
		now:    d.Now,
	}
	return &Services{
		Authorize:  &authorizeService{clients: d.Clients, codec: d.Codec, policy: d.Policy},
		Token:      &tokenService{clients: d.Clients, grants: d.Grants, minter: m, audit: d.Audit, now: d.Now},
		Revoke:     &revokeService{grants: d.Grants, audit: d.Audit},
		Introspect: &introspectService{clients: d.Clients, grants: d.Grants, users: d.Users, policy: d.Policy, now: d.Now},
		Logout:     &logoutService{clients: d.Clients, grants: d.Grants, issuer: d.Issuer, audit: d.Audit, policy: d.Policy},
		Register:   &registerService{clients: d.Clients, audit: d.Audit, validate: validator.New()},
	}
}
