package oauth

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/facegate/internal/audit"
	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// LogoutService implements RP-initiated and back-channel logout.
type LogoutService interface {
	// BackchannelLogout verifies logoutToken and purges the subject's grants.
	// Only a missing token is an error; unverifiable tokens are ignored.
	BackchannelLogout(ctx context.Context, logoutToken, issuer string) error
	// Logout returns the post-logout redirect target.
	Logout(ctx context.Context, req dto.LogoutRequest) (string, error)
}

type logoutService struct {
	clients *clients.Registry
	grants  repository.GrantRepository
	issuer  *jwtx.Issuer
	audit   *audit.Recorder
	policy  Policy
}

func (s *logoutService) BackchannelLogout(ctx context.Context, logoutToken, issuer string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("LogoutService.BackchannelLogout"))

	if logoutToken == "" {
		return ErrInvalidRequest
	}

	claims, err := jwtx.ParseEdDSA(logoutToken, s.issuer, issuer)
	if err != nil && len(s.policy.BackchannelHMACSecret) > 0 {
		claims, err = jwtx.ParseHS256(logoutToken, s.policy.BackchannelHMACSecret, "")
	}
	if err != nil {
		log.Debug("logout token rejected", logger.Err(err))
		return nil
	}
	if !jwtx.IsLogoutToken(claims) {
		log.Debug("token is not a logout token")
		return nil
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		log.Debug("logout token without sub")
		return nil
	}
	if err := s.purge(ctx, sub, "backchannel"); err != nil {
		log.Error("purge subject failed", logger.UserID(sub), logger.Err(err))
	}
	return nil
}

func (s *logoutService) Logout(ctx context.Context, req dto.LogoutRequest) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("LogoutService.Logout"))

	clientID := req.ClientID
	if req.IDTokenHint != "" {
		claims, err := jwtx.ParseEdDSA(req.IDTokenHint, s.issuer, req.Issuer)
		if err != nil {
			log.Debug("id_token_hint rejected", logger.Err(err))
		} else {
			if clientID == "" {
				clientID = audienceOf(claims["aud"])
			}
			if sub, _ := claims["sub"].(string); sub != "" {
				if err := s.purge(ctx, sub, "rp_logout"); err != nil {
					return "", err
				}
			}
		}
	}

	target := s.policy.DefaultPostLogoutRedirectURI
	if req.PostLogoutRedirectURI != "" && clientID != "" {
		c, err := s.clients.Resolve(ctx, clientID)
		switch {
		case err == nil && c.HasRedirectURI(req.PostLogoutRedirectURI):
			target = req.PostLogoutRedirectURI
		case err == nil:
			log.Debug("post_logout_redirect_uri not registered", logger.ClientID(clientID))
		default:
			log.Debug("logout client not resolved", logger.ClientID(clientID), logger.Err(err))
		}
	}
	return helpers.AddQuery(target, "state", req.State), nil
}

func (s *logoutService) purge(ctx context.Context, sub, via string) error {
	codes, toks, err := s.grants.PurgeSubject(ctx, sub)
	if err != nil {
		return fmt.Errorf("purge subject: %w", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type:    audit.EventSubjectLoggedOut,
		UserID:  sub,
		Outcome: "ok",
		Detail:  map[string]string{"via": via, "codes": fmt.Sprint(codes), "tokens": fmt.Sprint(toks)},
	})
	logger.From(ctx).Info("subject logged out", logger.UserID(sub), logger.String("via", via),
		logger.Int("codes", codes), logger.Int("tokens", toks))
	return nil
}

func audienceOf(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case []any:
		if len(a) > 0 {
			s, _ := a[0].(string)
			return s
		}
	}
	return ""
}
