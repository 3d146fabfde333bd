package oauth

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/facegate/internal/audit"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

// RevokeService implements POST /oauth/revoke (RFC 7009).
type RevokeService interface {
	// Revoke deletes the token if present. Unknown or empty tokens are not an error.
	Revoke(ctx context.Context, token string) error
}

type revokeService struct {
	grants repository.GrantRepository
	audit  *audit.Recorder
}

func (s *revokeService) Revoke(ctx context.Context, token string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("RevokeService.Revoke"))
	if token == "" {
		return nil
	}
	if err := s.grants.DeleteToken(ctx, tokens.SHA256Base64URL(token)); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventTokenRevoked, Outcome: "ok"})
	log.Debug("token revoked")
	return nil
}
