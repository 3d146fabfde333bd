package oauth

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/facegate/internal/claims"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
)

// minter issues access/refresh token pairs and ID tokens.
type minter struct {
	grants repository.GrantRepository
	users  repository.UserRepository
	issuer *jwtx.Issuer
	claims *claims.Mapper
	policy Policy
	now    func() time.Time
}

type grantSubject struct {
	ClientID string
	UserID   string
	Scope    string
	Nonce    string
	AuthTime time.Time
	Issuer   string
}

func (m *minter) mint(ctx context.Context, g grantSubject) (*dto.TokenResponse, error) {
	now := m.now()

	access, err := tokens.GenerateOpaqueToken(tokens.AccessTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := tokens.GenerateOpaqueToken(tokens.RefreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	base := repository.Token{UserID: g.UserID, ClientID: g.ClientID, Scope: g.Scope, Nonce: g.Nonce, IssuedAt: now}

	at := base
	at.TokenHash = tokens.SHA256Base64URL(access)
	at.Kind = repository.TokenKindAccess
	at.ExpiresAt = now.Add(m.policy.AccessTTL)
	if err := m.grants.SaveToken(ctx, at); err != nil {
		return nil, fmt.Errorf("save access token: %w", err)
	}

	rt := base
	rt.TokenHash = tokens.SHA256Base64URL(refresh)
	rt.Kind = repository.TokenKindRefresh
	rt.ExpiresAt = now.Add(m.policy.RefreshTTL)
	if err := m.grants.SaveToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	resp := &dto.TokenResponse{
		AccessToken:      access,
		TokenType:        "Bearer",
		ExpiresIn:        int64(m.policy.AccessTTL / time.Second),
		RefreshToken:     refresh,
		RefreshExpiresIn: int64(m.policy.RefreshTTL / time.Second),
		Scope:            g.Scope,
	}

	if wantsIDToken(g.Scope) {
		idt, err := m.idToken(ctx, g, now)
		if err != nil {
			return nil, err
		}
		resp.IDToken = idt
	}
	return resp, nil
}

func (m *minter) idToken(ctx context.Context, g grantSubject, now time.Time) (string, error) {
	var user *repository.User
	u, err := m.users.GetUser(ctx, g.UserID)
	switch {
	case err == nil:
		user = u
	case repository.IsNotFound(err):
		// Se proyecta desde el subject.
	default:
		return "", fmt.Errorf("get user: %w", err)
	}

	iss := g.Issuer
	if iss == "" {
		iss = m.issuer.Iss
	}
	c := m.claims.IDToken(g.UserID, user, claims.IDTokenInput{
		Issuer:   iss,
		Audience: g.ClientID,
		Nonce:    g.Nonce,
		AuthTime: g.AuthTime,
		IssuedAt: now,
		TTL:      m.policy.IDTokenTTL,
	})
	signed, err := m.issuer.Sign(jwtv5.MapClaims(c))
	if err != nil {
		return "", fmt.Errorf("sign id token: %w", err)
	}
	return signed, nil
}

// wantsIDToken: scope con openid, o scope vacío.
func wantsIDToken(scope string) bool {
	f := strings.Fields(scope)
	return len(f) == 0 || slices.Contains(f, "openid")
}
