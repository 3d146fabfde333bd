package repository

import (
	"context"
	"time"
)

// Token kinds.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// AuthCode es un código de autorización de un solo uso.
type AuthCode struct {
	CodeHash            string
	ClientID            string
	UserID              string
	RedirectURI         string
	Scope               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	AuthTime            time.Time
	ExpiresAt           time.Time
}

// Expired reporta si el código expiró respecto de now (now >= ExpiresAt).
func (c *AuthCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Token es un access o refresh token opaco.
type Token struct {
	TokenHash string
	Kind      string // "access" | "refresh"
	UserID    string
	ClientID  string
	Scope     string
	Nonce     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reporta si el token expiró respecto de now (now >= ExpiresAt).
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// GrantRepository persiste códigos y tokens indexados por hash.
//
// ConsumeCode y ConsumeToken son check-and-remove atómicos: ante llamadas
// concurrentes con el mismo hash, exactamente una obtiene el registro.
// La expiración la evalúan los services al leer; el store puede o no
// descartar entradas vencidas.
type GrantRepository interface {
	// SaveCode persiste un código. Retorna ErrConflict si el hash ya existe.
	SaveCode(ctx context.Context, c AuthCode) error

	// ConsumeCode obtiene y elimina un código en una sola operación.
	// Retorna ErrNotFound si no existe (o ya fue consumido).
	ConsumeCode(ctx context.Context, codeHash string) (*AuthCode, error)

	// SaveToken persiste un token.
	SaveToken(ctx context.Context, t Token) error

	// GetToken busca un token por hash sin consumirlo.
	// Retorna ErrNotFound si no existe.
	GetToken(ctx context.Context, tokenHash string) (*Token, error)

	// ConsumeToken obtiene y elimina un token solo si su kind coincide.
	// Retorna ErrNotFound si no existe o es de otro kind (y en ese caso no lo toca).
	ConsumeToken(ctx context.Context, tokenHash, kind string) (*Token, error)

	// DeleteToken elimina un token. Idempotente: no falla si no existe.
	DeleteToken(ctx context.Context, tokenHash string) error

	// PurgeSubject elimina todos los códigos y tokens de un usuario.
	PurgeSubject(ctx context.Context, userID string) (codes, tokens int, err error)
}

// Pinger lo implementan los stores con conexión remota (readiness).
type Pinger interface {
	Ping(ctx context.Context) error
}
