package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

type grantRepo struct {
	pool *pgxpool.Pool
}

const (
	codeColumns  = `code_hash, client_id, user_id, redirect_uri, scope, nonce, code_challenge, code_challenge_method, auth_time, expires_at`
	tokenColumns = `token_hash, kind, user_id, client_id, scope, nonce, issued_at, expires_at`
)

func (r *grantRepo) SaveCode(ctx context.Context, c repository.AuthCode) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO auth_code (`+codeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.CodeHash, c.ClientID, c.UserID, c.RedirectURI, c.Scope, c.Nonce,
		c.CodeChallenge, c.CodeChallengeMethod, c.AuthTime, c.ExpiresAt)
	return mapError(err)
}

// ConsumeCode usa DELETE ... RETURNING: una sola sentencia, un solo ganador.
func (r *grantRepo) ConsumeCode(ctx context.Context, codeHash string) (*repository.AuthCode, error) {
	var c repository.AuthCode
	err := r.pool.QueryRow(ctx, `DELETE FROM auth_code WHERE code_hash = $1 RETURNING `+codeColumns, codeHash).Scan(
		&c.CodeHash, &c.ClientID, &c.UserID, &c.RedirectURI, &c.Scope, &c.Nonce,
		&c.CodeChallenge, &c.CodeChallengeMethod, &c.AuthTime, &c.ExpiresAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *grantRepo) SaveToken(ctx context.Context, t repository.Token) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO oauth_token (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.TokenHash, t.Kind, t.UserID, t.ClientID, t.Scope, t.Nonce, t.IssuedAt, t.ExpiresAt)
	return mapError(err)
}

func scanToken(row pgx.Row) (*repository.Token, error) {
	var t repository.Token
	if err := row.Scan(&t.TokenHash, &t.Kind, &t.UserID, &t.ClientID, &t.Scope, &t.Nonce, &t.IssuedAt, &t.ExpiresAt); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (r *grantRepo) GetToken(ctx context.Context, tokenHash string) (*repository.Token, error) {
	return scanToken(r.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM oauth_token WHERE token_hash = $1`, tokenHash))
}

func (r *grantRepo) ConsumeToken(ctx context.Context, tokenHash, kind string) (*repository.Token, error) {
	return scanToken(r.pool.QueryRow(ctx,
		`DELETE FROM oauth_token WHERE token_hash = $1 AND kind = $2 RETURNING `+tokenColumns, tokenHash, kind))
}

func (r *grantRepo) DeleteToken(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM oauth_token WHERE token_hash = $1`, tokenHash)
	return mapError(err)
}

func (r *grantRepo) PurgeSubject(ctx context.Context, userID string) (int, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("pg: begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	codes, err := tx.Exec(ctx, `DELETE FROM auth_code WHERE user_id = $1`, userID)
	if err != nil {
		return 0, 0, mapError(err)
	}
	toks, err := tx.Exec(ctx, `DELETE FROM oauth_token WHERE user_id = $1`, userID)
	if err != nil {
		return 0, 0, mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, mapError(err)
	}
	return int(codes.RowsAffected()), int(toks.RowsAffected()), nil
}
