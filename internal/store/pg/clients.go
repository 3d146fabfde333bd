package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

type clientRepo struct {
	pool *pgxpool.Pool
}

const clientColumns = `client_id, secret_hash, name, redirect_uris, grant_types, response_types, scopes, is_static, created_at`

func scanClient(row pgx.Row) (*repository.Client, error) {
	var c repository.Client
	if err := row.Scan(&c.ClientID, &c.SecretHash, &c.Name, &c.RedirectURIs, &c.GrantTypes,
		&c.ResponseTypes, &c.Scopes, &c.Static, &c.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *clientRepo) GetClient(ctx context.Context, clientID string) (*repository.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM oauth_client WHERE client_id = $1`, clientID)
	return scanClient(row)
}

func (r *clientRepo) CreateClient(ctx context.Context, c repository.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_client (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ClientID, c.SecretHash, c.Name, c.RedirectURIs, c.GrantTypes, c.ResponseTypes, c.Scopes, c.Static, c.CreatedAt)
	return mapError(err)
}

func (r *clientRepo) UpsertClient(ctx context.Context, c repository.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_client (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (client_id) DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			name = EXCLUDED.name,
			redirect_uris = EXCLUDED.redirect_uris,
			grant_types = EXCLUDED.grant_types,
			response_types = EXCLUDED.response_types,
			scopes = EXCLUDED.scopes,
			is_static = EXCLUDED.is_static`,
		c.ClientID, c.SecretHash, c.Name, c.RedirectURIs, c.GrantTypes, c.ResponseTypes, c.Scopes, c.Static, c.CreatedAt)
	return mapError(err)
}

func (r *clientRepo) ListClients(ctx context.Context) ([]repository.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM oauth_client ORDER BY created_at, client_id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []repository.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, mapError(rows.Err())
}
