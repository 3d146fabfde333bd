// Package pg implementa el adapter PostgreSQL para store.
// Usa pgxpool directamente.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// nullIfEmpty returns nil if the string is empty, otherwise returns the string pointer.
// Useful for inserting optional string fields into PostgreSQL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	pool, err := NewPool(ctx, cfg.DSN, cfg.MaxConns, cfg.MinConns)
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}

// NewPool crea y verifica un pgxpool.
func NewPool(ctx context.Context, dsn string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	// Configurar pool
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	} else {
		poolCfg.MaxConns = 10
	}
	if minConns > 0 {
		poolCfg.MinConns = minConns
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	// Verificar conexión
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return pool, nil
}

// Connection representa una conexión activa a PostgreSQL.
type Connection struct {
	pool *pgxpool.Pool
}

// New envuelve un pool existente.
func New(pool *pgxpool.Pool) *Connection {
	return &Connection{pool: pool}
}

func (c *Connection) Name() string { return "postgres" }
func (c *Connection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }
func (c *Connection) Close() error { c.pool.Close(); return nil }

// Pool expone el pool (migraciones).
func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

func (c *Connection) Clients() repository.ClientRepository { return &clientRepo{pool: c.pool} }
func (c *Connection) Users() repository.UserRepository { return &userRepo{pool: c.pool} }
func (c *Connection) Templates() repository.TemplateRepository { return &templateRepo{pool: c.pool} }
func (c *Connection) Enroller() repository.Enroller { return &userRepo{pool: c.pool} }
func (c *Connection) Grants() repository.GrantRepository { return &grantRepo{pool: c.pool} }

// mapError traduce errores de pgx a errores de dominio.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		case "22P02", "23502": // invalid_text_representation, not_null_violation
			return fmt.Errorf("%w: %s", repository.ErrInvalidInput, pgErr.Message)
		}
	}
	return err
}
