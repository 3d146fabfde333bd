package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

// execer lo implementan *pgxpool.Pool y pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) GetUser(ctx context.Context, id string) (*repository.User, error) {
	var (
		u                                                repository.User
		name, given, family, username, email, phone, pic *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, given_name, family_name, username, email, email_verified,
		       phone, phone_verified, picture, face_verified, created_at, updated_at
		FROM app_user WHERE id = $1::uuid`, id).Scan(
		&u.ID, &name, &given, &family, &username, &email, &u.EmailVerified,
		&phone, &u.PhoneVerified, &pic, &u.FaceVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		err = mapError(err)
		// Un id que no es UUID no puede existir.
		if errors.Is(err, repository.ErrInvalidInput) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Name, u.GivenName, u.FamilyName = deref(name), deref(given), deref(family)
	u.Username, u.Email, u.Phone, u.Picture = deref(username), deref(email), deref(phone), deref(pic)
	return &u, nil
}

// Enroll inserta usuario y primer template en una sola transacción.
func (r *userRepo) Enroll(ctx context.Context, u repository.User, t repository.Template) error {
	if u.ID == "" || t.ID == "" || t.UserID != u.ID || len(t.Vector) == 0 {
		return repository.ErrInvalidInput
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("pg: begin enroll: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO app_user (id, name, given_name, family_name, username, email, email_verified,
		                      phone, phone_verified, picture, face_verified, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		u.ID, nullIfEmpty(u.Name), nullIfEmpty(u.GivenName), nullIfEmpty(u.FamilyName), nullIfEmpty(u.Username),
		nullIfEmpty(u.Email), u.EmailVerified, nullIfEmpty(u.Phone), u.PhoneVerified, nullIfEmpty(u.Picture),
		u.FaceVerified, u.CreatedAt, u.UpdatedAt); err != nil {
		return mapError(err)
	}
	if err := insertTemplate(ctx, tx, t); err != nil {
		return err
	}
	return mapError(tx.Commit(ctx))
}

type templateRepo struct {
	pool *pgxpool.Pool
}

const templateSelect = `SELECT id::text, user_id::text, vector, enrolled_at FROM face_template`

func (r *templateRepo) ListTemplates(ctx context.Context) ([]repository.Template, error) {
	return r.query(ctx, templateSelect+` ORDER BY enrolled_at, id`)
}

func (r *templateRepo) ListByUser(ctx context.Context, userID string) ([]repository.Template, error) {
	list, err := r.query(ctx, templateSelect+` WHERE user_id = $1::uuid ORDER BY enrolled_at, id`, userID)
	if errors.Is(err, repository.ErrInvalidInput) {
		return nil, nil
	}
	return list, err
}

func (r *templateRepo) AddTemplate(ctx context.Context, t repository.Template) error {
	if t.ID == "" || len(t.Vector) == 0 {
		return repository.ErrInvalidInput
	}
	err := insertTemplate(ctx, r.pool, t)
	if errors.Is(err, repository.ErrInvalidInput) {
		return repository.ErrNotFound
	}
	return err
}

func (r *templateRepo) query(ctx context.Context, sql string, args ...any) ([]repository.Template, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []repository.Template
	for rows.Next() {
		var t repository.Template
		if err := rows.Scan(&t.ID, &t.UserID, &t.Vector, &t.EnrolledAt); err != nil {
			return nil, mapError(err)
		}
		out = append(out, t)
	}
	return out, mapError(rows.Err())
}

func insertTemplate(ctx context.Context, db execer, t repository.Template) error {
	_, err := db.Exec(ctx, `
		INSERT INTO face_template (id, user_id, vector, enrolled_at)
		VALUES ($1::uuid, $2::uuid, $3, $4)`,
		t.ID, t.UserID, t.Vector, t.EnrolledAt)
	return mapError(err)
}
