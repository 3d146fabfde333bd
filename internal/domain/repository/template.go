package repository

import (
	"context"
	"time"
)

// Template es un vector de características facial enrolado para un usuario.
// Los templates son inmutables una vez creados.
type Template struct {
	ID         string
	UserID     string
	Vector     []float64
	EnrolledAt time.Time
}

// TemplateRepository define operaciones sobre templates biométricos.
type TemplateRepository interface {
	// ListTemplates enumera todos los templates en orden de enrolamiento
	// (enrolled_at, id). El orden es estable entre llamadas.
	ListTemplates(ctx context.Context) ([]Template, error)

	// ListByUser lista los templates de un usuario.
	ListByUser(ctx context.Context, userID string) ([]Template, error)

	// AddTemplate agrega un template a un usuario existente.
	// Retorna ErrNotFound si el usuario no existe.
	AddTemplate(ctx context.Context, t Template) error
}
