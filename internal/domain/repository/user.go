package repository

import (
	"context"
	"time"
)

// User representa una identidad creada por enrolamiento facial.
// Los campos opcionales vacíos se proyectan como null en los claims.
type User struct {
	ID            string
	Name          string
	GivenName     string
	FamilyName    string
	Username      string
	Email         string
	EmailVerified bool
	Phone         string
	PhoneVerified bool
	Picture       string
	FaceVerified  bool // true sii hay al menos un template enrolado
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserRepository define operaciones de lectura sobre identidades.
type UserRepository interface {
	// GetUser busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	GetUser(ctx context.Context, id string) (*User, error)
}

// Enroller crea un usuario y su primer template como una sola unidad.
// Si alguna de las dos escrituras falla, ninguna queda visible.
type Enroller interface {
	Enroll(ctx context.Context, u User, t Template) error
}
