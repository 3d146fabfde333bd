package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

type userDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name,omitempty"`
	GivenName     string    `bson:"given_name,omitempty"`
	FamilyName    string    `bson:"family_name,omitempty"`
	Username      string    `bson:"username,omitempty"`
	Email         string    `bson:"email,omitempty"`
	EmailVerified bool      `bson:"email_verified"`
	Phone         string    `bson:"phone,omitempty"`
	PhoneVerified bool      `bson:"phone_verified"`
	Picture       string    `bson:"picture,omitempty"`
	FaceVerified  bool      `bson:"face_verified"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

type templateDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	Vector     []float64 `bson:"vector"`
	EnrolledAt time.Time `bson:"enrolled_at"`
}

type identityRepo struct {
	users     *mongo.Collection
	templates *mongo.Collection
}

func (r *identityRepo) GetUser(ctx context.Context, id string) (*repository.User, error) {
	var d userDoc
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, mapError(err)
	}
	u := repository.User(d)
	return &u, nil
}

// Enroll inserta el usuario y luego el template. Si el template falla se
// compensa borrando el usuario, así ninguna de las dos escrituras queda sola.
func (r *identityRepo) Enroll(ctx context.Context, u repository.User, t repository.Template) error {
	if u.ID == "" || t.ID == "" || t.UserID != u.ID || len(t.Vector) == 0 {
		return repository.ErrInvalidInput
	}
	if _, err := r.users.InsertOne(ctx, userDoc(u)); err != nil {
		return mapError(err)
	}
	if _, err := r.templates.InsertOne(ctx, templateDoc(t)); err != nil {
		if _, derr := r.users.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": u.ID}); derr != nil {
			return fmt.Errorf("mongo: enroll template: %w (compensation failed: %v)", mapError(err), derr)
		}
		return mapError(err)
	}
	return nil
}

func (r *identityRepo) ListTemplates(ctx context.Context) ([]repository.Template, error) {
	return r.find(ctx, bson.M{})
}

func (r *identityRepo) ListByUser(ctx context.Context, userID string) ([]repository.Template, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *identityRepo) AddTemplate(ctx context.Context, t repository.Template) error {
	if t.ID == "" || len(t.Vector) == 0 {
		return repository.ErrInvalidInput
	}
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": t.UserID}, options.Count().SetLimit(1))
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	_, err = r.templates.InsertOne(ctx, templateDoc(t))
	return mapError(err)
}

func (r *identityRepo) find(ctx context.Context, filter bson.M) ([]repository.Template, error) {
	cur, err := r.templates.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	var docs []templateDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}
	out := make([]repository.Template, 0, len(docs))
	for _, d := range docs {
		out = append(out, repository.Template(d))
	}
	return out, nil
}
