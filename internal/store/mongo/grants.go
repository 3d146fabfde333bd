package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

type codeDoc struct {
	CodeHash            string    `bson:"_id"`
	ClientID            string    `bson:"client_id"`
	UserID              string    `bson:"user_id"`
	RedirectURI         string    `bson:"redirect_uri"`
	Scope               string    `bson:"scope"`
	Nonce               string    `bson:"nonce"`
	CodeChallenge       string    `bson:"code_challenge"`
	CodeChallengeMethod string    `bson:"code_challenge_method"`
	AuthTime            time.Time `bson:"auth_time"`
	ExpiresAt           time.Time `bson:"expires_at"`
}

type tokenDoc struct {
	TokenHash string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	UserID    string    `bson:"user_id"`
	ClientID  string    `bson:"client_id"`
	Scope     string    `bson:"scope"`
	Nonce     string    `bson:"nonce"`
	IssuedAt  time.Time `bson:"issued_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type grantRepo struct {
	codes  *mongo.Collection
	tokens *mongo.Collection
}

func (r *grantRepo) SaveCode(ctx context.Context, c repository.AuthCode) error {
	_, err := r.codes.InsertOne(ctx, codeDoc(c))
	return mapError(err)
}

// ConsumeCode usa FindOneAndDelete: el servidor garantiza un solo ganador.
func (r *grantRepo) ConsumeCode(ctx context.Context, codeHash string) (*repository.AuthCode, error) {
	var d codeDoc
	if err := r.codes.FindOneAndDelete(ctx, bson.M{"_id": codeHash}).Decode(&d); err != nil {
		return nil, mapError(err)
	}
	c := repository.AuthCode(d)
	return &c, nil
}

func (r *grantRepo) SaveToken(ctx context.Context, t repository.Token) error {
	_, err := r.tokens.InsertOne(ctx, tokenDoc(t))
	return mapError(err)
}

func (r *grantRepo) GetToken(ctx context.Context, tokenHash string) (*repository.Token, error) {
	var d tokenDoc
	if err := r.tokens.FindOne(ctx, bson.M{"_id": tokenHash}).Decode(&d); err != nil {
		return nil, mapError(err)
	}
	t := repository.Token(d)
	return &t, nil
}

func (r *grantRepo) ConsumeToken(ctx context.Context, tokenHash, kind string) (*repository.Token, error) {
	var d tokenDoc
	if err := r.tokens.FindOneAndDelete(ctx, bson.M{"_id": tokenHash, "kind": kind}).Decode(&d); err != nil {
		return nil, mapError(err)
	}
	t := repository.Token(d)
	return &t, nil
}

func (r *grantRepo) DeleteToken(ctx context.Context, tokenHash string) error {
	_, err := r.tokens.DeleteOne(ctx, bson.M{"_id": tokenHash})
	return mapError(err)
}

func (r *grantRepo) PurgeSubject(ctx context.Context, userID string) (int, int, error) {
	codes, err := r.codes.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, 0, mapError(err)
	}
	toks, err := r.tokens.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return int(codes.DeletedCount), 0, mapError(err)
	}
	return int(codes.DeletedCount), int(toks.DeletedCount), nil
}
