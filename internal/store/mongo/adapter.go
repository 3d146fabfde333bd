// Package mongo implementa el adapter MongoDB para store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/store"
)

func init() {
	store.RegisterAdapter(&mongoAdapter{})
}

const (
	colClients   = "oauth_clients"
	colUsers     = "users"
	colTemplates = "face_templates"
	colCodes     = "auth_codes"
	colTokens    = "oauth_tokens"
)

type mongoAdapter struct{}

func (a *mongoAdapter) Name() string { return "mongo" }

func (a *mongoAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.DSN)
	if cfg.MaxConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxConns))
	}
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping failed: %w", err)
	}
	dbName := cfg.Database
	if dbName == "" {
		dbName = "facegate"
	}
	conn := &Connection{client: client, db: client.Database(dbName)}
	if err := conn.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: indexes: %w", err)
	}
	return conn, nil
}

// Connection representa una conexión activa a MongoDB.
type Connection struct {
	client *mongo.Client
	db     *mongo.Database
}

func (c *Connection) Name() string { return "mongo" }

func (c *Connection) Ping(ctx context.Context) error { return c.client.Ping(ctx, nil) }

func (c *Connection) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// Database expone la base (tests).
func (c *Connection) Database() *mongo.Database { return c.db }

func (c *Connection) Clients() repository.ClientRepository {
	return &clientRepo{col: c.db.Collection(colClients)}
}

func (c *Connection) Users() repository.UserRepository { return c.identities() }

func (c *Connection) Templates() repository.TemplateRepository { return c.identities() }

func (c *Connection) Enroller() repository.Enroller { return c.identities() }

func (c *Connection) Grants() repository.GrantRepository {
	return &grantRepo{codes: c.db.Collection(colCodes), tokens: c.db.Collection(colTokens)}
}

func (c *Connection) identities() *identityRepo {
	return &identityRepo{users: c.db.Collection(colUsers), templates: c.db.Collection(colTemplates)}
}

func (c *Connection) ensureIndexes(ctx context.Context) error {
	idx := map[string][]mongo.IndexModel{
		colClients: {
			{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colTemplates: {
			{Keys: bson.D{{Key: "enrolled_at", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		colCodes: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			// Limpieza oportunista; la expiración la evalúan los services.
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(3600)},
		},
		colTokens: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(3600)},
		},
	}
	for col, models := range idx {
		if _, err := c.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
	}
	return nil
}

// mapError traduce errores del driver a errores de dominio.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	}
	return err
}
