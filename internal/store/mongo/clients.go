package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

type clientDoc struct {
	ClientID      string    `bson:"_id"`
	SecretHash    string    `bson:"secret_hash"`
	Name          string    `bson:"name"`
	RedirectURIs  []string  `bson:"redirect_uris"`
	GrantTypes    []string  `bson:"grant_types"`
	ResponseTypes []string  `bson:"response_types"`
	Scopes        []string  `bson:"scopes"`
	Static        bool      `bson:"static"`
	CreatedAt     time.Time `bson:"created_at"`
}

func toClientDoc(c repository.Client) clientDoc {
	return clientDoc(c)
}

func (d clientDoc) toDomain() repository.Client {
	return repository.Client(d)
}

type clientRepo struct {
	col *mongo.Collection
}

func (r *clientRepo) GetClient(ctx context.Context, clientID string) (*repository.Client, error) {
	var d clientDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": clientID}).Decode(&d); err != nil {
		return nil, mapError(err)
	}
	c := d.toDomain()
	return &c, nil
}

func (r *clientRepo) CreateClient(ctx context.Context, c repository.Client) error {
	_, err := r.col.InsertOne(ctx, toClientDoc(c))
	return mapError(err)
}

func (r *clientRepo) UpsertClient(ctx context.Context, c repository.Client) error {
	d := toClientDoc(c)
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": d.ClientID},
		bson.M{
			"$set": bson.M{
				"secret_hash":    d.SecretHash,
				"name":           d.Name,
				"redirect_uris":  d.RedirectURIs,
				"grant_types":    d.GrantTypes,
				"response_types": d.ResponseTypes,
				"scopes":         d.Scopes,
				"static":         d.Static,
			},
			"$setOnInsert": bson.M{"created_at": d.CreatedAt},
		},
		options.Update().SetUpsert(true))
	return mapError(err)
}

func (r *clientRepo) ListClients(ctx context.Context) ([]repository.Client, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	var docs []clientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}
	out := make([]repository.Client, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
