package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/dropDatabas3/facegate/internal/store"
	"github.com/dropDatabas3/facegate/internal/store/storetest"
)

// Requiere FACEGATE_TEST_MONGO_URI; cada subtest usa una base nueva que se borra al final.
func TestMongoContract(t *testing.T) {
	uri := os.Getenv("FACEGATE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FACEGATE_TEST_MONGO_URI not set")
	}
	storetest.Run(t, func(t *testing.T) store.AdapterConnection {
		ctx := context.Background()
		conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
			Name:     "mongo",
			DSN:      uri,
			Database: "facegate_test_" + uuid.NewString()[:8],
		})
		if err != nil {
			t.Fatalf("open adapter: %v", err)
		}
		db := conn.(*Connection).Database()
		t.Cleanup(func() {
			_ = db.Drop(context.Background())
			_ = conn.Close()
		})
		return conn
	})
}
