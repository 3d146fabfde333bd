package pg

import (
	"context"
	"os"
	"testing"

	"github.com/dropDatabas3/facegate/internal/store"
	"github.com/dropDatabas3/facegate/internal/store/storetest"
	migrations "github.com/dropDatabas3/facegate/migrations/postgres"
)

// Requiere FACEGATE_TEST_PG_DSN apuntando a una base descartable.
func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("FACEGATE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("FACEGATE_TEST_PG_DSN not set")
	}
	ctx := context.Background()

	pool, err := NewPool(ctx, dsn, 4, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if _, err := NewMigrator(migrations.FS, migrations.Dir).Up(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	storetest.Run(t, func(t *testing.T) store.AdapterConnection {
		conn, err := store.OpenAdapter(ctx, store.AdapterConfig{Name: "postgres", DSN: dsn, MaxConns: 4})
		if err != nil {
			t.Fatalf("open adapter: %v", err)
		}
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	})
}
