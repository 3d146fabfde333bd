package memory

import (
	"context"
	"testing"

	"github.com/dropDatabas3/facegate/internal/store"
	"github.com/dropDatabas3/facegate/internal/store/storetest"
)

func TestMemoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.AdapterConnection {
		conn, err := store.OpenAdapter(context.Background(), store.AdapterConfig{Name: "memory"})
		if err != nil {
			t.Fatalf("open memory adapter: %v", err)
		}
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	})
}
