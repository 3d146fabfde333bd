package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
)

func TestCheck(t *testing.T) {
	keys, err := jwtx.Generate("kid-1")
	require.NoError(t, err)
	issuer := jwtx.NewIssuer("https://id.example", keys)
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		deps   Deps
		status string
	}{
		{"ready", Deps{Issuer: issuer, StoreCheck: ok, RedisCheck: ok}, StatusReady},
		{"redis down degrades", Deps{Issuer: issuer, StoreCheck: ok, RedisCheck: down}, StatusDegraded},
		{"store down", Deps{Issuer: issuer, StoreCheck: down}, StatusUnavailable},
		{"no issuer", Deps{StoreCheck: ok}, StatusUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewHealthService(tt.deps).Check(context.Background())
			assert.Equal(t, tt.status, resp.Status)
		})
	}

	resp := NewHealthService(Deps{Issuer: issuer, StoreCheck: ok}).Check(context.Background())
	assert.Equal(t, "kid-1", resp.ActiveKeyID)
	assert.NotContains(t, resp.Components, "redis")
}
