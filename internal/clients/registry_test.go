package clients

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/store/memory"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRegistry(memory.New())

	reg, err := r.Register(ctx, Metadata{ClientName: "demo", RedirectURIs: []string{"https://app.example/cb"}})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(reg.Client.ClientID, "client-"))
	require.Len(t, reg.Client.ClientID, len("client-")+16)
	require.Len(t, reg.ClientSecret, 64)
	require.NotEqual(t, reg.ClientSecret, reg.Client.SecretHash)
	require.Equal(t, DefaultGrantTypes, reg.Client.GrantTypes)
	require.Equal(t, DefaultResponseTypes, reg.Client.ResponseTypes)
	require.Equal(t, DefaultScopes, reg.Client.Scopes)

	c, err := r.Authenticate(ctx, reg.Client.ClientID, reg.ClientSecret)
	require.NoError(t, err)
	require.True(t, r.ValidateRedirect(c, "https://app.example/cb"))
	require.False(t, r.ValidateRedirect(c, "https://app.example/cb/"))

	_, err = r.Authenticate(ctx, reg.Client.ClientID, "wrong")
	require.ErrorIs(t, err, ErrInvalidSecret)

	_, err = r.Authenticate(ctx, "client-unknown", reg.ClientSecret)
	require.ErrorIs(t, err, ErrUnknownClient)
}

func TestRegisterRejectsBadMetadata(t *testing.T) {
	t.Parallel()
	r := NewRegistry(memory.New())
	cases := []Metadata{
		{},
		{RedirectURIs: []string{}},
		{RedirectURIs: []string{"/relative"}},
		{RedirectURIs: []string{"https://a.example/cb#frag"}},
		{RedirectURIs: []string{"https://a.example/cb"}, GrantTypes: []string{"password"}},
		{RedirectURIs: []string{"https://a.example/cb"}, ResponseTypes: []string{"token"}},
	}
	for i, md := range cases {
		if _, err := r.Register(context.Background(), md); !errors.Is(err, ErrInvalidMetadata) {
			t.Fatalf("case %d: expected ErrInvalidMetadata, got %v", i, err)
		}
	}
}

func TestSeedStaticAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRegistry(memory.New())

	err := r.SeedStatic(ctx, []StaticClient{{
		ClientID: "demo-app", ClientSecret: "demo-secret", Name: "Demo",
		RedirectURIs: []string{"http://localhost:3000/callback"},
	}})
	require.NoError(t, err)

	c, err := r.Authenticate(ctx, "demo-app", "demo-secret")
	require.NoError(t, err)
	require.True(t, c.Static)

	// Seeding again rotates the secret.
	require.NoError(t, r.SeedStatic(ctx, []StaticClient{{
		ClientID: "demo-app", ClientSecret: "rotated", RedirectURIs: []string{"http://localhost:3000/callback"},
	}}))
	_, err = r.Authenticate(ctx, "demo-app", "demo-secret")
	require.ErrorIs(t, err, ErrInvalidSecret)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.Error(t, r.SeedStatic(ctx, []StaticClient{{ClientID: "x"}}))
}
