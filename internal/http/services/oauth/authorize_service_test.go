package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
)

func authorizeRequest(mutate func(*dto.AuthorizeRequest)) dto.AuthorizeRequest {
	req := dto.AuthorizeRequest{
		ClientID:     testClient,
		RedirectURI:  testRedirect,
		ResponseType: "code",
		Scope:        "openid profile email",
		State:        "st",
		Nonce:        "n-1",
	}
	if mutate != nil {
		mutate(&req)
	}
	return req
}

func TestAuthorize_Success(t *testing.T) {
	f := newFixture(t, Policy{})

	loc, err := f.svc.Authorize.Authorize(context.Background(), authorizeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, loc, "/face-auth?")
	assert.NotEmpty(t, queryOf(t, loc).Get("request"))
}

func TestAuthorize_LocalErrors(t *testing.T) {
	f := newFixture(t, Policy{StrictRedirectErrors: true})
	ctx := context.Background()

	_, err := f.svc.Authorize.Authorize(ctx, authorizeRequest(func(r *dto.AuthorizeRequest) { r.ClientID = "nope" }))
	assert.ErrorIs(t, err, ErrInvalidClient)

	_, err = f.svc.Authorize.Authorize(ctx, authorizeRequest(func(r *dto.AuthorizeRequest) { r.RedirectURI = "" }))
	assert.ErrorIs(t, err, ErrInvalidRedirectURI)

	_, err = f.svc.Authorize.Authorize(ctx, authorizeRequest(func(r *dto.AuthorizeRequest) { r.RedirectURI = "https://evil.example/cb" }))
	assert.ErrorIs(t, err, ErrInvalidRedirectURI)
}

func TestAuthorize_RedirectedErrors(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*dto.AuthorizeRequest)
		code   string
	}{
		{"unregistered redirect", func(r *dto.AuthorizeRequest) { r.RedirectURI = "https://evil.example/cb" }, "invalid_redirect_uri"},
		{"token response type", func(r *dto.AuthorizeRequest) { r.ResponseType = "token" }, "unsupported_response_type"},
		{"plain pkce", func(r *dto.AuthorizeRequest) { r.CodeChallenge = "abc"; r.CodeChallengeMethod = "plain" }, "invalid_request"},
		{"unregistered scope", func(r *dto.AuthorizeRequest) { r.Scope = "openid admin" }, "invalid_scope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := f.svc.Authorize.Authorize(ctx, authorizeRequest(tc.mutate))
			require.NoError(t, err)
			q := queryOf(t, loc)
			assert.Equal(t, tc.code, q.Get("error"))
			assert.Equal(t, "st", q.Get("state"))
		})
	}
}

func TestAuthorize_ClientRestrictions(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	require.NoError(t, f.store.UpsertClient(ctx, repository.Client{
		ClientID:      "narrow",
		RedirectURIs:  []string{testRedirect},
		ResponseTypes: []string{"none"},
		Scopes:        []string{"openid"},
	}))
	require.NoError(t, f.store.UpsertClient(ctx, repository.Client{
		ClientID:     "open",
		RedirectURIs: []string{testRedirect},
	}))

	loc, err := f.svc.Authorize.Authorize(ctx, authorizeRequest(func(r *dto.AuthorizeRequest) { r.ClientID = "narrow"; r.Scope = "openid" }))
	require.NoError(t, err)
	assert.Equal(t, "unauthorized_client", queryOf(t, loc).Get("error"))

	// Sin scopes registrados no se restringe.
	loc, err = f.svc.Authorize.Authorize(ctx, authorizeRequest(func(r *dto.AuthorizeRequest) { r.ClientID = "open"; r.Scope = "openid custom" }))
	require.NoError(t, err)
	assert.Empty(t, queryOf(t, loc).Get("error"))
	assert.NotEmpty(t, queryOf(t, loc).Get("request"))
}
