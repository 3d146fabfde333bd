// Package storetest runs the repository contract against any store adapter.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/store"
)

// Factory returns a fresh connection for each subtest and registers its own cleanup.
type Factory func(t *testing.T) store.AdapterConnection

// Run executes every contract test that the adapter supports.
// Repositories the connection returns as nil are skipped.
func Run(t *testing.T, newConn Factory) {
	t.Run("clients", func(t *testing.T) { withRepo(t, newConn, clientsContract) })
	t.Run("identities", func(t *testing.T) { withRepo(t, newConn, identitiesContract) })
	t.Run("grants", func(t *testing.T) { withRepo(t, newConn, grantsContract) })
}

func withRepo(t *testing.T, newConn Factory, fn func(*testing.T, store.AdapterConnection)) {
	fn(t, newConn(t))
}

func clientsContract(t *testing.T, conn store.AdapterConnection) {
	repo := conn.Clients()
	if repo == nil {
		t.Skip("adapter has no client repository")
	}
	ctx := context.Background()
	id := "client-" + uuid.NewString()[:8]
	c := repository.Client{
		ClientID:     id,
		SecretHash:   "hash",
		Name:         "demo",
		RedirectURIs: []string{"https://app.example/cb"},
		GrantTypes:   []string{"authorization_code"},
		Scopes:       []string{"openid"},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.CreateClient(ctx, c))
	require.ErrorIs(t, repo.CreateClient(ctx, c), repository.ErrConflict)

	got, err := repo.GetClient(ctx, id)
	require.NoError(t, err)
	require.Equal(t, c.RedirectURIs, got.RedirectURIs)
	require.Equal(t, "demo", got.Name)

	c.Name = "renamed"
	c.Static = true
	require.NoError(t, repo.UpsertClient(ctx, c))
	got, err = repo.GetClient(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Name)
	require.True(t, got.Static)

	_, err = repo.GetClient(ctx, "missing-"+id)
	require.True(t, repository.IsNotFound(err))

	list, err := repo.ListClients(ctx)
	require.NoError(t, err)
	found := false
	for _, lc := range list {
		if lc.ClientID == id {
			found = true
		}
	}
	require.True(t, found)
}

func identitiesContract(t *testing.T, conn store.AdapterConnection) {
	users, tpls, enroller := conn.Users(), conn.Templates(), conn.Enroller()
	if users == nil || tpls == nil || enroller == nil {
		t.Skip("adapter has no identity repositories")
	}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	before, err := tpls.ListTemplates(ctx)
	require.NoError(t, err)

	u := repository.User{ID: uuid.NewString(), GivenName: "Ada", Email: "ada@example.com", EmailVerified: true, FaceVerified: true, CreatedAt: now, UpdatedAt: now}
	t1 := repository.Template{ID: uuid.NewString(), UserID: u.ID, Vector: []float64{0.1, 0.2, 0.3}, EnrolledAt: now}
	require.NoError(t, enroller.Enroll(ctx, u, t1))

	got, err := users.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada", got.GivenName)
	require.True(t, got.FaceVerified)

	// Re-enrolling the same user id must fail and leave no extra template.
	dup := repository.Template{ID: uuid.NewString(), UserID: u.ID, Vector: []float64{1, 1, 1}, EnrolledAt: now}
	require.Error(t, enroller.Enroll(ctx, u, dup))

	t2 := repository.Template{ID: uuid.NewString(), UserID: u.ID, Vector: []float64{0.4, 0.5, 0.6}, EnrolledAt: now.Add(time.Second)}
	require.NoError(t, tpls.AddTemplate(ctx, t2))
	require.True(t, repository.IsNotFound(tpls.AddTemplate(ctx, repository.Template{ID: uuid.NewString(), UserID: uuid.NewString(), Vector: []float64{1}, EnrolledAt: now})))

	mine, err := tpls.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, t1.ID, mine[0].ID)
	require.Equal(t, t1.Vector, mine[0].Vector)

	after, err := tpls.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+2)

	_, err = users.GetUser(ctx, uuid.NewString())
	require.True(t, repository.IsNotFound(err))
}

func grantsContract(t *testing.T, conn store.AdapterConnection) {
	repo := conn.Grants()
	if repo == nil {
		t.Skip("adapter has no grant repository")
	}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.NewString()

	t.Run("code single use", func(t *testing.T) {
		c := repository.AuthCode{
			CodeHash: uuid.NewString(), ClientID: "c1", UserID: userID,
			RedirectURI: "https://app.example/cb", Scope: "openid", Nonce: "n",
			CodeChallenge: "ch", CodeChallengeMethod: "S256",
			AuthTime: now, ExpiresAt: now.Add(10 * time.Minute),
		}
		require.NoError(t, repo.SaveCode(ctx, c))

		got, err := repo.ConsumeCode(ctx, c.CodeHash)
		require.NoError(t, err)
		require.Equal(t, c.ClientID, got.ClientID)
		require.Equal(t, c.RedirectURI, got.RedirectURI)
		require.Equal(t, c.CodeChallenge, got.CodeChallenge)
		require.True(t, c.ExpiresAt.Equal(got.ExpiresAt))

		_, err = repo.ConsumeCode(ctx, c.CodeHash)
		require.True(t, repository.IsNotFound(err))
	})

	t.Run("code concurrent consume", func(t *testing.T) {
		c := repository.AuthCode{CodeHash: uuid.NewString(), ClientID: "c1", UserID: userID, RedirectURI: "https://a/cb", AuthTime: now, ExpiresAt: now.Add(time.Minute)}
		require.NoError(t, repo.SaveCode(ctx, c))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.ConsumeCode(ctx, c.CodeHash); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		require.EqualValues(t, 1, wins.Load())
	})

	t.Run("token kinds", func(t *testing.T) {
		access := repository.Token{TokenHash: uuid.NewString(), Kind: repository.TokenKindAccess, UserID: userID, ClientID: "c1", Scope: "openid", IssuedAt: now, ExpiresAt: now.Add(15 * time.Minute)}
		refresh := repository.Token{TokenHash: uuid.NewString(), Kind: repository.TokenKindRefresh, UserID: userID, ClientID: "c1", Scope: "openid", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
		require.NoError(t, repo.SaveToken(ctx, access))
		require.NoError(t, repo.SaveToken(ctx, refresh))

		got, err := repo.GetToken(ctx, access.TokenHash)
		require.NoError(t, err)
		require.Equal(t, repository.TokenKindAccess, got.Kind)

		// Wrong kind leaves the token in place.
		_, err = repo.ConsumeToken(ctx, access.TokenHash, repository.TokenKindRefresh)
		require.True(t, repository.IsNotFound(err))
		_, err = repo.GetToken(ctx, access.TokenHash)
		require.NoError(t, err)

		got, err = repo.ConsumeToken(ctx, refresh.TokenHash, repository.TokenKindRefresh)
		require.NoError(t, err)
		require.Equal(t, userID, got.UserID)
		_, err = repo.ConsumeToken(ctx, refresh.TokenHash, repository.TokenKindRefresh)
		require.True(t, repository.IsNotFound(err))

		require.NoError(t, repo.DeleteToken(ctx, access.TokenHash))
		require.NoError(t, repo.DeleteToken(ctx, access.TokenHash))
		_, err = repo.GetToken(ctx, access.TokenHash)
		require.True(t, repository.IsNotFound(err))
	})

	t.Run("purge subject", func(t *testing.T) {
		sub := uuid.NewString()
		other := uuid.NewString()
		require.NoError(t, repo.SaveCode(ctx, repository.AuthCode{CodeHash: uuid.NewString(), ClientID: "c1", UserID: sub, RedirectURI: "https://a/cb", AuthTime: now, ExpiresAt: now.Add(time.Minute)}))
		require.NoError(t, repo.SaveToken(ctx, repository.Token{TokenHash: uuid.NewString(), Kind: repository.TokenKindAccess, UserID: sub, ClientID: "c1", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}))
		require.NoError(t, repo.SaveToken(ctx, repository.Token{TokenHash: uuid.NewString(), Kind: repository.TokenKindRefresh, UserID: sub, ClientID: "c1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))
		keep := repository.Token{TokenHash: uuid.NewString(), Kind: repository.TokenKindAccess, UserID: other, ClientID: "c1", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}
		require.NoError(t, repo.SaveToken(ctx, keep))

		codes, toks, err := repo.PurgeSubject(ctx, sub)
		require.NoError(t, err)
		require.Equal(t, 1, codes)
		require.Equal(t, 2, toks)

		_, err = repo.GetToken(ctx, keep.TokenHash)
		require.NoError(t, err)
	})
}
