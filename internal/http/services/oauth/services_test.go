package oauth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/continuation"
	"github.com/dropDatabas3/facegate/internal/domain/repository"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/oauth"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
	"github.com/dropDatabas3/facegate/internal/store/memory"
)

const (
	testIssuer   = "https://id.example"
	testClient   = "app"
	testSecret   = "app-secret"
	testRedirect = "https://app.example/cb"
	testUser     = "user-1"
)

type fixture struct {
	svc    *Services
	store  *memory.Store
	issuer *jwtx.Issuer
	now    time.Time
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	ctx := context.Background()

	st := memory.New()
	reg := clients.NewRegistry(st)
	require.NoError(t, reg.SeedStatic(ctx, []clients.StaticClient{{
		ClientID:     testClient,
		ClientSecret: testSecret,
		RedirectURIs: []string{testRedirect},
	}}))

	keys, err := jwtx.Generate("k1")
	require.NoError(t, err)
	codec, err := continuation.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	// Reloj real truncado: los JWT emitidos se validan contra time.Now.
	f := &fixture{store: st, issuer: jwtx.NewIssuer(testIssuer, keys), now: time.Now().UTC().Truncate(time.Second)}
	f.svc = NewServices(Deps{
		Clients: reg,
		Codec:   codec,
		Grants:  st,
		Users:   st,
		Issuer:  f.issuer,
		Policy:  policy,
		Now:     func() time.Time { return f.now },
	})
	return f
}

// seedCode guarda un código para testUser y devuelve su valor en claro.
func (f *fixture) seedCode(t *testing.T, raw string, mutate func(*repository.AuthCode)) string {
	t.Helper()
	c := repository.AuthCode{
		CodeHash:    tokens.SHA256Base64URL(raw),
		ClientID:    testClient,
		UserID:      testUser,
		RedirectURI: testRedirect,
		Scope:       "openid profile",
		Nonce:       "n-1",
		AuthTime:    f.now,
		ExpiresAt:   f.now.Add(DefaultCodeTTL),
	}
	if mutate != nil {
		mutate(&c)
	}
	require.NoError(t, f.store.SaveCode(context.Background(), c))
	return raw
}

func (f *fixture) exchange(code, redirectURI, verifier string) (*dto.TokenResponse, error) {
	return f.svc.Token.Token(context.Background(),
		helpers.ClientCredentials{ClientID: testClient, ClientSecret: testSecret},
		dto.TokenRequest{
			GrantType:    GrantAuthorizationCode,
			Code:         code,
			RedirectURI:  redirectURI,
			CodeVerifier: verifier,
			Issuer:       testIssuer,
		})
}

func (f *fixture) refresh(refreshToken string) (*dto.TokenResponse, error) {
	return f.svc.Token.Token(context.Background(),
		helpers.ClientCredentials{ClientID: testClient, ClientSecret: testSecret},
		dto.TokenRequest{GrantType: GrantRefreshToken, RefreshToken: refreshToken, Issuer: testIssuer})
}

// tokenStored reporta si el token en claro sigue persistido.
func (f *fixture) tokenStored(t *testing.T, raw string) bool {
	t.Helper()
	_, err := f.store.GetToken(context.Background(), tokens.SHA256Base64URL(raw))
	if repository.IsNotFound(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

func queryOf(t *testing.T, location string) url.Values {
	t.Helper()
	u, err := url.Parse(location)
	require.NoError(t, err)
	return u.Query()
}
