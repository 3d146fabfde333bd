package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/config"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
)

const (
	testClientID     = "demo-app"
	testClientSecret = "s3cret-value"
	testRedirectURI  = "https://app.example/callback"
)

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	c      *Container
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Biometric.Dimension = 3
	cfg.Metrics.Enabled = false
	cfg.Rate.Enabled = false
	cfg.Audit.Sink = "nop"
	cfg.Clients = []config.StaticClient{{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Name:         "Demo",
		RedirectURIs: []string{testRedirectURI},
	}}

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(c.Handler)
	t.Cleanup(func() {
		srv.Close()
		_ = c.Close()
	})
	return &harness{
		t:   t,
		srv: srv,
		c:   c,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
	}
}

func (h *harness) do(req *http.Request) *http.Response {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) postForm(path string, form url.Values, basic bool) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basic {
		req.SetBasicAuth(testClientID, testClientSecret)
	}
	return h.do(req)
}

// authorize devuelve la continuation emitida por /oauth/authorize.
func (h *harness) authorize(state string) string {
	h.t.Helper()
	q := url.Values{
		"client_id":     {testClientID},
		"redirect_uri":  {testRedirectURI},
		"response_type": {"code"},
		"scope":         {"openid profile"},
		"state":         {state},
		"nonce":         {"nonce-" + state},
	}
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/oauth/authorize?"+q.Encode(), nil)
	require.NoError(h.t, err)
	resp := h.do(req)
	require.Equal(h.t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(h.t, err)
	assert.Equal(h.t, "/face-auth", loc.Path)
	cont := loc.Query().Get("request")
	require.NotEmpty(h.t, cont)
	return cont
}

func (h *harness) verify(cont, descriptorJSON, action string) *http.Response {
	h.t.Helper()
	body := `{"request":"` + cont + `","descriptor":` + descriptorJSON + `,"action":"` + action + `"}`
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/face-auth/verify", strings.NewReader(body))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

// code ejecuta authorize + verify y devuelve el código emitido.
func (h *harness) code(descriptorJSON, action string) string {
	h.t.Helper()
	resp := h.verify(h.authorize("st"), descriptorJSON, action)
	require.Equal(h.t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(h.t, err)
	require.Empty(h.t, loc.Query().Get("error"), loc.String())
	assert.Equal(h.t, "st", loc.Query().Get("state"))
	return loc.Query().Get("code")
}

func (h *harness) exchange(code string) *http.Response {
	h.t.Helper()
	return h.postForm("/oauth/token", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {testRedirectURI},
	}, true)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type tokenBody struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	Error        string `json:"error"`
}

func TestEnrollThenAuthenticate(t *testing.T) {
	h := newHarness(t)

	resp := h.exchange(h.code("[0.1,0.2,0.3]", "enroll"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[tokenBody](t, resp)
	require.NotEmpty(t, first.IDToken)
	claims, err := jwtx.ParseEdDSA(first.IDToken, h.c.Issuer, "")
	require.NoError(t, err)
	subA := claims["sub"].(string)

	// distancia 0.3 < 0.6: la misma identidad
	resp = h.exchange(h.code("[0.4,0.2,0.3]", "authenticate"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tb := decode[tokenBody](t, resp)
	assert.Equal(t, "Bearer", tb.TokenType)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	claims, err = jwtx.ParseEdDSA(tb.IDToken, h.c.Issuer, h.srv.URL)
	require.NoError(t, err)
	assert.Equal(t, subA, claims["sub"])
	assert.Equal(t, true, claims["face_verified"])
	assert.Equal(t, "nonce-st", claims["nonce"])
	assert.Equal(t, testClientID, claims["aud"])

	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/oauth/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+tb.AccessToken)
	resp = h.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[map[string]any](t, resp)
	assert.Equal(t, subA, info["sub"])
}

func TestVerifyWithoutTemplatesRequiresEnrollment(t *testing.T) {
	h := newHarness(t)
	cont := h.authorize("x")

	resp := h.verify(cont, "[0.1,0.2,0.3]", "authenticate")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "enrollment_required", body["outcome"])
	assert.Contains(t, body["register_url"], "/face-auth/register?request=")

	resp = h.verify(cont, "[]", "authenticate")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = h.verify(cont, "[0.1,0.2,0.3]", "bogus")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decode[map[string]any](t, resp)["error"])

	resp = h.verify("tampered", "[0.1,0.2,0.3]", "authenticate")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "malformed_request", decode[map[string]any](t, resp)["error"])
}

func TestTokenEndpointErrors(t *testing.T) {
	h := newHarness(t)
	code := h.code("[0.5,0.5,0.5]", "enroll")

	req, _ := http.NewRequest(http.MethodPost, h.srv.URL+"/oauth/token", strings.NewReader(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {testRedirectURI},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(testClientID, "wrong")
	resp := h.do(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, "invalid_client", decode[tokenBody](t, resp).Error)

	resp = h.postForm("/oauth/token", url.Values{"grant_type": {"password"}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported_grant_type", decode[tokenBody](t, resp).Error)

	require.Equal(t, http.StatusOK, h.exchange(code).StatusCode)
	resp = h.exchange(code)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", decode[tokenBody](t, resp).Error)
}

func TestConcurrentCodeExchange(t *testing.T) {
	h := newHarness(t)
	code := h.code("[0.9,0.1,0.1]", "enroll")

	const workers = 8
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, h.srv.URL+"/oauth/token", strings.NewReader(url.Values{
				"grant_type":   {"authorization_code"},
				"code":         {code},
				"redirect_uri": {testRedirectURI},
			}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.SetBasicAuth(testClientID, testClientSecret)
			resp, err := h.client.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
}

func TestRefreshRevokeAndIntrospect(t *testing.T) {
	h := newHarness(t)
	resp := h.exchange(h.code("[0.3,0.3,0.3]", "enroll"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tb := decode[tokenBody](t, resp)

	resp = h.postForm("/oauth/token", url.Values{"grant_type": {"refresh_token"}, "refresh_token": {tb.RefreshToken}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := decode[tokenBody](t, resp)
	assert.NotEqual(t, tb.RefreshToken, rotated.RefreshToken)

	resp = h.postForm("/oauth/token", url.Values{"grant_type": {"refresh_token"}, "refresh_token": {tb.RefreshToken}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.postForm("/oauth/introspect", url.Values{"token": {rotated.AccessToken}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, resp)["active"])

	for i := 0; i < 2; i++ {
		resp = h.postForm("/oauth/revoke", url.Values{"token": {rotated.AccessToken}}, false)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = h.postForm("/oauth/introspect", url.Values{"token": {rotated.AccessToken}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode[map[string]any](t, resp)["active"])

	resp = h.postForm("/oauth/introspect", url.Values{"token": {rotated.AccessToken}}, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetadataEndpoints(t *testing.T) {
	h := newHarness(t)

	resp := h.do(mustGet(t, h.srv.URL+"/.well-known/openid-configuration"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decode[map[string]any](t, resp)
	assert.Equal(t, h.srv.URL, doc["issuer"])
	assert.Equal(t, h.srv.URL+"/oauth/jwks", doc["jwks_uri"])

	resp = h.do(mustGet(t, h.srv.URL+"/oauth/jwks"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "max-age")

	resp = h.do(mustGet(t, h.srv.URL+"/oauth/userinfo"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `Bearer error="invalid_token"`, resp.Header.Get("WWW-Authenticate"))

	resp = h.do(mustGet(t, h.srv.URL+"/healthz"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = h.do(mustGet(t, h.srv.URL+"/readyz"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", decode[map[string]any](t, resp)["status"])

	resp = h.do(mustGet(t, h.srv.URL+"/nope"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDynamicRegistration(t *testing.T) {
	h := newHarness(t)

	req, _ := http.NewRequest(http.MethodPost, h.srv.URL+"/oauth/register",
		strings.NewReader(`{"client_name":"Other","redirect_uris":["https://other.example/cb"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp := h.do(req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.NotEmpty(t, body["client_id"])
	assert.NotEmpty(t, body["client_secret"])

	req, _ = http.NewRequest(http.MethodPost, h.srv.URL+"/oauth/register", strings.NewReader(`{"redirect_uris":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp = h.do(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_client_metadata", decode[map[string]any](t, resp)["error"])
}

func TestLogoutRedirect(t *testing.T) {
	h := newHarness(t)
	q := url.Values{"post_logout_redirect_uri": {"https://evil.example/"}, "client_id": {testClientID}, "state": {"bye"}}
	resp := h.do(mustGet(t, h.srv.URL+"/oauth/logout?"+q.Encode()))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	assert.Equal(t, "bye", loc.Query().Get("state"))

	resp = h.postForm("/oauth/backchannel-logout", url.Values{}, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = h.postForm("/oauth/backchannel-logout", url.Values{"logout_token": {"not-a-jwt"}}, false)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBackchannelLogoutRevokesSubject(t *testing.T) {
	h := newHarness(t)
	resp := h.exchange(h.code("[0.2,0.7,0.1]", "enroll"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tb := decode[tokenBody](t, resp)
	claims, err := jwtx.ParseEdDSA(tb.IDToken, h.c.Issuer, h.srv.URL)
	require.NoError(t, err)
	sub := claims["sub"].(string)

	userinfo := func() int {
		req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/oauth/userinfo", nil)
		req.Header.Set("Authorization", "Bearer "+tb.AccessToken)
		return h.do(req).StatusCode
	}
	require.Equal(t, http.StatusOK, userinfo())

	// Un ID token no sirve como logout token.
	resp = h.postForm("/oauth/backchannel-logout", url.Values{"logout_token": {tb.IDToken}}, false)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, http.StatusOK, userinfo())

	logoutToken, err := h.c.Issuer.IssueLogoutToken(h.srv.URL, sub, testClientID, time.Now())
	require.NoError(t, err)
	resp = h.postForm("/oauth/backchannel-logout", url.Values{"logout_token": {logoutToken}}, false)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, userinfo())
	resp = h.postForm("/oauth/token", url.Values{"grant_type": {"refresh_token"}, "refresh_token": {tb.RefreshToken}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", decode[tokenBody](t, resp).Error)
}

func mustGet(t *testing.T, u string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, u, nil)
	require.NoError(t, err)
	return req
}
