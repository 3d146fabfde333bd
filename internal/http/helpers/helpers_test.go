package helpers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadParams_JSONArray(t *testing.T) {
	body := `{"request":"abc","descriptor":[0.1,-0.25,3],"action":"enroll"}`
	r := httptest.NewRequest(http.MethodPost, "/face-auth/verify", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p, err := ReadParams(httptest.NewRecorder(), r, 1<<16)
	require.NoError(t, err)
	require.Equal(t, "abc", p.Get("request"))
	require.Equal(t, "0.1,-0.25,3", p.Get("descriptor"))
}

func TestReadParams_FormAndQueryFallback(t *testing.T) {
	form := url.Values{"grant_type": {"authorization_code"}, "code": {"xyz"}}
	r := httptest.NewRequest(http.MethodPost, "/oauth/token?client_id=c1&code=ignored", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p, err := ReadParams(httptest.NewRecorder(), r, 1<<16)
	require.NoError(t, err)
	require.Equal(t, "xyz", p.Get("code"))
	require.Equal(t, "c1", p.Get("client_id"))
}

func TestReadParams_TooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"`+strings.Repeat("x", 100)+`"}`))
	r.Header.Set("Content-Type", "application/json")
	_, err := ReadParams(httptest.NewRecorder(), r, 16)
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestReadClientCredentials(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
	r.SetBasicAuth("client%3A1", "s3cr%26t")
	c := ReadClientCredentials(r, Params{"client_id": "other"})
	require.True(t, c.Basic)
	require.Equal(t, "client:1", c.ClientID)
	require.Equal(t, "s3cr&t", c.ClientSecret)

	r = httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
	c = ReadClientCredentials(r, Params{"client_id": "c2", "client_secret": "x"})
	require.False(t, c.Basic)
	require.Equal(t, "c2", c.ClientID)
}

func TestBaseURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://internal:8080/x", nil)
	require.Equal(t, "http://internal:8080", BaseURL(r, ""))

	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "auth.example.com")
	require.Equal(t, "https://auth.example.com", BaseURL(r, ""))
	require.Equal(t, "https://id.example.org", BaseURL(r, "https://id.example.org/"))
}

func TestAddQuery(t *testing.T) {
	got := AddQuery("https://app.example.com/cb?x=1", "code", "abc", "state", "")
	u, err := url.Parse(got)
	require.NoError(t, err)
	require.Equal(t, "1", u.Query().Get("x"))
	require.Equal(t, "abc", u.Query().Get("code"))
	require.False(t, u.Query().Has("state"))
}
