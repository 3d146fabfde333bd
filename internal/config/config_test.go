package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "memory", c.GrantsDriver())
	require.Equal(t, 0.6, c.Biometric.Threshold)
	require.Equal(t, 128, c.Biometric.Dimension)
	require.Equal(t, DuplicateMerge, c.Biometric.DuplicateEnrollment)
	require.Equal(t, 10*time.Minute, Dur(c.OAuth.CodeTTL))
	require.Equal(t, 15*time.Minute, Dur(c.JWT.AccessTTL))
	require.Equal(t, 720*time.Hour, Dur(c.JWT.RefreshTTL))
	require.True(t, *c.OAuth.IntrospectionRequiresClientAuth)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9000"
biometric:
  threshold: 0.5
oauth:
  introspection_requires_client_auth: false
clients:
  - client_id: demo
    client_secret: s3cret
    redirect_uris: ["http://localhost:3000/cb"]
`)
	t.Setenv("SERVER_ADDR", ":9100")
	t.Setenv("BIOMETRIC_THRESHOLD", "0.45")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":9100", c.Server.Addr)
	require.Equal(t, 0.45, c.Biometric.Threshold)
	require.False(t, *c.OAuth.IntrospectionRequiresClientAuth)
	require.Len(t, c.Clients, 1)
	require.Equal(t, "demo", c.Clients[0].ClientID)
}

func TestValidate(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	short := base64.StdEncoding.EncodeToString(make([]byte, 8))

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown storage", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn"},
		{"mongo without uri", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.mongo.uri"},
		{"redis grants without addr", func(c *Config) { c.Grants.Driver = "redis" }, "redis.addr"},
		{"unknown rate driver", func(c *Config) { c.Rate.Driver = "etcd" }, "rate.driver"},
		{"kafka without brokers", func(c *Config) { c.Audit.Sink = "kafka" }, "audit.kafka"},
		{"zero threshold", func(c *Config) { c.Biometric.Threshold = -1 }, "threshold"},
		{"bad policy", func(c *Config) { c.Biometric.DuplicateEnrollment = "ignore" }, "duplicate_enrollment"},
		{"short key", func(c *Config) { c.Security.ContinuationKey = short }, "continuation_key"},
		{"bad duration", func(c *Config) { c.OAuth.CodeTTL = "ten minutes" }, "oauth.code_ttl"},
		{"prod without keys", func(c *Config) { c.App.Env = "prod" }, "required in prod"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tc.want), err.Error())
		})
	}

	t.Run("valid prod", func(t *testing.T) {
		c := Default()
		c.App.Env = "prod"
		c.Security.ContinuationKey = key
		c.JWT.SigningKeyFile = "/var/lib/facegate/signing.json"
		require.NoError(t, c.Validate())
	})
}
