package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/facegate/internal/continuation"
	"gopkg.in/yaml.v3"
)

// Políticas de enrolamiento duplicado.
const (
	DuplicateAllow  = "allow"
	DuplicateReject = "reject"
	DuplicateMerge  = "merge"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		PublicURL          string   `yaml:"public_url"` // base pública; vacío => derivada del request
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres | mongo
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns int32 `yaml:"max_conns"`
			MinConns int32 `yaml:"min_conns"`
		} `yaml:"postgres"`
		Mongo struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	// Grants: store de codes/tokens. Vacío => mismo driver que storage.
	Grants struct {
		Driver string `yaml:"driver"` // "" | memory | postgres | mongo | redis
	} `yaml:"grants"`

	JWT struct {
		Issuer         string `yaml:"issuer"`
		SigningKeyFile string `yaml:"signing_key_file"`
		KID            string `yaml:"kid"`
		AccessTTL      string `yaml:"access_ttl"`
		RefreshTTL     string `yaml:"refresh_ttl"`
		IDTokenTTL     string `yaml:"id_token_ttl"`
	} `yaml:"jwt"`

	OAuth struct {
		CodeTTL                         string `yaml:"code_ttl"`
		CaptureURL                      string `yaml:"capture_url"`
		RegisterURL                     string `yaml:"register_url"`
		StrictRedirectErrors            bool   `yaml:"strict_redirect_errors"`
		IntrospectionRequiresClientAuth *bool  `yaml:"introspection_requires_client_auth"`
		BackchannelHMACSecret           string `yaml:"backchannel_hmac_secret"`
		DefaultPostLogoutRedirectURI    string `yaml:"default_post_logout_redirect_uri"`
	} `yaml:"oauth"`

	Biometric struct {
		Threshold           float64 `yaml:"threshold"`
		Dimension           int     `yaml:"dimension"`
		DuplicateEnrollment string  `yaml:"duplicate_enrollment"` // allow | reject | merge
		TemplateCacheTTL    string  `yaml:"template_cache_ttl"`
	} `yaml:"biometric"`

	Security struct {
		ContinuationKey string `yaml:"continuation_key"` // base64 de >= 32 bytes
		ContinuationTTL string `yaml:"continuation_ttl"`
	} `yaml:"security"`

	Rate struct {
		Enabled bool   `yaml:"enabled"`
		Driver  string `yaml:"driver"` // memory | redis
		Window  string `yaml:"window"`
		Limit   int    `yaml:"limit"`

		Token struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"token"`
		Verify struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"verify"`
		Register struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"register"`
	} `yaml:"rate"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Audit struct {
		Sink  string `yaml:"sink"` // log | kafka | multi | nop
		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
	} `yaml:"audit"`

	Clients []StaticClient `yaml:"clients"`
}

// StaticClient es un cliente declarado en el YAML, upserteado al arrancar.
type StaticClient struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Name         string   `yaml:"name"`
	RedirectURIs []string `yaml:"redirect_uris"`
	GrantTypes   []string `yaml:"grant_types"`
	Scopes       []string `yaml:"scopes"`
}

// Load lee el YAML (path vacío => sólo defaults + env), aplica defaults,
// overrides de entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default devuelve la configuración por defecto sin leer archivo ni entorno.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "facegate"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "facegate:"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.JWT.IDTokenTTL == "" {
		c.JWT.IDTokenTTL = "1h"
	}
	if c.OAuth.CodeTTL == "" {
		c.OAuth.CodeTTL = "10m"
	}
	if c.OAuth.CaptureURL == "" {
		c.OAuth.CaptureURL = "/face-auth"
	}
	if c.OAuth.RegisterURL == "" {
		c.OAuth.RegisterURL = "/face-auth/register"
	}
	if c.OAuth.IntrospectionRequiresClientAuth == nil {
		v := true
		c.OAuth.IntrospectionRequiresClientAuth = &v
	}
	if c.OAuth.DefaultPostLogoutRedirectURI == "" {
		c.OAuth.DefaultPostLogoutRedirectURI = "/"
	}
	if c.Biometric.Threshold == 0 {
		c.Biometric.Threshold = 0.6
	}
	if c.Biometric.Dimension == 0 {
		c.Biometric.Dimension = 128
	}
	if c.Biometric.DuplicateEnrollment == "" {
		c.Biometric.DuplicateEnrollment = DuplicateMerge
	}
	if c.Biometric.TemplateCacheTTL == "" {
		c.Biometric.TemplateCacheTTL = "30s"
	}
	if c.Security.ContinuationTTL == "" {
		c.Security.ContinuationTTL = "15m"
	}
	if c.Rate.Driver == "" {
		c.Rate.Driver = "memory"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.Limit == 0 {
		c.Rate.Limit = 120
	}
	if c.Rate.Token.Limit == 0 {
		c.Rate.Token.Limit = 30
	}
	if c.Rate.Token.Window == "" {
		c.Rate.Token.Window = "1m"
	}
	if c.Rate.Verify.Limit == 0 {
		c.Rate.Verify.Limit = 20
	}
	if c.Rate.Verify.Window == "" {
		c.Rate.Verify.Window = "1m"
	}
	if c.Rate.Register.Limit == 0 {
		c.Rate.Register.Limit = 5
	}
	if c.Rate.Register.Window == "" {
		c.Rate.Register.Window = "10m"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Audit.Sink == "" {
		c.Audit.Sink = "log"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvFloat(key string) (float64, bool) {
	if s, ok := getEnvStr(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("PUBLIC_URL"); ok {
		c.Server.PublicURL = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("MONGO_URI"); ok {
		c.Storage.Mongo.URI = v
	}
	if v, ok := getEnvStr("MONGO_DATABASE"); ok {
		c.Storage.Mongo.Database = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}

	// GRANTS
	if v, ok := getEnvStr("GRANTS_DRIVER"); ok {
		c.Grants.Driver = strings.ToLower(v)
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_SIGNING_KEY_FILE"); ok {
		c.JWT.SigningKeyFile = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	// OAUTH
	if v, ok := getEnvStr("BACKCHANNEL_HMAC_SECRET"); ok {
		c.OAuth.BackchannelHMACSecret = v
	}

	// BIOMETRIC
	if v, ok := getEnvFloat("BIOMETRIC_THRESHOLD"); ok {
		c.Biometric.Threshold = v
	}

	// SECURITY
	if v, ok := getEnvStr("CONTINUATION_KEY"); ok {
		c.Security.ContinuationKey = strings.TrimSpace(v)
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_DRIVER"); ok {
		c.Rate.Driver = strings.ToLower(v)
	}

	// AUDIT
	if v, ok := getEnvStr("AUDIT_SINK"); ok {
		c.Audit.Sink = strings.ToLower(v)
	}
	if v, ok := getEnvCSV("KAFKA_BROKERS"); ok {
		c.Audit.Kafka.Brokers = v
	}
	if v, ok := getEnvStr("KAFKA_TOPIC"); ok {
		c.Audit.Kafka.Topic = v
	}
}

// IsProd indica si el entorno es productivo.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod") || strings.EqualFold(c.App.Env, "production")
}

// GrantsDriver devuelve el driver efectivo del store de grants.
func (c *Config) GrantsDriver() string {
	if c.Grants.Driver == "" {
		return c.Storage.Driver
	}
	return c.Grants.Driver
}

// Validate rechaza combinaciones inválidas antes de arrancar.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add("storage.dsn is required for driver postgres")
		}
	case "mongo":
		if strings.TrimSpace(c.Storage.Mongo.URI) == "" {
			add("storage.mongo.uri is required for driver mongo")
		}
	default:
		add("unknown storage.driver %q", c.Storage.Driver)
	}

	switch g := c.GrantsDriver(); g {
	case "memory", "postgres", "mongo":
		if g != c.Storage.Driver && g != "memory" {
			add("grants.driver %q requires storage.driver %q", g, g)
		}
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			add("redis.addr is required for grants.driver redis")
		}
	default:
		add("unknown grants.driver %q", g)
	}

	switch c.Rate.Driver {
	case "memory":
	case "redis":
		if c.Rate.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
			add("redis.addr is required for rate.driver redis")
		}
	default:
		add("unknown rate.driver %q", c.Rate.Driver)
	}

	switch c.Audit.Sink {
	case "log", "nop":
	case "kafka", "multi":
		if len(c.Audit.Kafka.Brokers) == 0 || strings.TrimSpace(c.Audit.Kafka.Topic) == "" {
			add("audit.kafka.brokers and audit.kafka.topic are required for sink %q", c.Audit.Sink)
		}
	default:
		add("unknown audit.sink %q", c.Audit.Sink)
	}

	if c.Biometric.Threshold <= 0 {
		add("biometric.threshold must be > 0")
	}
	if c.Biometric.Dimension <= 0 {
		add("biometric.dimension must be > 0")
	}
	switch c.Biometric.DuplicateEnrollment {
	case DuplicateAllow, DuplicateReject, DuplicateMerge:
	default:
		add("unknown biometric.duplicate_enrollment %q", c.Biometric.DuplicateEnrollment)
	}

	if k := c.Security.ContinuationKey; k != "" {
		if _, err := continuation.ParseKey(k); err != nil {
			add("security.continuation_key: %v", err)
		}
	}

	durations := map[string]string{
		"server.read_timeout":          c.Server.ReadTimeout,
		"server.write_timeout":         c.Server.WriteTimeout,
		"server.shutdown_timeout":      c.Server.ShutdownTimeout,
		"jwt.access_ttl":               c.JWT.AccessTTL,
		"jwt.refresh_ttl":              c.JWT.RefreshTTL,
		"jwt.id_token_ttl":             c.JWT.IDTokenTTL,
		"oauth.code_ttl":               c.OAuth.CodeTTL,
		"biometric.template_cache_ttl": c.Biometric.TemplateCacheTTL,
		"security.continuation_ttl":    c.Security.ContinuationTTL,
		"rate.window":                  c.Rate.Window,
		"rate.token.window":            c.Rate.Token.Window,
		"rate.verify.window":           c.Rate.Verify.Window,
		"rate.register.window":         c.Rate.Register.Window,
	}
	for name, v := range durations {
		if _, err := time.ParseDuration(v); err != nil {
			add("invalid duration %s=%q", name, v)
		}
	}

	for i, sc := range c.Clients {
		if strings.TrimSpace(sc.ClientID) == "" || len(sc.RedirectURIs) == 0 {
			add("clients[%d]: client_id and redirect_uris are required", i)
		}
	}

	if c.IsProd() {
		if c.Security.ContinuationKey == "" {
			add("security.continuation_key is required in prod")
		}
		if c.JWT.SigningKeyFile == "" {
			add("jwt.signing_key_file is required in prod")
		}
	}

	return errors.Join(errs...)
}

// Dur parsea una duración ya validada. Devuelve 0 si es inválida.
func Dur(s string) time.Duration {
	d, _ := time.ParseDuration(strings.TrimSpace(s))
	return d
}
