// Package app arma el contenedor de dependencias del servidor: storage,
// claves, services, controllers y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/facegate/internal/audit"
	bio "github.com/dropDatabas3/facegate/internal/biometric"
	"github.com/dropDatabas3/facegate/internal/claims"
	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/config"
	"github.com/dropDatabas3/facegate/internal/continuation"
	bioctrl "github.com/dropDatabas3/facegate/internal/http/controllers/biometric"
	healthctrl "github.com/dropDatabas3/facegate/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/facegate/internal/http/controllers/oauth"
	oidcctrl "github.com/dropDatabas3/facegate/internal/http/controllers/oidc"
	"github.com/dropDatabas3/facegate/internal/http/helpers"
	"github.com/dropDatabas3/facegate/internal/http/router"
	biosvc "github.com/dropDatabas3/facegate/internal/http/services/biometric"
	healthsvc "github.com/dropDatabas3/facegate/internal/http/services/health"
	oauthsvc "github.com/dropDatabas3/facegate/internal/http/services/oauth"
	oidcsvc "github.com/dropDatabas3/facegate/internal/http/services/oidc"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
	"github.com/dropDatabas3/facegate/internal/metrics"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
	"github.com/dropDatabas3/facegate/internal/rate"
	"github.com/dropDatabas3/facegate/internal/store"

	// Adapters de storage (se registran en init).
	_ "github.com/dropDatabas3/facegate/internal/store/memory"
	_ "github.com/dropDatabas3/facegate/internal/store/mongo"
	_ "github.com/dropDatabas3/facegate/internal/store/pg"
	_ "github.com/dropDatabas3/facegate/internal/store/redis"
)

// Version se inyecta con -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

// Container agrupa las dependencias construidas para el servidor.
type Container struct {
	Config    *config.Config
	Stores    *store.Stores
	Issuer    *jwtx.Issuer
	Clients   *clients.Registry
	Templates *bio.TemplateSource
	Audit     *audit.Recorder
	Handler   http.Handler

	redis *rdb.Client
}

// Build construye el contenedor a partir de la configuración ya validada.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.From(ctx).With(logger.Component("app"))

	c := &Container{Config: cfg}
	built := false
	defer func() {
		if !built {
			_ = c.Close()
		}
	}()

	// 1. Storage
	var err error
	c.Stores, err = store.Open(ctx, StoreConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// 2. Clientes estáticos
	c.Clients = clients.NewRegistry(c.Stores.Clients)
	if err = c.Clients.SeedStatic(ctx, staticClients(cfg.Clients)); err != nil {
		return nil, fmt.Errorf("seed clients: %w", err)
	}

	// 3. Continuation codec
	codec, err := buildCodec(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 4. Claves e issuer
	keys, err := loadKeys(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Issuer = jwtx.NewIssuer(cfg.JWT.Issuer, keys)

	// 5. Audit
	sink, err := buildAuditSink(cfg)
	if err != nil {
		return nil, err
	}
	c.Audit = audit.NewRecorder(sink)

	// 6. Rate limiting
	limits := router.Limits{}
	if cfg.Rate.Enabled {
		pool, err := c.buildRatePool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		limits = router.Limits{
			Token:      rate.Fixed(pool, cfg.Rate.Token.Limit, config.Dur(cfg.Rate.Token.Window)),
			Verify:     rate.Fixed(pool, cfg.Rate.Verify.Limit, config.Dur(cfg.Rate.Verify.Window)),
			Register:   rate.Fixed(pool, cfg.Rate.Register.Limit, config.Dur(cfg.Rate.Register.Window)),
			Introspect: rate.Fixed(pool, cfg.Rate.Limit, config.Dur(cfg.Rate.Window)),
		}
	}

	// 7. Métricas
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler, err = metrics.Register(nil)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		if c.Stores.PGPool() != nil {
			if err = metrics.RegisterPool(nil, c.Stores.PGPool); err != nil {
				return nil, fmt.Errorf("register pool metrics: %w", err)
			}
		}
	}

	// 8. Services
	mapper := claims.NewMapper(nil)
	c.Templates = bio.NewTemplateSource(c.Stores.Templates, config.Dur(cfg.Biometric.TemplateCacheTTL))

	oauthServices := oauthsvc.NewServices(oauthsvc.Deps{
		Clients: c.Clients,
		Codec:   codec,
		Grants:  c.Stores.Grants,
		Users:   c.Stores.Users,
		Issuer:  c.Issuer,
		Claims:  mapper,
		Audit:   c.Audit,
		Policy:  oauthPolicy(cfg),
	})
	bioServices := biosvc.NewServices(biosvc.Deps{
		Codec:     codec,
		Templates: c.Templates,
		Store:     c.Stores.Templates,
		Users:     c.Stores.Users,
		Enroller:  c.Stores.Enroller,
		Grants:    c.Stores.Grants,
		Matcher:   bio.NewLinearMatcher(),
		Audit:     c.Audit,
		Policy: biosvc.Policy{
			Threshold:           cfg.Biometric.Threshold,
			Dimension:           cfg.Biometric.Dimension,
			DuplicateEnrollment: cfg.Biometric.DuplicateEnrollment,
			CodeTTL:             config.Dur(cfg.OAuth.CodeTTL),
			CaptureURL:          cfg.OAuth.CaptureURL,
			RegisterURL:         cfg.OAuth.RegisterURL,
		},
	})
	oidcService := oidcsvc.NewService(oidcsvc.Deps{
		Grants: c.Stores.Grants,
		Users:  c.Stores.Users,
		Issuer: c.Issuer,
		Claims: mapper,
	})
	healthDeps := healthsvc.Deps{Version: Version, Issuer: c.Issuer, StoreCheck: c.Stores.Ping}
	if c.redis != nil {
		healthDeps.RedisCheck = func(ctx context.Context) error { return c.redis.Ping(ctx).Err() }
	}

	// 9. Controllers + router
	issuer := IssuerResolver(cfg)
	c.Handler = router.New(router.Deps{
		OAuth:       oauthctrl.NewControllers(oauthServices, oauthctrl.IssuerFunc(issuer)),
		Biometric:   bioctrl.NewControllers(bioServices),
		OIDC:        oidcctrl.NewControllers(oidcService, oidcctrl.IssuerFunc(issuer)),
		Health:      healthctrl.NewHealthController(healthsvc.NewHealthService(healthDeps)),
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Limits:      limits,
	})

	log.Info("container ready",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("grants", cfg.GrantsDriver()),
		logger.String("audit_sink", cfg.Audit.Sink),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
	)
	built = true
	return c, nil
}

// Server devuelve el http.Server configurado.
func (c *Container) Server() *http.Server {
	return &http.Server{
		Addr:              c.Config.Server.Addr,
		Handler:           c.Handler,
		ReadTimeout:       config.Dur(c.Config.Server.ReadTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.Dur(c.Config.Server.WriteTimeout),
		IdleTimeout:       120 * time.Second,
	}
}

// Close libera conexiones, el cache de templates y el sink de audit.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Templates != nil {
		c.Templates.Stop()
	}
	if err := c.Audit.Close(); err != nil {
		errs = append(errs, fmt.Errorf("audit: %w", err))
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if c.Stores != nil {
		if err := c.Stores.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IssuerResolver devuelve jwt.issuer si está configurado; si no, la URL base
// del request.
func IssuerResolver(cfg *config.Config) func(r *http.Request) string {
	fixed := strings.TrimRight(strings.TrimSpace(cfg.JWT.Issuer), "/")
	return func(r *http.Request) string {
		if fixed != "" {
			return fixed
		}
		return helpers.BaseURL(r, cfg.Server.PublicURL)
	}
}

// StoreConfig traduce la configuración al factory de storage.
func StoreConfig(cfg *config.Config) store.FactoryConfig {
	fc := store.FactoryConfig{Storage: adapterConfig(cfg, cfg.Storage.Driver)}
	if g := cfg.GrantsDriver(); g != cfg.Storage.Driver {
		gc := adapterConfig(cfg, g)
		fc.Grants = &gc
	}
	return fc
}

func adapterConfig(cfg *config.Config, driver string) store.AdapterConfig {
	ac := store.AdapterConfig{Name: driver}
	switch driver {
	case "postgres":
		ac.DSN = cfg.Storage.DSN
		ac.MaxConns = cfg.Storage.Postgres.MaxConns
		ac.MinConns = cfg.Storage.Postgres.MinConns
	case "mongo":
		ac.DSN = cfg.Storage.Mongo.URI
		if ac.DSN == "" {
			ac.DSN = cfg.Storage.DSN
		}
		ac.Database = cfg.Storage.Mongo.Database
	case "redis":
		ac.Addr = cfg.Redis.Addr
		ac.Password = cfg.Redis.Password
		ac.DB = cfg.Redis.DB
		ac.KeyPrefix = cfg.Redis.Prefix
	}
	return ac
}

func staticClients(in []config.StaticClient) []clients.StaticClient {
	out := make([]clients.StaticClient, 0, len(in))
	for _, sc := range in {
		out = append(out, clients.StaticClient{
			ClientID:     sc.ClientID,
			ClientSecret: sc.ClientSecret,
			Name:         sc.Name,
			RedirectURIs: sc.RedirectURIs,
			GrantTypes:   sc.GrantTypes,
			Scopes:       sc.Scopes,
		})
	}
	return out
}

func buildCodec(ctx context.Context, cfg *config.Config) (*continuation.Codec, error) {
	var key []byte
	var err error
	if cfg.Security.ContinuationKey != "" {
		key, err = continuation.ParseKey(cfg.Security.ContinuationKey)
	} else {
		logger.From(ctx).Warn("security.continuation_key not set, using an ephemeral key; pending authorizations will not survive a restart")
		key, err = continuation.RandomKey()
	}
	if err != nil {
		return nil, fmt.Errorf("continuation key: %w", err)
	}
	return continuation.NewCodec(key, continuation.WithTTL(config.Dur(cfg.Security.ContinuationTTL)))
}

func loadKeys(ctx context.Context, cfg *config.Config) (*jwtx.KeySet, error) {
	log := logger.From(ctx)
	if cfg.JWT.SigningKeyFile == "" {
		log.Warn("jwt.signing_key_file not set, generating an ephemeral signing key")
		return jwtx.Generate(cfg.JWT.KID)
	}
	keys, generated, err := jwtx.LoadOrGenerate(cfg.JWT.SigningKeyFile, cfg.JWT.KID)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	if generated {
		log.Info("signing key generated", logger.String("path", cfg.JWT.SigningKeyFile), logger.String("kid", keys.KID))
	}
	return keys, nil
}

func buildAuditSink(cfg *config.Config) (audit.Sink, error) {
	kafkaSink := func() (audit.Sink, error) {
		return audit.NewKafkaSink(audit.KafkaConfig{
			Brokers: cfg.Audit.Kafka.Brokers,
			Topic:   cfg.Audit.Kafka.Topic,
		})
	}
	switch cfg.Audit.Sink {
	case "nop":
		return audit.Nop{}, nil
	case "kafka":
		return kafkaSink()
	case "multi":
		k, err := kafkaSink()
		if err != nil {
			return nil, err
		}
		return audit.Multi{audit.LogSink{}, k}, nil
	default:
		return audit.LogSink{}, nil
	}
}

func (c *Container) buildRatePool(ctx context.Context, cfg *config.Config) (*rate.Pool, error) {
	if cfg.Rate.Driver != "redis" {
		return rate.NewMemoryPool(), nil
	}
	c.redis = rdb.NewClient(&rdb.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.redis.Ping(pctx).Err(); err != nil {
		// El limiter hace fail-open; solo advertimos.
		logger.From(ctx).Warn("redis rate limiter unreachable at startup", logger.Err(err))
	}
	return rate.NewRedisPool(c.redis, cfg.Redis.Prefix+"rl:"), nil
}

func oauthPolicy(cfg *config.Config) oauthsvc.Policy {
	p := oauthsvc.Policy{
		CodeTTL:                         config.Dur(cfg.OAuth.CodeTTL),
		AccessTTL:                       config.Dur(cfg.JWT.AccessTTL),
		RefreshTTL:                      config.Dur(cfg.JWT.RefreshTTL),
		IDTokenTTL:                      config.Dur(cfg.JWT.IDTokenTTL),
		CaptureURL:                      cfg.OAuth.CaptureURL,
		StrictRedirectErrors:            cfg.OAuth.StrictRedirectErrors,
		IntrospectionRequiresClientAuth: true,
		DefaultPostLogoutRedirectURI:    cfg.OAuth.DefaultPostLogoutRedirectURI,
	}
	if v := cfg.OAuth.IntrospectionRequiresClientAuth; v != nil {
		p.IntrospectionRequiresClientAuth = *v
	}
	if s := cfg.OAuth.BackchannelHMACSecret; s != "" {
		p.BackchannelHMACSecret = []byte(s)
	}
	return p
}
