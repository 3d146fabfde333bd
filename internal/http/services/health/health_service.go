// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	dto "github.com/dropDatabas3/facegate/internal/http/dto/health"
	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// Estados agregados.
const (
	StatusReady       = "ready"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Live() dto.HealthResponse
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version    string
	Issuer     *jwtx.Issuer
	StoreCheck func(ctx context.Context) error // crítico
	RedisCheck func(ctx context.Context) error // rate limiter; no crítico
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Live() dto.HealthResponse {
	return dto.HealthResponse{
		Status:     "ok",
		Version:    s.deps.Version,
		Components: map[string]dto.HealthStatus{},
		Timestamp:  time.Now().UTC(),
	}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Version:    s.deps.Version,
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}
	critical, degraded := false, false

	// 1) Storage (crítico)
	if s.deps.StoreCheck == nil {
		resp.Components["store"] = dto.HealthStatus{Status: "error", Message: "store not initialized"}
		critical = true
	} else if err := s.deps.StoreCheck(ctx); err != nil {
		resp.Components["store"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		critical = true
		log.Error("store unavailable", logger.Err(err))
	} else {
		resp.Components["store"] = dto.HealthStatus{Status: "ok"}
	}

	// 2) Keystore (crítico): firmar un token descartable
	if s.deps.Issuer == nil {
		resp.Components["keystore"] = dto.HealthStatus{Status: "error", Message: "issuer not initialized"}
		critical = true
	} else if _, err := s.deps.Issuer.Sign(jwtv5.MapClaims{"sub": "healthcheck", "exp": time.Now().Add(time.Minute).Unix()}); err != nil {
		resp.Components["keystore"] = dto.HealthStatus{Status: "error", Message: err.Error()}
		critical = true
		log.Error("keystore check failed", logger.Err(err))
	} else {
		resp.Components["keystore"] = dto.HealthStatus{Status: "ok"}
		resp.ActiveKeyID = s.deps.Issuer.Keys.KID
	}

	// 3) Redis del rate limiter (no crítico: el limiter hace fail-open)
	if s.deps.RedisCheck != nil {
		if err := s.deps.RedisCheck(ctx); err != nil {
			resp.Components["redis"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			degraded = true
			log.Warn("redis unavailable", logger.Err(err))
		} else {
			resp.Components["redis"] = dto.HealthStatus{Status: "ok"}
		}
	}

	switch {
	case critical:
		resp.Status = StatusUnavailable
	case degraded:
		resp.Status = StatusDegraded
	default:
		resp.Status = StatusReady
	}
	return resp
}
