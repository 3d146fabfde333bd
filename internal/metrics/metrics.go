// Package metrics define las métricas Prometheus del servidor.
// Viven en un paquete propio para que services y middlewares las usen sin ciclos.
package metrics

import (
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facegate"

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Número total de requests procesadas",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latencia de los requests HTTP",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_inflight_requests",
		Help:      "Requests en vuelo",
	})

	// Biometric metrics
	BiometricMatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "biometric_match_total",
		Help:      "Resultados de matching facial",
	}, []string{"outcome"}) // match|no_match|empty|no_face

	BiometricMatchDistance = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "biometric_match_distance",
		Help:      "Distancia euclídea del mejor candidato",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1.0, 1.5},
	})

	EnrollmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Enrolamientos por resultado",
	}, []string{"result"}) // created|merged|rejected|failed

	// OAuth metrics
	TokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Pares de tokens emitidos por grant",
	}, []string{"grant"})

	GrantFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grant_failures_total",
		Help:      "Fallos del token endpoint por grant y motivo",
	}, []string{"grant", "reason"})
)

var (
	registerOnce sync.Once
	registerErr  error
)

// Register registra todas las métricas en reg (o el default si es nil).
// Es idempotente. Devuelve el handler para /metrics.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{
			HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight,
			BiometricMatchTotal, BiometricMatchDistance, EnrollmentsTotal,
			TokensIssuedTotal, GrantFailuresTotal,
		} {
			if err := registerCollector(reg, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// RegisterPool expone gauges del pool Postgres.
func RegisterPool(reg prometheus.Registerer, pool func() *pgxpool.Pool) error {
	return registerCollector(reg, newDBPoolCollector(pool))
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ─── Helpers de dominio ───

// ObserveMatch registra un resultado de matching. distance < 0 indica que no hubo candidato.
func ObserveMatch(outcome string, distance float64) {
	BiometricMatchTotal.WithLabelValues(outcome).Inc()
	if distance >= 0 {
		BiometricMatchDistance.Observe(distance)
	}
}

// ObserveEnrollment registra un enrolamiento.
func ObserveEnrollment(result string) {
	EnrollmentsTotal.WithLabelValues(result).Inc()
}

// ObserveTokens registra la emisión de un par de tokens.
func ObserveTokens(grant string) {
	TokensIssuedTotal.WithLabelValues(grant).Inc()
}

// ObserveGrantFailure registra un fallo del token endpoint.
func ObserveGrantFailure(grant, reason string) {
	if grant == "" {
		grant = "unknown"
	}
	GrantFailuresTotal.WithLabelValues(grant, reason).Inc()
}

// dbPoolCollector expone gauges para el pool Postgres.
type dbPoolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newDBPoolCollector(pool func() *pgxpool.Pool) *dbPoolCollector {
	return &dbPoolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc(namespace+"_pg_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc(namespace+"_pg_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc(namespace+"_pg_total", "Conexiones totales", nil, nil),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
