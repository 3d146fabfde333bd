package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := Register(reg)
	require.NoError(t, err)

	ObserveMatch("match", 0.3)
	ObserveMatch("no_face", -1)
	ObserveEnrollment("created")
	ObserveTokens("authorization_code")
	ObserveGrantFailure("", "invalid_grant")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	raw, _ := io.ReadAll(rec.Body)
	body := string(raw)

	require.Contains(t, body, `facegate_biometric_match_total{outcome="match"} 1`)
	require.Contains(t, body, `facegate_biometric_match_distance_count 1`)
	require.Contains(t, body, `facegate_enrollments_total{result="created"} 1`)
	require.Contains(t, body, `facegate_tokens_issued_total{grant="authorization_code"} 1`)
	require.Contains(t, body, `facegate_grant_failures_total{grant="unknown",reason="invalid_grant"} 1`)

	// Registrar de nuevo no falla.
	_, err = Register(reg)
	require.NoError(t, err)
}
