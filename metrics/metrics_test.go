package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.IncAdmission()
	m.IncAdmission()
	m.IncLockAbort()
	m.ObserveTx("new_order", OutcomeCommitted, time.Millisecond)
	m.ObserveTx("new_order", OutcomeAborted, time.Millisecond)
	m.ObserveTx("new_order", OutcomeCommitted, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.admissions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockAborts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.txCounter.WithLabelValues("new_order", OutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txCounter.WithLabelValues("new_order", OutcomeAborted)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncAdmission()
		m.IncLockAbort()
		m.ObserveLockWait(time.Second)
		m.ObserveTx("micro", OutcomeFailed, time.Second)
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveLockWait(3 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "detdb_locktable_wait_duration_seconds_count 1"))
}
