package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordIngest(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordIngest(IngestMiss, 120)
	m.RecordIngest(IngestHit, 0)
	m.RecordIngest(IngestHit, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues(IngestMiss)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues(IngestHit)))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.ingestBytes))
}

func TestMetrics_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.RecordFetch(time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(second.fetchErrors))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIngest(IngestHit, 1)
		m.RecordVariant("thumbnail", time.Second, nil)
		m.RecordFetch(time.Second, nil)
		m.RequestStarted()
		m.RequestFinished("GET", "/health", 200, time.Millisecond)
	})
}
