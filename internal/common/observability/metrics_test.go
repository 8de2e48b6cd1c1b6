package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-search/internal/common/logger"
)

func TestObservability_RecordRender(t *testing.T) {
	obs := New("roster-search-test", logger.NewTestLogger(t))
	defer func() { assert.NoError(t, obs.Shutdown(context.Background())) }()

	obs.RecordRender(context.Background(), "creators", "ok", 3*time.Millisecond)
	obs.RecordRender(context.Background(), "creators", "error", time.Millisecond)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "search_renders") {
			found = true
			assert.Len(t, mf.GetMetric(), 2)
		}
	}
	assert.True(t, found, "render counter not exported")
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	obs.RecordRender(context.Background(), "brands", "ok", time.Millisecond)
	assert.NoError(t, obs.Shutdown(context.Background()))

	assert.NoError(t, (&Observability{}).Shutdown(context.Background()))
}
