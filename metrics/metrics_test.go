package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsRunAndStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRunComplete("checkout", "success", 50*time.Millisecond)
	c.RecordStepComplete("checkout", "pay", "success", 10*time.Millisecond, 2)
	c.RecordCompensation("checkout", "pay", "failed")

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	require.Contains(t, byName, "sagaflow_runs_total")
	require.Contains(t, byName, "sagaflow_step_retries_total")
	require.Contains(t, byName, "sagaflow_compensations_total")

	retries := byName["sagaflow_step_retries_total"].GetMetric()
	require.Len(t, retries, 1)
	require.Equal(t, float64(2), retries[0].GetCounter().GetValue())
}
