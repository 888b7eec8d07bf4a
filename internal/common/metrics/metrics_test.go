// internal/common/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLoanDecisions_CountsPerLabel(t *testing.T) {
	before := testutil.ToFloat64(LoanDecisions.WithLabelValues("approved", "MEETS_ALL_CRITERIA"))

	LoanDecisions.WithLabelValues("approved", "MEETS_ALL_CRITERIA").Inc()
	LoanDecisions.WithLabelValues("rejected", "BANKRUPTCY").Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(LoanDecisions.WithLabelValues("approved", "MEETS_ALL_CRITERIA")))
}

func TestWorkerJobsActive_Gauge(t *testing.T) {
	g := WorkerJobsActive.WithLabelValues("persist-submission")
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(g))
	g.Dec()
}

func TestAgentNotifications_ByStatus(t *testing.T) {
	before := testutil.ToFloat64(AgentNotifications.WithLabelValues("failed"))
	AgentNotifications.WithLabelValues("failed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AgentNotifications.WithLabelValues("failed")))
}
