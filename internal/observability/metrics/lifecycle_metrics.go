package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics captures authorization and invitation lifecycle health
// signals for tenant SLOs.
type LifecycleMetrics struct {
	accessDenials         *prometheus.CounterVec
	quotaDenials          *prometheus.CounterVec
	invitationTransitions *prometheus.CounterVec
	sweepRuns             prometheus.Counter
	sweepTransitioned     prometheus.Counter
	sweepDuration         prometheus.Observer
}

var (
	lifecycleMetricsOnce sync.Once
	lifecycleMetrics     *LifecycleMetrics
)

// Lifecycle returns the singleton lifecycle metrics registry.
func Lifecycle() *LifecycleMetrics {
	return LifecycleWithConfig(Config{})
}

// LifecycleWithConfig returns the singleton lifecycle metrics registry using config labels.
func LifecycleWithConfig(cfg Config) *LifecycleMetrics {
	lifecycleMetricsOnce.Do(func() {
		lifecycleMetrics = newLifecycleMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return lifecycleMetrics
}

// ResetLifecycleMetricsForTest resets the lifecycle metrics singleton for tests.
func ResetLifecycleMetricsForTest() {
	lifecycleMetricsOnce = sync.Once{}
	lifecycleMetrics = nil
}

func newLifecycleMetrics(registerer prometheus.Registerer, cfg Config) *LifecycleMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "invobase"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	accessDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invobase_access_denials_total",
		Help:        "Access gate denials by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	quotaDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invobase_quota_denials_total",
		Help:        "Quota reservation denials by resource kind.",
		ConstLabels: constLabels,
	}, []string{"resource"})
	invitationTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invobase_invitation_transitions_total",
		Help:        "Invitation lifecycle transitions by destination status.",
		ConstLabels: constLabels,
	}, []string{"to_status"})
	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "invobase_invitation_sweep_runs_total",
		Help:        "Invitation expiry sweep executions.",
		ConstLabels: constLabels,
	})
	sweepTransitioned := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "invobase_invitation_sweep_transitioned_total",
		Help:        "Invitations moved to EXPIRED by the sweep.",
		ConstLabels: constLabels,
	})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "invobase_invitation_sweep_duration_seconds",
		Help:        "Invitation expiry sweep latency.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		accessDenials,
		quotaDenials,
		invitationTransitions,
		sweepRuns,
		sweepTransitioned,
		sweepDuration,
	)

	return &LifecycleMetrics{
		accessDenials:         accessDenials,
		quotaDenials:          quotaDenials,
		invitationTransitions: invitationTransitions,
		sweepRuns:             sweepRuns,
		sweepTransitioned:     sweepTransitioned,
		sweepDuration:         sweepDuration,
	}
}

// RecordAccessDenial counts one access gate denial.
func (m *LifecycleMetrics) RecordAccessDenial(reason string) {
	if m == nil {
		return
	}
	m.accessDenials.WithLabelValues(reason).Inc()
}

// RecordQuotaDenial counts one quota reservation denial.
func (m *LifecycleMetrics) RecordQuotaDenial(resource string) {
	if m == nil {
		return
	}
	m.quotaDenials.WithLabelValues(resource).Inc()
}

// RecordInvitationTransition counts one lifecycle transition.
func (m *LifecycleMetrics) RecordInvitationTransition(toStatus string) {
	if m == nil {
		return
	}
	m.invitationTransitions.WithLabelValues(toStatus).Inc()
}

// RecordSweep records one sweep run and how many rows it moved.
func (m *LifecycleMetrics) RecordSweep(transitioned int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.sweepTransitioned.Add(float64(transitioned))
	m.sweepDuration.Observe(elapsed.Seconds())
}
