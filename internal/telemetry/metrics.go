// Package telemetry exposes prometheus metrics for the editing runtime.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-cms-inline/internal/autosave"
)

const (
	// MetricsNamespace prefixes every metric.
	MetricsNamespace = "cms_inline"

	// MetricsSubsystem groups the save pipeline metrics.
	MetricsSubsystem = "autosave"

	// CommandsSubsystem groups the admin command metrics.
	CommandsSubsystem = "commands"

	outcomeSuccess = "success"
)

// Metrics implements autosave.Recorder on prometheus collectors.
type Metrics struct {
	SavesStarted       *prometheus.CounterVec
	SavesFinished      *prometheus.CounterVec
	SaveDuration       *prometheus.HistogramVec
	SavesInFlight      prometheus.Gauge
	RetriesScheduled   *prometheus.CounterVec
	RetryDelaySeconds  *prometheus.HistogramVec
	RetriesExhaustedCt *prometheus.CounterVec
	SavesSuperseded    *prometheus.CounterVec
	CommandsExecuted   *prometheus.CounterVec
	CommandDuration    *prometheus.HistogramVec
}

var _ autosave.Recorder = (*Metrics)(nil)

// NewMetrics creates and registers the collectors. A nil registerer uses the
// prometheus default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &Metrics{}

	m.SavesStarted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "saves_started_total",
			Help:      "Total number of save attempts sent to the content store",
		},
		[]string{"intent"},
	)

	m.SavesFinished = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "saves_finished_total",
			Help:      "Total number of finished save attempts by outcome",
		},
		[]string{"intent", "outcome"},
	)

	m.SaveDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "save_duration_seconds",
			Help:      "Duration of save attempts in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"intent"},
	)

	m.SavesInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "saves_in_flight",
			Help:      "Number of save attempts currently in flight",
		},
	)

	m.RetriesScheduled = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "retries_scheduled_total",
			Help:      "Total number of retries scheduled after network failures",
		},
		[]string{"intent"},
	)

	m.RetryDelaySeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "retry_delay_seconds",
			Help:      "Backoff delay applied before a retry",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		},
		[]string{"intent"},
	)

	m.RetriesExhaustedCt = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "retries_exhausted_total",
			Help:      "Total number of saves that failed after every retry",
		},
		[]string{"intent"},
	)

	m.SavesSuperseded = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "saves_superseded_total",
			Help:      "Total number of saves dropped or made stale by a later explicit save",
		},
		[]string{"intent"},
	)

	m.CommandsExecuted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: CommandsSubsystem,
			Name:      "executed_total",
			Help:      "Total number of admin commands executed by operation and result",
		},
		[]string{"operation", "result"},
	)

	m.CommandDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: CommandsSubsystem,
			Name:      "duration_seconds",
			Help:      "Duration of admin command executions in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)

	return m
}

func (m *Metrics) SaveStarted(intent autosave.Intent) {
	m.SavesStarted.WithLabelValues(string(intent)).Inc()
	m.SavesInFlight.Inc()
}

func (m *Metrics) SaveFinished(intent autosave.Intent, class autosave.Class, elapsed time.Duration) {
	m.SavesInFlight.Dec()
	m.SavesFinished.WithLabelValues(string(intent), Outcome(class)).Inc()
	m.SaveDuration.WithLabelValues(string(intent)).Observe(elapsed.Seconds())
}

func (m *Metrics) RetryScheduled(intent autosave.Intent, _ int, delay time.Duration) {
	m.RetriesScheduled.WithLabelValues(string(intent)).Inc()
	m.RetryDelaySeconds.WithLabelValues(string(intent)).Observe(delay.Seconds())
}

func (m *Metrics) RetriesExhausted(intent autosave.Intent) {
	m.RetriesExhaustedCt.WithLabelValues(string(intent)).Inc()
}

func (m *Metrics) Superseded(intent autosave.Intent) {
	m.SavesSuperseded.WithLabelValues(string(intent)).Inc()
}

// CommandExecuted records one admin command execution.
func (m *Metrics) CommandExecuted(operation, result string, elapsed time.Duration) {
	m.CommandsExecuted.WithLabelValues(operation, result).Inc()
	m.CommandDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Outcome is the label value recorded for a failure class.
func Outcome(class autosave.Class) string {
	if class == autosave.ClassNone {
		return outcomeSuccess
	}
	return string(class)
}
