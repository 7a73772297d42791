package ports

// Metric names used across the logger. They live with the Observability
// port so the loop and the adapters reference one set of names.
const (
	MetricSamplesSentTotal     = "iac_samples_sent_total"
	MetricBacklogDrainedTotal  = "iac_backlog_drained_total"
	MetricBacklogPersistsTotal = "iac_backlog_persists_total"
	MetricConnectFailuresTotal = "iac_connect_failures_total"
	MetricRangeViolationsTotal = "iac_range_violations_total"
	MetricBacklogSizeBytes     = "iac_backlog_size_bytes"
	MetricBacklogPending       = "iac_backlog_pending"
	MetricOffline              = "iac_offline"
	MetricUplinkLatencySeconds = "iac_uplink_latency_seconds"
)

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)
}

type Field struct {
	Key   string
	Value any
}
