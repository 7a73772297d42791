package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

type PromObs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(logger *slog.Logger) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}

	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricSamplesSentTotal,
		Help: "Snapshots delivered live to the remote database.",
	})
	drained := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricBacklogDrainedTotal,
		Help: "Backlog entries delivered and deleted from durable storage.",
	})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricBacklogPersistsTotal,
		Help: "Snapshots persisted to the backlog instead of sent.",
	})
	connectFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricConnectFailuresTotal,
		Help: "Failed uplink connect attempts.",
	})
	rangeViolations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricRangeViolationsTotal,
		Help: "Samples replaced by an out-of-range sentinel.",
	})
	backlogSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricBacklogSizeBytes,
		Help: "Size of the backlog log on disk.",
	})
	backlogPending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricBacklogPending,
		Help: "Undelivered entries in the backlog.",
	})
	offline := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricOffline,
		Help: "1 while the logger runs in offline mode.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricUplinkLatencySeconds,
		Help:    "Latency of one uplink send, live or backlog.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(sent, drained, persisted, connectFailures,
		rangeViolations, backlogSize, backlogPending, offline, latency)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricSamplesSentTotal:     sent,
			ports.MetricBacklogDrainedTotal:  drained,
			ports.MetricBacklogPersistsTotal: persisted,
			ports.MetricConnectFailuresTotal: connectFailures,
			ports.MetricRangeViolationsTotal: rangeViolations,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricBacklogSizeBytes: backlogSize,
			ports.MetricBacklogPending:   backlogPending,
			ports.MetricOffline:          offline,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricUplinkLatencySeconds: latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(attrs(fields), slog.Any("error", err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(attrs(fields), slog.Any("error", err), slog.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
