// Package loop drives the logger's cycle: sample every active port, decide
// between live transmission, backlog draining, and local persistence, then
// wait out the polling interval. All recoverable errors are absorbed here
// and turned into a mode or backlog decision; nothing recoverable escapes to
// the caller.
package loop

import (
	"context"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

type Loop struct {
	model    *domain.BoardModel
	readings *domain.Readings

	source  ports.AnalogSource
	uplink  ports.Uplink
	backlog ports.Backlog
	ctl     *ModeController
	guard   ports.Watchdog
	obs     ports.Observability

	interval        time.Duration
	maxBacklogBytes int64
}

func New(
	model *domain.BoardModel,
	source ports.AnalogSource,
	uplink ports.Uplink,
	backlog ports.Backlog,
	ctl *ModeController,
	guard ports.Watchdog,
	obs ports.Observability,
	pol ports.Policy,
) *Loop {
	return &Loop{
		model:           model,
		readings:        domain.NewReadings(len(model.Ports)),
		source:          source,
		uplink:          uplink,
		backlog:         backlog,
		ctl:             ctl,
		guard:           guard,
		obs:             obs,
		interval:        pol.PollInterval,
		maxBacklogBytes: pol.MaxBacklogBytes,
	}
}

// Interval returns the current polling interval, which a server suggestion
// may have changed since startup.
func (l *Loop) Interval() time.Duration { return l.interval }

// Run executes cycles until ctx is cancelled. Sampling, connectivity, sends
// and the end-of-cycle wait all block this single control flow; there is no
// parallelism in the data path.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.runCycle(ctx)
	}
}

func (l *Loop) runCycle(ctx context.Context) {
	l.samplePorts()

	start := time.Now()
	snap := l.readings.Snapshot(l.model, start)

	switch {
	case l.ctl.Mode() == ModeOffline:
		l.obs.LogInfo("in offline mode, dumping data to backlog")
		l.persist(snap)
	case !l.ctl.EnsureConnected():
		l.obs.LogInfo("link unavailable, backed up active port data")
		l.persist(snap)
	default:
		l.deliver(start, snap)
	}

	stats := l.backlog.Stats()
	l.obs.SetGauge(ports.MetricBacklogSizeBytes, float64(stats.SizeBytes))
	l.obs.SetGauge(ports.MetricBacklogPending, float64(stats.Pending))

	l.waitRemainder(ctx, start)
}

// samplePorts reads every active port, scales it, applies the range
// sentinels, and refreshes the watchdog after each productive read.
func (l *Loop) samplePorts() {
	for i, p := range l.model.Ports {
		raw, err := l.source.Read(i)
		if err != nil {
			// keep the previous value; a flaky channel must not stall the cycle
			l.obs.LogError("analog read failed", err, ports.Field{Key: "port", Value: p.Name})
			continue
		}

		v := raw * p.Multiplier
		if v > p.RangeCeiling {
			v = domain.ErrHighValue
			l.obs.IncCounter(ports.MetricRangeViolationsTotal, 1)
			l.obs.LogInfo("port value exceeded valid sample range, assigning error value",
				ports.Field{Key: "port", Value: p.Name})
		} else if v < p.RangeFloor {
			v = domain.ErrLowValue
			l.obs.IncCounter(ports.MetricRangeViolationsTotal, 1)
			l.obs.LogInfo("port value is under the valid sample range, assigning error value",
				ports.Field{Key: "port", Value: p.Name})
		}

		l.readings.Set(i, v)
		l.obs.LogInfo("port sampled",
			ports.Field{Key: "port", Value: p.Name},
			ports.Field{Key: "value", Value: v})
		l.guard.Refresh()
	}
}

// deliver drains backlog history first, then sends the live snapshot only
// once no history remains; a live snapshot is never sent ahead of older
// entries.
func (l *Loop) deliver(start time.Time, snap domain.Snapshot) {
	l.drainBacklog(start)

	if l.backlog.HasPending() {
		l.persist(snap)
		return
	}

	t0 := time.Now()
	suggested, err := l.uplink.SendLive(l.model, snap)
	if err != nil {
		l.obs.LogError("could not send data to database", err)
		l.persist(snap)
		return
	}
	l.obs.ObserveLatency(ports.MetricUplinkLatencySeconds, time.Since(t0).Seconds())
	l.obs.IncCounter(ports.MetricSamplesSentTotal, 1)
	l.adoptInterval(suggested)
}

// drainBacklog sends backed-up entries oldest-first while the cycle timer
// has not reached the polling interval. The first failed send ends this
// cycle's drain; the entry stays at the head and is retried next cycle.
func (l *Loop) drainBacklog(start time.Time) {
	for time.Since(start) <= l.interval {
		entry, ok, err := l.backlog.Oldest()
		if err != nil {
			l.obs.LogError("backlog read failed", err)
			return
		}
		if !ok {
			return
		}

		t0 := time.Now()
		suggested, err := l.uplink.SendBacklog(l.model, entry)
		if err != nil {
			l.obs.LogError("failed to transmit backed up data to the database", err)
			return
		}
		l.obs.ObserveLatency(ports.MetricUplinkLatencySeconds, time.Since(t0).Seconds())
		l.adoptInterval(suggested)

		if err := l.backlog.DeleteOldest(); err != nil {
			l.obs.LogCritical("backlog delete failed", err)
			return
		}
		l.obs.IncCounter(ports.MetricBacklogDrainedTotal, 1)
	}
}

func (l *Loop) persist(snap domain.Snapshot) {
	if max := l.maxBacklogBytes; max > 0 {
		if stats := l.backlog.Stats(); stats.SizeBytes >= max {
			l.obs.LogError("backlog above size watermark", nil,
				ports.Field{Key: "size_bytes", Value: stats.SizeBytes},
				ports.Field{Key: "watermark", Value: max})
		}
	}
	if err := l.backlog.Append(snap); err != nil {
		l.obs.LogCritical("backlog append failed, snapshot lost", err)
		return
	}
	l.obs.IncCounter(ports.MetricBacklogPersistsTotal, 1)
}

// adoptInterval applies a positive server-suggested polling interval to all
// subsequent cycles.
func (l *Loop) adoptInterval(suggested time.Duration) {
	if suggested <= 0 || suggested == l.interval {
		return
	}
	l.interval = suggested
	l.obs.LogInfo("sample interval updated by server",
		ports.Field{Key: "interval", Value: suggested.String()})
}

func (l *Loop) waitRemainder(ctx context.Context, start time.Time) {
	remaining := l.interval - time.Since(start)
	if remaining <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(remaining):
	}
}
