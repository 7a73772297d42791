// Package iaclogger exposes the data logger as an embeddable runtime:
// load a board configuration, wire the default adapters, and run the
// sampling loop, with options to swap any dependency for a custom one.
package iaclogger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghsecuritylab/488-final-project-code/internal/adapters/analog"
	"github.com/ghsecuritylab/488-final-project-code/internal/adapters/backlog"
	"github.com/ghsecuritylab/488-final-project-code/internal/adapters/observability"
	"github.com/ghsecuritylab/488-final-project-code/internal/adapters/uplink"
	"github.com/ghsecuritylab/488-final-project-code/internal/adapters/watchdog"
	"github.com/ghsecuritylab/488-final-project-code/internal/app/loop"
	"github.com/ghsecuritylab/488-final-project-code/internal/boardcfg"
	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	uplink  Uplink
	backlog Backlog
	source  AnalogSource
	guard   Watchdog
	obs     Observability
}

// WithUplink injects a custom uplink implementation (HTTP, Postgres, MQTT, etc.).
func WithUplink(u Uplink) Option {
	return func(o *overrides) {
		o.uplink = u
	}
}

// WithBacklog lets callers bring their own backlog store or reuse an existing one.
func WithBacklog(b Backlog) Option {
	return func(o *overrides) {
		o.backlog = b
	}
}

// WithSource injects a custom analog source (hardware ADC, simulators, replays).
func WithSource(s AnalogSource) Option {
	return func(o *overrides) {
		o.source = s
	}
}

// WithWatchdog overrides the default process-restarting dead-man timer.
func WithWatchdog(w Watchdog) Option {
	return func(o *overrides) {
		o.guard = w
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) Option {
	return func(o *overrides) {
		o.obs = obs
	}
}

// Runtime wires the board model, analog source, uplink, backlog, and the
// sampling loop together and exposes simple lifecycle hooks for embedding
// the logger inside any Go service.
type Runtime struct {
	cfg    *Config
	policy ports.Policy
	model  *domain.BoardModel

	obs     ports.Observability
	uplink  ports.Uplink
	backlog ports.Backlog
	source  ports.AnalogSource
	guard   ports.Watchdog
	ctl     *loop.ModeController
	loop    *loop.Loop

	db          *sql.DB
	sourceClose func(context.Context) error
	backlogStop func() error

	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
	loopDoneCh  chan struct{}
	cancelLoop  context.CancelFunc
}

// New bootstraps the default adapters: the board configuration named in cfg,
// the simulated/IIO/OPC UA analog source, the HTTP or Postgres uplink, the
// file backlog, the restarting watchdog, and Prometheus observability.
// Option values override any dependency. The watchdog stays disarmed until
// the loop's first productive sample.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var ov overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&ov)
		}
	}

	obs := ov.obs
	if obs == nil {
		obs = observability.NewPromObs(slog.Default())
	}

	model := boardcfg.Load(cfg.BoardConfig, slog.Default())
	pol := cfg.Policy()

	r := &Runtime{
		cfg:    cfg,
		policy: pol,
		model:  model,
		obs:    obs,
	}

	if ov.backlog != nil {
		r.backlog = ov.backlog
	} else {
		fb, err := backlog.New(cfg.Backlog.Dir)
		if err != nil {
			return nil, err
		}
		r.backlog = fb
		r.backlogStop = fb.Close
	}

	if err := r.buildUplink(&ov); err != nil {
		return nil, err
	}
	if err := r.buildSource(&ov); err != nil {
		_ = r.closeResources(context.Background())
		return nil, err
	}

	r.guard = ov.guard
	if r.guard == nil {
		timeout := pol.PollInterval * time.Duration(pol.WatchdogMultiple)
		r.guard = watchdog.New(timeout, nil)
	}

	r.ctl = loop.NewModeController(r.uplink, r.obs, pol.RetryBudget)
	r.loop = loop.New(model, r.source, r.uplink, r.backlog, r.ctl, r.guard, r.obs, pol)
	return r, nil
}

// Model returns the parsed board model, mainly for validation tooling.
func (r *Runtime) Model() *domain.BoardModel { return r.model }

// BacklogStats reports current backlog occupancy.
func (r *Runtime) BacklogStats() ports.BacklogStats { return r.backlog.Stats() }

func (r *Runtime) buildUplink(o *overrides) error {
	if o.uplink != nil {
		r.uplink = o.uplink
		return nil
	}
	switch r.cfg.Uplink.Kind {
	case "postgres":
		db, err := sql.Open("postgres", r.cfg.Uplink.ConnString)
		if err != nil {
			return err
		}
		r.db = db
		r.uplink = uplink.NewPGUplink(db)
	default:
		r.uplink = uplink.NewHTTPUplink(r.model, r.cfg.Uplink.Timeout.Std())
	}
	return nil
}

func (r *Runtime) buildSource(o *overrides) error {
	if o.source != nil {
		r.source = o.source
		return nil
	}
	switch r.cfg.Source.Kind {
	case "iio":
		r.source = analog.NewIIOSource(r.cfg.Source.IIODir, r.cfg.Source.IIOBits)
	case "opcua":
		src, err := analog.NewOPCUASource(context.Background(),
			r.cfg.Source.OPCUAEndpoint, r.cfg.Source.OPCUANodes)
		if err != nil {
			return err
		}
		r.source = src
		r.sourceClose = src.Close
	default:
		r.source = analog.NewSimSource()
	}
	return nil
}

// Start decides the initial mode, launches the sampling loop, and brings up
// the observability stack. It returns immediately; call Run to block on a
// context instead.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	mode := r.ctl.Startup(r.model)
	r.obs.LogInfo("logger starting",
		ports.Field{Key: "board_id", Value: r.model.ID},
		ports.Field{Key: "ports", Value: len(r.model.Ports)},
		ports.Field{Key: "mode", Value: mode.String()})

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancelLoop = cancel
	r.loopDoneCh = make(chan struct{})
	go func() {
		_ = r.loop.Run(loopCtx)
		close(r.loopDoneCh)
	}()

	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the loop, disarms the watchdog, and closes the metrics
// server, backlog, and uplink resources.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.cancelLoop != nil {
		r.cancelLoop()
	}
	if r.loopDoneCh != nil {
		select {
		case <-r.loopDoneCh:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}

	r.guard.Stop()

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
	}
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := r.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runtime) closeResources(ctx context.Context) error {
	var errs []error
	if r.backlogStop != nil {
		if err := r.backlogStop(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.sourceClose != nil {
		if err := r.sourceClose(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordBacklogGauges(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordBacklogGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := r.backlog.Stats()
			r.obs.SetGauge(ports.MetricBacklogSizeBytes, float64(stats.SizeBytes))
			r.obs.SetGauge(ports.MetricBacklogPending, float64(stats.Pending))
		}
	}
}
