// internal/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yoinknow/curve-engine/internal/api"
	"github.com/yoinknow/curve-engine/internal/config"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/engine"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/recorder"
	"github.com/yoinknow/curve-engine/internal/scenario"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/storage/kv"
	"github.com/yoinknow/curve-engine/internal/storage/postgres"
	"github.com/yoinknow/curve-engine/internal/utils/metrics"
	"go.uber.org/zap"
)

// Runner owns every long-lived component of the process.
type Runner struct {
	logger   *zap.Logger
	cfg      *config.Config
	keys     config.Keys
	shutdown *ShutdownHandler

	bus       *events.Bus
	engine    *engine.Engine
	records   storage.RecordStore
	recorder  *recorder.Recorder
	collector *metrics.Collector
	registry  *prometheus.Registry
	server    *api.Server
}

// Option adjusts optional wiring.
type Option func(*options)

type options struct {
	logs api.LogSource
}

// WithLogSource exposes recent log entries through the API.
func WithLogSource(src api.LogSource) Option {
	return func(o *options) { o.logs = src }
}

// New builds the component graph from cfg. Call Close when done.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (r *Runner, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	keys, err := cfg.Keys()
	if err != nil {
		return nil, fmt.Errorf("invalid keys: %w", err)
	}

	r = &Runner{
		logger:   logger.Named("runner"),
		cfg:      cfg,
		keys:     keys,
		shutdown: NewShutdownHandler(logger, 30*time.Second),
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			_ = r.Close()
			r = nil
		}
	}()

	store, err := kv.Open(cfg.Storage.Driver, cfg.Storage.Path, logger)
	if err != nil {
		return nil, err
	}
	r.shutdown.Add("state_store", store)

	r.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.collector = metrics.NewCollector(r.registry)

	r.bus = events.NewBus(logger, cfg.EventBuffer)
	r.collector.Attach(r.bus)

	r.engine, err = engine.New(engine.Config{
		Logger:            logger,
		Store:             store,
		Publisher:         r.bus,
		Clock:             clockwork.NewRealClock(),
		Observer:          r.collector,
		ProgramID:         keys.ProgramID,
		WithdrawAuthority: keys.WithdrawAuthority,
		PlatformAuthority: keys.PlatformAuthority,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Records.Driver != "none" {
		records, err := postgres.Open(cfg.Records.Driver, cfg.Records.DSN, logger)
		if err != nil {
			return nil, err
		}
		r.shutdown.Add("record_store", records)
		if err := records.RunMigrations(); err != nil {
			return nil, err
		}
		r.records = records
		r.recorder = recorder.New(records, r.engine, logger, recorder.DefaultOptions())
		r.recorder.Attach(r.bus)
	}

	// шина закрывается раньше хранилищ и дочищает очередь
	r.shutdown.AddFunc("event_bus", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return r.bus.Shutdown(ctx)
	})

	if cfg.Server.Addr != "" {
		r.server = api.NewServer(cfg.Server.Addr, r.engine, r.registry, logger)
		if o.logs != nil {
			r.server.WithLogs(o.logs)
		}
		r.shutdown.AddFunc("api", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return r.server.Shutdown(ctx)
		})
	}

	return r, nil
}

// Engine exposes the engine for embedding and tests.
func (r *Runner) Engine() *engine.Engine { return r.engine }

// Records returns the record store, nil when records are disabled.
func (r *Runner) Records() storage.RecordStore { return r.records }

// Bootstrap applies the genesis configuration. A store that is already
// initialized keeps its authority; its parameters are rewritten.
func (r *Runner) Bootstrap(ctx context.Context) error {
	g := r.cfg.Genesis
	if _, err := r.engine.Initialize(ctx, r.keys.GenesisAuthority); err != nil {
		if !errors.Is(err, domain.ErrAlreadyInitialized) {
			return fmt.Errorf("initialize: %w", err)
		}
		r.logger.Info("Global config already initialized")
	}

	_, err := r.engine.Configure(ctx, r.keys.GenesisAuthority, engine.Params{
		FeeRecipient:                r.keys.FeeRecipient,
		InitialVirtualTokenReserves: g.InitialVirtualTokenReserves,
		InitialVirtualSolReserves:   g.InitialVirtualSolReserves,
		InitialRealTokenReserves:    g.InitialRealTokenReserves,
		TokenTotalSupply:            g.TokenTotalSupply,
		FeeBasisPoints:              g.FeeBasisPoints,
		FeeShares:                   g.FeeShares,
		BuybacksEnabled:             g.BuybacksEnabled,
		Buyback:                     g.Buyback,
		EarlyBird:                   g.EarlyBird,
	})
	if err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	return nil
}

// Run bootstraps, replays the configured scenario and, when the API is
// enabled, serves until SIGINT/SIGTERM or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Bootstrap(ctx); err != nil {
		return err
	}

	if path := r.cfg.Scenario; path != "" {
		sc, err := scenario.NewLoader(r.logger).Load(path)
		if err != nil {
			return err
		}
		report, err := r.Replay(ctx, sc)
		if err != nil {
			return err
		}
		r.logger.Info("📋 Scenario finished",
			zap.String("name", sc.Name),
			zap.Int("executed", report.Executed),
			zap.Int("failed", report.Failed))
	}

	if r.server == nil {
		return nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- r.server.Start() }()

	select {
	case <-ctx.Done():
		r.logger.Info("📡 Shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	}
}

// Close shuts every component down in reverse start order.
func (r *Runner) Close() error {
	return r.shutdown.Shutdown()
}
