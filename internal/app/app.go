// Package app wires the configured providers, the aggregator, the
// optional state store, and the optional REST server into a running
// application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vaneworks/weathervane/internal/log"
	"github.com/vaneworks/weathervane/internal/providers"
	"github.com/vaneworks/weathervane/internal/server"
	"github.com/vaneworks/weathervane/internal/state"
	"github.com/vaneworks/weathervane/pkg/config"
	"go.uber.org/zap"

	// Provider adapters register themselves at init.
	_ "github.com/vaneworks/weathervane/internal/providers/mqttfeed"
	_ "github.com/vaneworks/weathervane/internal/providers/openweathermap"
	_ "github.com/vaneworks/weathervane/internal/providers/weatherflow"
	_ "github.com/vaneworks/weathervane/internal/providers/wunderground"
)

const defaultPollInterval = time.Minute

// App represents the main application
type App struct {
	configProvider config.Provider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.Provider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var store *state.Store
	if cfg.State.Path != "" {
		store, err = state.Open(cfg.State.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var srv *server.Server
	if cfg.Server.Enabled() {
		srv = server.New(a.logger, fmt.Sprintf("%s:%d", cfg.Server.ListenAddr, cfg.Server.Port))
	}

	deps := providers.Deps{Logger: a.logger, State: store}
	aggregator := providers.NewAggregator(a.logger)

	var starters []providers.Starter
	for _, src := range cfg.Sources {
		factory, err := providers.Lookup(src.Type)
		if err != nil {
			return fmt.Errorf("source [%s]: %w", src.Name, err)
		}

		p, err := factory(deps, src)
		if err != nil {
			return err
		}

		if starter, ok := p.(providers.Starter); ok {
			if err := starter.Start(ctx); err != nil {
				return fmt.Errorf("failed to start source [%s]: %w", src.Name, err)
			}
			starters = append(starters, starter)
		}

		if srv != nil {
			srv.RegisterProvider(src.Name, p.Metadata())
		}

		interval := defaultPollInterval
		if src.PollInterval != "" {
			parsed, err := time.ParseDuration(src.PollInterval)
			if err != nil {
				return fmt.Errorf("source [%s]: invalid poll_interval %q: %w", src.Name, src.PollInterval, err)
			}
			interval = parsed
		}

		days := src.ForecastDays
		if days <= 0 {
			days = p.Metadata().ForecastDays
		}

		wg.Add(1)
		go a.pollLoop(ctx, &wg, src.Name, p, aggregator, srv, days, interval)
	}

	if srv != nil {
		if err := srv.Start(ctx); err != nil {
			return err
		}
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()

	for _, starter := range starters {
		if err := starter.Stop(); err != nil {
			a.logger.Errorf("failed to stop listener: %v", err)
		}
	}
	if srv != nil {
		if err := srv.Stop(); err != nil {
			a.logger.Errorf("failed to stop REST server: %v", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}

// pollLoop drives one provider on its polling cadence.  A failed
// invocation is logged and delivers nothing; the next tick retries.
func (a *App) pollLoop(ctx context.Context, wg *sync.WaitGroup, name string, p providers.Provider,
	aggregator *providers.Aggregator, srv *server.Server, days int, interval time.Duration) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		update, err := aggregator.Update(ctx, p, days)
		if err != nil {
			a.logger.Errorf("update failed for source [%s]: %v", name, err)
		} else if srv != nil {
			srv.SetLatest(name, update)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
