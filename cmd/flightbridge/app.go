package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/internal/pipeline"
	"github.com/ajitpratap0/flightbridge/pkg/config"
	"github.com/ajitpratap0/flightbridge/pkg/connector/arrowflight"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
	"github.com/ajitpratap0/flightbridge/pkg/metrics"
	"github.com/ajitpratap0/flightbridge/pkg/observability"
)

// app holds the global flags and whatever a command has set up from them
type app struct {
	configPath     string
	logLevel       string
	metricsAddress string
	parallelism    int

	cfg       *config.FlightConfig
	log       *zap.Logger
	connector *arrowflight.Connector
	tracing   observability.ShutdownFunc
}

// setup loads configuration and starts logging, metrics and tracing. Commands that
// never talk to a service skip it.
func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsAddress != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = a.metricsAddress
	}
	if err := a.initLogger(cfg.Logging); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		a.log.Info("serving metrics", zap.String("address", cfg.Metrics.ListenAddress))
	}

	if cfg.Tracing.Enabled {
		shutdown, err := observability.Init(observability.TracingConfig{
			ServiceName:    "flightbridge",
			ServiceVersion: version,
			SamplingRate:   cfg.Tracing.SampleRate,
			Output:         os.Stderr,
		})
		if err != nil {
			return err
		}
		a.tracing = shutdown
	}

	a.cfg = cfg
	return nil
}

func (a *app) initLogger(cfg config.LoggingConfig) error {
	if err := logger.Init(logger.Config{
		Level:       cfg.Level,
		Encoding:    cfg.Encoding,
		Development: cfg.Development,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return err
	}
	a.log = logger.With(zap.String("component", "flightbridge-cli"))
	return nil
}

// connect returns the connector for the configured service
func (a *app) connect() (*arrowflight.Connector, error) {
	if a.connector != nil {
		return a.connector, nil
	}
	if err := a.setup(); err != nil {
		return nil, err
	}
	c, err := arrowflight.New(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	a.connector = c
	return c, nil
}

// session starts a query: a fresh id on the session and in ctx for log correlation
func (a *app) session(ctx context.Context) (context.Context, *core.Session) {
	id := uuid.NewString()
	session := &core.Session{QueryID: id, User: os.Getenv("USER")}
	return logger.WithQueryID(ctx, id), session
}

func (a *app) pipelineConfig() *pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Parallelism = a.parallelism
	return cfg
}

func (a *app) close(ctx context.Context) error {
	if a.connector != nil {
		_ = a.connector.Shutdown(ctx)
	}
	if a.tracing != nil {
		if err := a.tracing(ctx); err != nil {
			return err
		}
	}
	if a.log != nil {
		_ = logger.Sync()
	}
	return nil
}
