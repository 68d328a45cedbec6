// Package arrowflight bridges the engine's connector capabilities to an Arrow Flight
// service: catalog lookups, split planning, scans through DoGet and writes through DoPut.
package arrowflight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/ajitpratap0/flightbridge/pkg/clients"
	"github.com/ajitpratap0/flightbridge/pkg/config"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/connector/registry"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
)

// Name is the registry name of the connector
const Name = "arrow-flight"

func init() {
	if err := registry.Register(Name, func(cfg *config.FlightConfig, log *zap.Logger) (core.Connector, error) {
		return New(cfg, log)
	}); err != nil {
		panic(err)
	}
}

// Connector implements core.Connector over one Flight service
type Connector struct {
	clients  *clients.FlightClientFactory
	metadata *Metadata
	splits   *SplitManager
	sources  *PageSourceProvider
	sinks    *PageSinkProvider
	logger   *zap.Logger
}

type options struct {
	allocator   memory.Allocator
	dialOptions []grpc.DialOption
}

// Option configures a Connector
type Option func(*options)

// WithAllocator replaces the shared allocator, e.g. with a checked one in tests
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.allocator = mem }
}

// WithDialOptions adds grpc dial options to every client
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

// New validates cfg and assembles the connector
func New(cfg *config.FlightConfig, log *zap.Logger, opts ...Option) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid arrow flight configuration")
	}
	threshold, err := cfg.BufferLimit()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid max_buffer_size")
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("connector", Name))

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	factory, err := clients.NewFlightClientFactory(cfg, o.allocator, log, o.dialOptions...)
	if err != nil {
		return nil, err
	}

	log.Info("arrow flight connector created",
		zap.String("endpoint", cfg.Endpoint()),
		zap.String("location_provider", string(cfg.LocationProviderType)),
		zap.Int64("max_buffer_size", threshold),
		zap.Int("max_page_rows", cfg.MaxPageRows))

	return &Connector{
		clients:  factory,
		metadata: NewMetadata(factory, log),
		splits:   NewSplitManager(factory, log),
		sources:  NewPageSourceProvider(factory, cfg.MaxPageRows, log),
		sinks:    NewPageSinkProvider(factory, threshold, log),
		logger:   log,
	}, nil
}

func (c *Connector) Metadata() core.Metadata { return c.metadata }

func (c *Connector) SplitManager() core.SplitManager { return c.splits }

func (c *Connector) PageSourceProvider() core.PageSourceProvider { return c.sources }

func (c *Connector) PageSinkProvider() core.PageSinkProvider { return c.sinks }

// Catalog returns the concrete catalog resolver
func (c *Connector) Catalog() *Metadata { return c.metadata }

// Shutdown logs what the allocator still holds. Clients are scoped to calls, so there
// is nothing else to close.
func (c *Connector) Shutdown(context.Context) error {
	c.logger.Info("arrow flight connector shut down",
		zap.Int64("allocated_bytes", clients.AllocatedBytes(c.clients.Allocator())))
	return nil
}
