package arrowflight

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/clients"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
	"github.com/ajitpratap0/flightbridge/pkg/metrics"
)

// PageSinkProvider opens DoPut streams for create-table-as and insert
type PageSinkProvider struct {
	clients   *clients.FlightClientFactory
	threshold int64
	logger    *zap.Logger
}

func NewPageSinkProvider(factory *clients.FlightClientFactory, threshold int64, log *zap.Logger) *PageSinkProvider {
	return &PageSinkProvider{
		clients:   factory,
		threshold: threshold,
		logger:    log,
	}
}

func (p *PageSinkProvider) CreatePageSink(ctx context.Context, session *core.Session, handle *core.OutputTableHandle) (core.PageSink, error) {
	return p.create(ctx, session, handle.TableHandle, handle.ColumnHandles)
}

func (p *PageSinkProvider) CreateInsertPageSink(ctx context.Context, session *core.Session, handle *core.InsertTableHandle) (core.PageSink, error) {
	return p.create(ctx, session, handle.TableHandle, handle.ColumnHandles)
}

func (p *PageSinkProvider) create(ctx context.Context, session *core.Session, table *core.TableHandle, columns []*core.ColumnHandle) (core.PageSink, error) {
	encoders, schema, err := newColumnEncoders(columns)
	if err != nil {
		return nil, err
	}

	client, err := p.clients.Open(ctx, session)
	if err != nil {
		return nil, err
	}
	sink, err := client.DoPut(ctx, table.TableName, schema)
	if err != nil {
		if cerr := client.Close(); cerr != nil {
			p.logger.Warn("failed to close flight client", zap.Error(cerr))
		}
		return nil, err
	}

	log := logger.WithContext(ctx, p.logger)
	mem := p.clients.Allocator()
	onFinish := func() error {
		err := client.Close()
		allocated := clients.AllocatedBytes(mem)
		metrics.AllocatorBytes.Set(float64(allocated))
		log.Debug("page sink released", zap.Int64("allocated_bytes", allocated))
		return err
	}
	return newPageSink(table.TableName, sink, encoders, schema, mem, p.threshold, onFinish, log), nil
}
