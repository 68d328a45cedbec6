package arrowflight

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/clients"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
)

// PageSourceProvider opens a stream at a split's location
type PageSourceProvider struct {
	clients *clients.FlightClientFactory
	maxRows int
	logger  *zap.Logger
}

func NewPageSourceProvider(factory *clients.FlightClientFactory, maxPageRows int, log *zap.Logger) *PageSourceProvider {
	return &PageSourceProvider{
		clients: factory,
		maxRows: maxPageRows,
		logger:  log,
	}
}

// CreatePageSource connects to the split's last location and fetches its ticket.
// Unsupported column types fail before any connection is made.
func (p *PageSourceProvider) CreatePageSource(ctx context.Context, session *core.Session, split *core.Split, table *core.TableHandle, columns []*core.ColumnHandle) (core.PageSource, error) {
	decoders, err := newColumnDecoders(columns)
	if err != nil {
		return nil, err
	}

	uri, err := split.Location()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid split")
	}
	client, err := p.clients.OpenLocation(ctx, uri)
	if err != nil {
		return nil, err
	}

	stream, err := client.DoGet(ctx, split.Ticket)
	if err != nil {
		if cerr := client.Close(); cerr != nil {
			p.logger.Warn("failed to close flight client", zap.Error(cerr))
		}
		return nil, errors.Wrap(err, errors.ErrorTypeRemote, "unable to fetch split "+split.String())
	}

	log := logger.WithContext(ctx, p.logger).With(zap.String("location", uri))
	return newPageSource(table.TableName, stream, decoders, p.maxRows, client.Close, log), nil
}
