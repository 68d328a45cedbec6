package arrowflight

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/clients"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
)

// SplitManager plans one split per remote endpoint
type SplitManager struct {
	clients *clients.FlightClientFactory
	logger  *zap.Logger
}

func NewSplitManager(factory *clients.FlightClientFactory, log *zap.Logger) *SplitManager {
	return &SplitManager{
		clients: factory,
		logger:  log.With(zap.String("component", "split_manager")),
	}
}

// GetSplits resolves table and returns all of its splits, or none on failure.
// An endpoint without locations is served by the configured service itself.
func (s *SplitManager) GetSplits(ctx context.Context, session *core.Session, table *core.TableHandle) (core.SplitSource, error) {
	splits, err := s.splits(ctx, session, table)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeRemote, "unable to fetch the details")
	}
	logger.WithContext(ctx, s.logger).Debug("planned splits",
		zap.String("table", table.TableName), zap.Int("splits", len(splits)))
	return core.NewFixedSplitSource(splits), nil
}

func (s *SplitManager) splits(ctx context.Context, session *core.Session, table *core.TableHandle) ([]*core.Split, error) {
	defaultLocation, err := s.clients.DefaultLocation(session)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.Open(ctx, session)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			s.logger.Warn("failed to close flight client", zap.Error(cerr))
		}
	}()

	info, err := client.GetFlightInfo(ctx, table.TableName)
	if err != nil {
		return nil, err
	}

	splits := make([]*core.Split, 0, len(info.GetEndpoint()))
	for _, endpoint := range info.GetEndpoint() {
		locations := make([]string, 0, len(endpoint.GetLocation()))
		for _, loc := range endpoint.GetLocation() {
			locations = append(locations, loc.GetUri())
		}
		if len(locations) == 0 {
			locations = append(locations, defaultLocation.URI())
		}
		splits = append(splits, &core.Split{
			Locations: locations,
			Ticket:    endpoint.GetTicket().GetTicket(),
		})
	}
	return splits, nil
}
