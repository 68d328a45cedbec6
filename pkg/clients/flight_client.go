package clients

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/ajitpratap0/flightbridge/pkg/config"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/metrics"
	"github.com/ajitpratap0/flightbridge/pkg/observability"
)

var sharedAllocator = memory.NewCheckedAllocator(memory.NewGoAllocator())

// SharedAllocator is the process-wide allocator for remote columnar buffers
func SharedAllocator() *memory.CheckedAllocator {
	return sharedAllocator
}

// RecordStream yields the record batches of one DoGet. The record returned by Record
// is valid until the next call to Next.
type RecordStream interface {
	Schema() *arrow.Schema
	Next() bool
	Record() arrow.Record
	Err() error
	Release()
}

// RecordSink sends record batches of one DoPut. Close signals completion and waits
// for the server to acknowledge the stream. Abort cancels the stream instead; after
// either one the other is a no-op.
type RecordSink interface {
	Write(rec arrow.Record) error
	Close() error
	Abort()
}

// FlightClientFactory opens Flight clients against resolved locations. All clients
// share one allocator.
type FlightClientFactory struct {
	provider    LocationProvider
	allocator   memory.Allocator
	tlsConfig   *config.TLSConfig
	compression string
	dialOptions []grpc.DialOption
	logger      *zap.Logger
}

// NewFlightClientFactory creates a factory from cfg. A nil allocator selects SharedAllocator.
func NewFlightClientFactory(cfg *config.FlightConfig, allocator memory.Allocator, logger *zap.Logger, opts ...grpc.DialOption) (*FlightClientFactory, error) {
	provider, err := NewLocationProvider(cfg)
	if err != nil {
		return nil, err
	}
	if allocator == nil {
		allocator = sharedAllocator
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	}
	tlsCfg := cfg.TLS
	return &FlightClientFactory{
		provider:    provider,
		allocator:   allocator,
		tlsConfig:   &tlsCfg,
		compression: cfg.WriteCompression,
		dialOptions: opts,
		logger:      logger.With(zap.String("component", "flight_client_factory")),
	}, nil
}

// Provider returns the factory's location provider
func (f *FlightClientFactory) Provider() LocationProvider {
	return f.provider
}

// Allocator returns the allocator shared by the factory's clients
func (f *FlightClientFactory) Allocator() memory.Allocator {
	return f.allocator
}

// DefaultLocation resolves the configured service location for session
func (f *FlightClientFactory) DefaultLocation(session *core.Session) (Location, error) {
	return f.provider.Location(session)
}

// Open opens a client to the configured service location
func (f *FlightClientFactory) Open(ctx context.Context, session *core.Session) (*FlightClient, error) {
	loc, err := f.provider.Location(session)
	if err != nil {
		return nil, err
	}
	return f.open(ctx, loc)
}

// OpenLocation opens a client to the location uri, typically a split endpoint
func (f *FlightClientFactory) OpenLocation(ctx context.Context, uri string) (*FlightClient, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	return f.open(ctx, loc)
}

func (f *FlightClientFactory) open(ctx context.Context, loc Location) (*FlightClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "context done before connecting")
	}

	creds, err := f.credentials(loc)
	if err != nil {
		return nil, err
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, f.dialOptions...)

	client, err := flight.NewClientWithMiddleware(loc.Target(), nil, nil, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("failed to create client for %s", loc))
	}

	metrics.ActiveClients.Inc()
	f.logger.Debug("opened flight client", zap.String("location", loc.URI()))
	return &FlightClient{
		client:      client,
		location:    loc,
		allocator:   f.allocator,
		compression: f.compression,
		logger:      f.logger.With(zap.String("location", loc.URI())),
	}, nil
}

// credentials are TLS when the location or the provider asks for it
func (f *FlightClientFactory) credentials(loc Location) (credentials.TransportCredentials, error) {
	if !loc.UseTLS() && !f.provider.TLS() {
		return insecure.NewCredentials(), nil
	}

	tlsConfig := &tls.Config{
		ServerName:         f.tlsConfig.ServerName,
		InsecureSkipVerify: f.tlsConfig.SkipVerify, //nolint:gosec // opt-in via tls.skip_verify
		MinVersion:         tls.VersionTLS12,
	}
	if f.tlsConfig.CAPath != "" {
		pem, err := os.ReadFile(f.tlsConfig.CAPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read tls.ca_path")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Newf(errors.ErrorTypeConfig, "no certificates found in %s", f.tlsConfig.CAPath)
		}
		tlsConfig.RootCAs = pool
	}
	return credentials.NewTLS(tlsConfig), nil
}

// FlightClient is one connection to a Flight service
type FlightClient struct {
	client      flight.Client
	location    Location
	allocator   memory.Allocator
	compression string
	logger      *zap.Logger
	closeOnce   sync.Once
	closeErr    error
}

// Location returns the location the client is connected to
func (c *FlightClient) Location() Location {
	return c.location
}

// ListFlights returns every flight the service advertises
func (c *FlightClient) ListFlights(ctx context.Context) ([]*flight.FlightInfo, error) {
	ctx, span := observability.StartSpan(ctx, "ListFlights", observability.LocationAttr(c.location.URI()))
	timer := metrics.NewTimer("ListFlights")

	infos, err := c.listFlights(ctx)

	timer.ObserveRemoteCall(err)
	observability.EndSpan(span, err)
	return infos, err
}

func (c *FlightClient) listFlights(ctx context.Context) ([]*flight.FlightInfo, error) {
	stream, err := c.client.ListFlights(ctx, &flight.Criteria{})
	if err != nil {
		return nil, remoteError(err, "ListFlights failed")
	}

	var infos []*flight.FlightInfo
	for {
		info, err := stream.Recv()
		if err == io.EOF {
			return infos, nil
		}
		if err != nil {
			return nil, remoteError(err, "ListFlights stream failed")
		}
		infos = append(infos, info)
	}
}

// GetFlightInfo describes the flight identified by a path descriptor
func (c *FlightClient) GetFlightInfo(ctx context.Context, path ...string) (*flight.FlightInfo, error) {
	ctx, span := observability.StartSpan(ctx, "GetFlightInfo",
		observability.LocationAttr(c.location.URI()),
		observability.TableAttr(strings.Join(path, "/")))
	timer := metrics.NewTimer("GetFlightInfo")

	info, err := c.client.GetFlightInfo(ctx, &flight.FlightDescriptor{
		Type: flight.DescriptorPATH,
		Path: path,
	})
	if err != nil {
		err = remoteError(err, "GetFlightInfo failed")
	}

	timer.ObserveRemoteCall(err)
	observability.EndSpan(span, err)
	return info, err
}

// Schema decodes the schema carried by info
func (c *FlightClient) Schema(info *flight.FlightInfo) (*arrow.Schema, error) {
	schema, err := flight.DeserializeSchema(info.GetSchema(), c.allocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode flight schema")
	}
	return schema, nil
}

// DoGet starts streaming the batches addressed by ticket. The stream holds its own
// cancellation; releasing it ends the call.
func (c *FlightClient) DoGet(ctx context.Context, ticket []byte) (RecordStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	ctx, span := observability.StartSpan(ctx, "DoGet", observability.LocationAttr(c.location.URI()))
	timer := metrics.NewTimer("DoGet")

	stream, err := c.doGet(ctx, ticket)

	timer.ObserveRemoteCall(err)
	if err != nil {
		observability.EndSpan(span, err)
		cancel()
		return nil, err
	}
	return &getStream{Reader: stream, cancel: cancel, span: span}, nil
}

func (c *FlightClient) doGet(ctx context.Context, ticket []byte) (*flight.Reader, error) {
	stream, err := c.client.DoGet(ctx, &flight.Ticket{Ticket: ticket})
	if err != nil {
		return nil, remoteError(err, "DoGet failed")
	}
	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(c.allocator))
	if err != nil {
		return nil, remoteError(err, "DoGet stream failed")
	}
	return reader, nil
}

// DoPut opens a stream of batches with schema for the flight at path
func (c *FlightClient) DoPut(ctx context.Context, path string, schema *arrow.Schema) (RecordSink, error) {
	ctx, cancel := context.WithCancel(ctx)
	ctx, span := observability.StartSpan(ctx, "DoPut",
		observability.LocationAttr(c.location.URI()),
		observability.TableAttr(path))

	stream, err := c.client.DoPut(ctx)
	if err != nil {
		err = remoteError(err, "DoPut failed")
		observability.EndSpan(span, err)
		cancel()
		return nil, err
	}

	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(c.allocator)}
	switch c.compression {
	case config.CompressionLZ4:
		opts = append(opts, ipc.WithLZ4())
	case config.CompressionZstd:
		opts = append(opts, ipc.WithZstd())
	}
	writer := flight.NewRecordWriter(stream, opts...)
	writer.SetFlightDescriptor(&flight.FlightDescriptor{
		Type: flight.DescriptorPATH,
		Path: []string{path},
	})

	return &putSink{
		writer: writer,
		stream: stream,
		cancel: cancel,
		span:   span,
		timer:  metrics.NewTimer("DoPut"),
	}, nil
}

// Close closes the connection. Safe to call more than once.
func (c *FlightClient) Close() error {
	c.closeOnce.Do(func() {
		metrics.ActiveClients.Dec()
		if err := c.client.Close(); err != nil {
			c.closeErr = errors.Wrap(err, errors.ErrorTypeConnection, "failed to close flight client")
		}
		c.logger.Debug("closed flight client")
	})
	return c.closeErr
}

type getStream struct {
	*flight.Reader
	cancel context.CancelFunc
	span   trace.Span
	once   sync.Once
}

func (s *getStream) Err() error {
	if err := s.Reader.Err(); err != nil {
		return remoteError(err, "DoGet stream failed")
	}
	return nil
}

func (s *getStream) Release() {
	s.once.Do(func() {
		err := s.Reader.Err()
		s.Reader.Release()
		s.cancel()
		observability.EndSpan(s.span, err)
	})
}

type putSink struct {
	writer *flight.Writer
	stream flight.FlightService_DoPutClient
	cancel context.CancelFunc
	span   trace.Span
	timer  *metrics.Timer
	once   sync.Once
	err    error
}

func (s *putSink) Write(rec arrow.Record) error {
	if err := s.writer.Write(rec); err != nil {
		return remoteError(err, "DoPut write failed")
	}
	return nil
}

// Close ends the stream and drains server acknowledgements
func (s *putSink) Close() error {
	s.once.Do(func() {
		s.err = s.finish()
		s.timer.ObserveRemoteCall(s.err)
		s.cancel()
		observability.EndSpan(s.span, s.err)
	})
	return s.err
}

// Abort cancels the stream before CloseSend, so the server never sees a completed put
func (s *putSink) Abort() {
	s.once.Do(func() {
		s.err = errors.New(errors.ErrorTypeRemote, "DoPut aborted")
		s.cancel()
		s.timer.ObserveRemoteCall(s.err)
		observability.EndSpan(s.span, s.err)
	})
}

func (s *putSink) finish() error {
	if err := s.writer.Close(); err != nil {
		return remoteError(err, "DoPut close failed")
	}
	if err := s.stream.CloseSend(); err != nil {
		return remoteError(err, "DoPut close send failed")
	}
	for {
		_, err := s.stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return remoteError(err, "DoPut failed")
		}
	}
}

// remoteError classifies a grpc failure
func remoteError(err error, message string) error {
	errType := errors.ErrorTypeRemote
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			errType = errors.ErrorTypeNotFound
		case codes.Unavailable:
			errType = errors.ErrorTypeConnection
		case codes.DeadlineExceeded:
			errType = errors.ErrorTypeTimeout
		case codes.InvalidArgument:
			errType = errors.ErrorTypeValidation
		}
	}
	return errors.Wrap(err, errType, message)
}

// AllocatedBytes reports the bytes held by mem when it tracks them, 0 otherwise
func AllocatedBytes(mem memory.Allocator) int64 {
	if tracked, ok := mem.(interface{ CurrentAlloc() int }); ok {
		return int64(tracked.CurrentAlloc())
	}
	return 0
}
