// Package memflight is an in-memory Arrow Flight service.
//
// Tables are addressed by path descriptors and hold one partition per DoPut (or per
// AddTable batch group). Each partition is served as its own endpoint, so a table with
// N partitions plans N splits.
package memflight

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ticketSeparator = "#"

type table struct {
	path       []string
	schema     *arrow.Schema
	partitions [][]arrow.Record
}

func (t *table) rows() int64 {
	var n int64
	for _, p := range t.partitions {
		for _, rec := range p {
			n += rec.NumRows()
		}
	}
	return n
}

// Server serves tables from memory
type Server struct {
	flight.BaseFlightServer

	mu     sync.RWMutex
	tables map[string]*table

	allocator         memory.Allocator
	logger            *zap.Logger
	endpointLocations bool

	server flight.Server
}

// Option configures a Server
type Option func(*Server)

// WithAllocator sets the allocator for schemas and received batches
func WithAllocator(mem memory.Allocator) Option {
	return func(s *Server) { s.allocator = mem }
}

// WithLogger sets the server logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithoutEndpointLocations leaves endpoint locations empty, meaning "this service"
func WithoutEndpointLocations() Option {
	return func(s *Server) { s.endpointLocations = false }
}

// NewServer creates an empty server
func NewServer(opts ...Option) *Server {
	s := &Server{
		tables:            make(map[string]*table),
		allocator:         memory.DefaultAllocator,
		logger:            zap.NewNop(),
		endpointLocations: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "memflight"))
	return s
}

// Start listens on addr ("127.0.0.1:0" picks a free port) and serves in the background
func (s *Server) Start(addr string) error {
	s.server = flight.NewServerWithMiddleware(nil)
	if err := s.server.Init(addr); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.server.RegisterFlightService(s)

	go func() {
		if err := s.server.Serve(); err != nil {
			s.logger.Error("flight server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("flight server started", zap.String("address", s.Addr()))
	return nil
}

// Addr returns the listening host:port
func (s *Server) Addr() string {
	return s.server.Addr().String()
}

// Location returns the grpc+tcp location of the server
func (s *Server) Location() string {
	return "grpc+tcp://" + s.Addr()
}

// Shutdown stops serving and releases every stored batch
func (s *Server) Shutdown() {
	if s.server != nil {
		s.server.Shutdown()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tables {
		releasePartitions(t.partitions)
		delete(s.tables, key)
	}
}

// AddTable registers a single-segment table; each element of partitions becomes an endpoint.
// Records are retained by the server.
func (s *Server) AddTable(name string, schema *arrow.Schema, partitions ...[]arrow.Record) {
	s.AddNested([]string{name}, schema, partitions...)
}

// AddNested registers a table under a multi-segment path
func (s *Server) AddNested(path []string, schema *arrow.Schema, partitions ...[]arrow.Record) {
	for _, p := range partitions {
		for _, rec := range p {
			rec.Retain()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := pathKey(path)
	if old, ok := s.tables[key]; ok {
		releasePartitions(old.partitions)
	}
	s.tables[key] = &table{path: path, schema: schema, partitions: partitions}
}

// Rows returns the stored row count of a table and whether the table exists
func (s *Server) Rows(path ...string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[pathKey(path)]
	if !ok {
		return 0, false
	}
	return t.rows(), true
}

// Schema returns the schema of a table
func (s *Server) Schema(path ...string) (*arrow.Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[pathKey(path)]
	if !ok {
		return nil, false
	}
	return t.schema, true
}

// Partitions returns the number of partitions of a table
func (s *Server) Partitions(path ...string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[pathKey(path)]; ok {
		return len(t.partitions)
	}
	return 0
}

func (s *Server) ListFlights(_ *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.tables))
	for key := range s.tables {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	infos := make([]*flight.FlightInfo, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, s.flightInfo(key, s.tables[key]))
	}
	s.mu.RUnlock()

	for _, info := range infos {
		if err := stream.Send(info); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) GetFlightInfo(_ context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	if desc.GetType() != flight.DescriptorPATH {
		return nil, status.Error(codes.InvalidArgument, "only path descriptors are supported")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	key := pathKey(desc.GetPath())
	t, ok := s.tables[key]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "flight %q not found", key)
	}
	return s.flightInfo(key, t), nil
}

// flightInfo must be called with s.mu held
func (s *Server) flightInfo(key string, t *table) *flight.FlightInfo {
	var locations []*flight.Location
	if s.endpointLocations && s.server != nil {
		locations = []*flight.Location{{Uri: s.Location()}}
	}

	endpoints := make([]*flight.FlightEndpoint, len(t.partitions))
	for i := range t.partitions {
		endpoints[i] = &flight.FlightEndpoint{
			Ticket:   &flight.Ticket{Ticket: []byte(key + ticketSeparator + strconv.Itoa(i))},
			Location: locations,
		}
	}

	return &flight.FlightInfo{
		Schema: flight.SerializeSchema(t.schema, s.allocator),
		FlightDescriptor: &flight.FlightDescriptor{
			Type: flight.DescriptorPATH,
			Path: t.path,
		},
		Endpoint:     endpoints,
		TotalRecords: t.rows(),
		TotalBytes:   -1,
	}
}

func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	key, index, err := parseTicket(ticket.GetTicket())
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	s.mu.RLock()
	t, ok := s.tables[key]
	if !ok || index >= len(t.partitions) {
		s.mu.RUnlock()
		return status.Errorf(codes.NotFound, "ticket %q not found", ticket.GetTicket())
	}
	schema := t.schema
	partition := make([]arrow.Record, len(t.partitions[index]))
	for i, rec := range t.partitions[index] {
		rec.Retain()
		partition[i] = rec
	}
	s.mu.RUnlock()
	defer releasePartitions([][]arrow.Record{partition})

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(schema), ipc.WithAllocator(s.allocator))
	for _, rec := range partition {
		if err := writer.Write(rec); err != nil {
			writer.Close()
			return err
		}
	}
	return writer.Close()
}

func (s *Server) DoPut(stream flight.FlightService_DoPutServer) error {
	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.allocator))
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to read put stream: %v", err)
	}
	defer reader.Release()

	desc := reader.LatestFlightDescriptor()
	if desc == nil || desc.GetType() != flight.DescriptorPATH || len(desc.GetPath()) == 0 {
		return status.Error(codes.InvalidArgument, "DoPut requires a path descriptor")
	}

	var partition []arrow.Record
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		partition = append(partition, rec)
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		releasePartitions([][]arrow.Record{partition})
		return status.Errorf(codes.Internal, "failed to read put stream: %v", err)
	}

	if err := s.appendPartition(desc.GetPath(), reader.Schema(), partition); err != nil {
		releasePartitions([][]arrow.Record{partition})
		return err
	}
	s.logger.Debug("stored put",
		zap.Strings("path", desc.GetPath()),
		zap.Int("batches", len(partition)))

	return stream.Send(&flight.PutResult{})
}

func (s *Server) appendPartition(path []string, schema *arrow.Schema, partition []arrow.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pathKey(path)
	t, ok := s.tables[key]
	if !ok {
		t = &table{path: path, schema: schema}
		s.tables[key] = t
	} else if !t.schema.Equal(schema) {
		return status.Errorf(codes.InvalidArgument, "schema of %q does not match existing table", key)
	}
	if len(partition) > 0 {
		t.partitions = append(t.partitions, partition)
	}
	return nil
}

func pathKey(path []string) string {
	return strings.Join(path, "/")
}

func parseTicket(ticket []byte) (string, int, error) {
	raw := string(ticket)
	i := strings.LastIndex(raw, ticketSeparator)
	if i < 0 {
		return "", 0, fmt.Errorf("malformed ticket %q", raw)
	}
	index, err := strconv.Atoi(raw[i+1:])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("malformed ticket %q", raw)
	}
	return raw[:i], index, nil
}

func releasePartitions(partitions [][]arrow.Record) {
	for _, p := range partitions {
		for _, rec := range p {
			rec.Release()
		}
	}
}
