package pipeline

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/flightbridge/internal/memflight"
	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/config"
	"github.com/ajitpratap0/flightbridge/pkg/connector/arrowflight"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/testutil"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

var ordersSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "qty", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
}, nil)

type PipelineSuite struct {
	testutil.IntegrationTestSuite
	server    *memflight.Server
	connector *arrowflight.Connector
	session   *core.Session
	scanner   *Scanner
	writer    *Writer
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.IntegrationTestSuite.SetupTest()
	s.session = &core.Session{QueryID: "pipeline-test"}

	s.server = memflight.NewServer(memflight.WithAllocator(s.Allocator()))
	s.Require().NoError(s.server.Start("127.0.0.1:0"))

	host, port, err := net.SplitHostPort(s.server.Addr())
	s.Require().NoError(err)
	cfg := config.NewFlightConfig()
	cfg.ServerAddress = host
	cfg.ServerPort, err = strconv.Atoi(port)
	s.Require().NoError(err)
	cfg.MaxPageRows = 100

	log := testutil.TestLogger(s.T())
	s.connector, err = arrowflight.New(cfg, log, arrowflight.WithAllocator(s.Allocator()))
	s.Require().NoError(err)
	s.scanner = NewScanner(s.connector, &Config{Parallelism: 2, SplitBatchSize: 1}, log)
	s.writer = NewWriter(s.connector, log)
}

func (s *PipelineSuite) TearDownTest() {
	s.server.Shutdown()
	s.IntegrationTestSuite.TearDownTest()
}

func (s *PipelineSuite) addOrders(name string, sizes ...int) {
	partitions := make([][]arrow.Record, len(sizes))
	var next int64
	for i, n := range sizes {
		ids := testutil.Sequence(next, n)
		rec := testutil.IntRecord(s.T(), s.Allocator(), ordersSchema, ids, ids)
		defer rec.Release()
		partitions[i] = []arrow.Record{rec}
		next += int64(n)
	}
	s.server.AddTable(name, ordersSchema, partitions...)
}

// collect scans table and returns its sorted ids
func (s *PipelineSuite) collect(table string) ([]int64, Stats) {
	var mu sync.Mutex
	var ids []int64
	columns := []*core.ColumnHandle{{ColumnName: "id", ColumnType: types.BigInt}}
	stats, err := s.scanner.Scan(s.Context(), s.session, &core.TableHandle{TableName: table}, columns,
		func(_ context.Context, page *columnar.Page) error {
			block := page.Block(0).(*columnar.LongBlock)
			mu.Lock()
			defer mu.Unlock()
			for i := 0; i < block.PositionCount(); i++ {
				ids = append(ids, block.Value(i))
			}
			return nil
		})
	s.Require().NoError(err)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, stats
}

func sequence(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}

func (s *PipelineSuite) TestScanAllSplits() {
	s.addOrders("orders", 250, 10, 140)

	ids, stats := s.collect("orders")
	s.Equal(sequence(400), ids)
	s.Equal(int64(3), stats.Splits)
	s.Equal(int64(400), stats.Rows)
	// pages hold at most 100 rows: 3 + 1 + 2
	s.Equal(int64(6), stats.Pages)
}

func (s *PipelineSuite) TestScanStopsOnHandlerError() {
	s.addOrders("orders", 300, 300, 300)

	boom := fmt.Errorf("handler failed")
	columns := []*core.ColumnHandle{{ColumnName: "id", ColumnType: types.BigInt}}
	_, err := s.scanner.Scan(s.Context(), s.session, &core.TableHandle{TableName: "orders"}, columns,
		func(context.Context, *columnar.Page) error { return boom })
	s.ErrorIs(err, boom)
}

func (s *PipelineSuite) TestScanMissingTable() {
	columns := []*core.ColumnHandle{{ColumnName: "id", ColumnType: types.BigInt}}
	_, err := s.scanner.Scan(s.Context(), s.session, &core.TableHandle{TableName: "missing"}, columns,
		func(context.Context, *columnar.Page) error { return nil })
	s.True(errors.IsType(err, errors.ErrorTypeRemote))
}

func (s *PipelineSuite) TestCreateTableAndInsert() {
	table := &core.TableMetadata{
		Table: core.SchemaTableName{Schema: arrowflight.DefaultSchema, Table: "events"},
		Columns: []core.ColumnMetadata{
			{Name: "id", Type: types.BigInt},
			{Name: "qty", Type: types.Integer},
		},
	}
	page := func(start int64, n int) *columnar.Page {
		ids := make([]int64, n)
		qty := make([]int32, n)
		for i := range ids {
			ids[i] = start + int64(i)
			qty[i] = int32(i)
		}
		p, err := columnar.NewPage(n, columnar.NewLongBlock(ids, nil), columnar.NewIntBlock(qty, nil))
		s.Require().NoError(err)
		return p
	}

	stats, err := s.writer.CreateTable(s.Context(), s.session, table, Pages(page(0, 50), page(50, 50)))
	s.Require().NoError(err)
	s.Equal(int64(100), stats.Rows)
	s.Equal(int64(2), stats.Pages)

	stats, err = s.writer.Insert(s.Context(), s.session, &core.TableHandle{TableName: "events"}, Pages(page(100, 20)))
	s.Require().NoError(err)
	s.Equal(int64(20), stats.Rows)

	ids, _ := s.collect("events")
	s.Equal(sequence(120), ids)
	s.Equal(2, s.server.Partitions("events"))
}

func (s *PipelineSuite) TestWriteAbortsOnCancel() {
	table := &core.TableMetadata{
		Table:   core.SchemaTableName{Schema: arrowflight.DefaultSchema, Table: "events"},
		Columns: []core.ColumnMetadata{{Name: "id", Type: types.BigInt}},
	}
	ctx, cancel := context.WithCancel(s.Context())
	pages := make(chan *columnar.Page)
	done := make(chan error, 1)
	go func() {
		_, err := s.writer.CreateTable(ctx, s.session, table, pages)
		done <- err
	}()

	p, err := columnar.NewPage(1, columnar.NewLongBlock([]int64{1}, nil))
	s.Require().NoError(err)
	pages <- p
	cancel()

	s.ErrorIs(<-done, context.Canceled)
	_, ok := s.server.Rows("events")
	s.False(ok)
}

func (s *PipelineSuite) TestCopy() {
	s.addOrders("orders", 120, 80, 200)
	src := core.SchemaTableName{Schema: arrowflight.DefaultSchema, Table: "orders"}
	dst := core.SchemaTableName{Schema: arrowflight.DefaultSchema, Table: "orders_copy"}

	stats, err := Copy(s.Context(), s.scanner, s.writer, s.session, src, dst)
	s.Require().NoError(err)
	s.Equal(int64(400), stats.Scan.Rows)
	s.Equal(int64(400), stats.Write.Rows)

	schema, ok := s.server.Schema("orders_copy")
	s.Require().True(ok)
	s.True(schema.Equal(ordersSchema))

	ids, _ := s.collect("orders_copy")
	s.Equal(sequence(400), ids)
}

func (s *PipelineSuite) TestCopyMissingSource() {
	src := core.SchemaTableName{Schema: arrowflight.DefaultSchema, Table: "missing"}
	dst := core.SchemaTableName{Schema: arrowflight.DefaultSchema, Table: "copy"}

	_, err := Copy(s.Context(), s.scanner, s.writer, s.session, src, dst)
	s.True(errors.IsType(err, errors.ErrorTypeNotFound))
	_, ok := s.server.Rows("copy")
	s.False(ok)
}

func (s *PipelineSuite) TestPagesChannel() {
	p, err := columnar.NewPage(0)
	s.Require().NoError(err)
	ch := Pages(p, p)
	s.Len(ch, 2)
	<-ch
	<-ch
	_, ok := <-ch
	s.False(ok)
}
