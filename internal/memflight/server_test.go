package memflight

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/ajitpratap0/flightbridge/pkg/testutil"
)

var ordersSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "qty", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
}, nil)

func startServer(t *testing.T, opts ...Option) (*Server, flight.Client) {
	t.Helper()
	srv := NewServer(append([]Option{WithLogger(testutil.TestLogger(t))}, opts...)...)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	t.Cleanup(srv.Shutdown)

	client, err := flight.NewClientWithMiddleware(srv.Addr(), nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return srv, client
}

func TestListAndDescribe(t *testing.T) {
	mem := memory.NewGoAllocator()
	srv, client := startServer(t)

	rec := testutil.IntRecord(t, mem, ordersSchema, testutil.Sequence(1, 3), []any{10, nil, 30})
	defer rec.Release()
	srv.AddTable("orders", ordersSchema, []arrow.Record{rec}, []arrow.Record{rec})
	srv.AddNested([]string{"db", "nested"}, ordersSchema)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := client.ListFlights(ctx, &flight.Criteria{})
	require.NoError(t, err)
	var paths [][]string
	for {
		info, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		paths = append(paths, info.GetFlightDescriptor().GetPath())
	}
	assert.Equal(t, [][]string{{"db", "nested"}, {"orders"}}, paths)

	info, err := client.GetFlightInfo(ctx, &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"orders"}})
	require.NoError(t, err)
	assert.Len(t, info.Endpoint, 2)
	assert.Equal(t, int64(6), info.TotalRecords)
	assert.Equal(t, srv.Location(), info.Endpoint[0].Location[0].Uri)

	schema, err := flight.DeserializeSchema(info.Schema, mem)
	require.NoError(t, err)
	assert.True(t, schema.Equal(ordersSchema))

	_, err = client.GetFlightInfo(ctx, &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"missing"}})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestEndpointsWithoutLocations(t *testing.T) {
	srv, client := startServer(t, WithoutEndpointLocations())
	rec := testutil.IntRecord(t, memory.NewGoAllocator(), ordersSchema, []any{1}, []any{2})
	defer rec.Release()
	srv.AddTable("orders", ordersSchema, []arrow.Record{rec})

	info, err := client.GetFlightInfo(context.Background(), &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"orders"}})
	require.NoError(t, err)
	require.Len(t, info.Endpoint, 1)
	assert.Empty(t, info.Endpoint[0].Location)
}

func TestPutThenGet(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	srv, client := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	put, err := client.DoPut(ctx)
	require.NoError(t, err)
	writer := flight.NewRecordWriter(put, ipc.WithSchema(ordersSchema), ipc.WithAllocator(mem))
	writer.SetFlightDescriptor(&flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"orders"}})
	for i := 0; i < 2; i++ {
		rec := testutil.IntRecord(t, mem, ordersSchema, testutil.Sequence(int64(i*10), 10), testutil.Sequence(0, 10))
		require.NoError(t, writer.Write(rec))
		rec.Release()
	}
	require.NoError(t, writer.Close())
	require.NoError(t, put.CloseSend())
	for {
		_, err := put.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	rows, ok := srv.Rows("orders")
	require.True(t, ok)
	assert.Equal(t, int64(20), rows)
	assert.Equal(t, 1, srv.Partitions("orders"))

	info, err := client.GetFlightInfo(ctx, &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"orders"}})
	require.NoError(t, err)
	get, err := client.DoGet(ctx, info.Endpoint[0].Ticket)
	require.NoError(t, err)
	reader, err := flight.NewRecordReader(get, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer reader.Release()

	var total int64
	for reader.Next() {
		total += reader.Record().NumRows()
	}
	require.NoError(t, reader.Err())
	assert.Equal(t, int64(20), total)
}

func TestParseTicket(t *testing.T) {
	key, index, err := parseTicket([]byte("db/orders#3"))
	require.NoError(t, err)
	assert.Equal(t, "db/orders", key)
	assert.Equal(t, 3, index)

	for _, bad := range []string{"orders", "orders#x", "orders#-1"} {
		_, _, err := parseTicket([]byte(bad))
		assert.Error(t, err, bad)
	}
}
