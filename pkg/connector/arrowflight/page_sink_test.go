package arrowflight

import (
	"context"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/testutil"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// recordingSink remembers the row count and first column of every batch
type recordingSink struct {
	rows     []int64
	ids      [][]int64
	closed   int
	aborted  int
	writeErr error
}

func (s *recordingSink) Write(rec arrow.Record) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.rows = append(s.rows, rec.NumRows())
	if col, ok := rec.Column(0).(*array.Int64); ok && col.Len() <= 16 {
		values := make([]int64, col.Len())
		for i := range values {
			if col.IsNull(i) {
				values[i] = -1
				continue
			}
			values[i] = col.Value(i)
		}
		s.ids = append(s.ids, values)
	}
	return nil
}

func (s *recordingSink) Close() error {
	s.closed++
	return nil
}

func (s *recordingSink) Abort() {
	s.aborted++
}

func longPage(t *testing.T, values []int64, nulls []bool) *columnar.Page {
	t.Helper()
	page, err := columnar.NewPage(len(values), columnar.NewLongBlock(values, nulls))
	require.NoError(t, err)
	return page
}

func TestAppendPageThreshold(t *testing.T) {
	page := longPage(t, make([]int64, 10), nil) // 90 bytes

	state, flush := appendPage(sinkState{}, page, 180)
	assert.False(t, flush)
	state, flush = appendPage(state, page, 180)
	assert.False(t, flush, "reaching the threshold exactly does not flush")
	state, flush = appendPage(state, page, 180)
	assert.True(t, flush)
	assert.Equal(t, sinkState{rows: 30, accumulatedBytes: 270}, state)
}

func TestPageSinkFlushesOverThreshold(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	sink := &recordingSink{}
	finished := 0

	// 116509 bigint rows are estimated at 1048581 bytes, so the sixteenth page
	// crosses 16MiB and the remaining four are sent by Finish.
	const rowsPerPage = 116509
	page := longPage(t, make([]int64, rowsPerPage), nil)
	require.Equal(t, int64(1048581), page.SizeInBytes())

	ps, err := NewPageSink("orders", sink, idColumns, mem, 16<<20, func() error {
		finished++
		return nil
	}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 1; i <= 20; i++ {
		blocked, err := ps.AppendPage(ctx, page)
		require.NoError(t, err)
		assert.Equal(t, core.NotBlocked, blocked)
		if i < 16 {
			assert.Empty(t, sink.rows, "page %d", i)
		}
		if i == 16 {
			assert.Equal(t, []int64{16 * rowsPerPage}, sink.rows)
		}
	}

	fragments, err := ps.Finish(ctx)
	require.NoError(t, err)
	assert.Nil(t, fragments)
	assert.Equal(t, []int64{16 * rowsPerPage, 4 * rowsPerPage}, sink.rows)
	assert.Equal(t, 1, sink.closed)
	assert.Equal(t, 1, finished)
}

func TestPageSinkWritesValuesAndNulls(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	sink := &recordingSink{}
	ps, err := NewPageSink("orders", sink, idColumns, mem, 16<<20, nil, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = ps.AppendPage(ctx, longPage(t, []int64{1, 2, 3}, nil))
	require.NoError(t, err)
	_, err = ps.AppendPage(ctx, longPage(t, []int64{4, 0}, []bool{false, true}))
	require.NoError(t, err)

	_, err = ps.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 2, 3, 4, -1}}, sink.ids)
}

func TestPageSinkFinishWithoutRows(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	sink := &recordingSink{}
	ps, err := NewPageSink("orders", sink, idColumns, mem, 16<<20, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = ps.Finish(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sink.rows)
	assert.Equal(t, 1, sink.closed)

	_, err = ps.Finish(context.Background())
	assert.Error(t, err)
}

func TestPageSinkRejectsUnsupportedType(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	columns := []*core.ColumnHandle{{ColumnName: "flag", ColumnType: types.SmallInt}}
	_, err := NewPageSink("orders", &recordingSink{}, columns, mem, 16<<20, nil, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))
}

func TestPageSinkRejectsWrongChannelCount(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	ps, err := NewPageSink("orders", &recordingSink{}, idColumns, mem, 16<<20, nil, zap.NewNop())
	require.NoError(t, err)
	defer ps.Abort()

	page, err := columnar.NewPage(1,
		columnar.NewLongBlock([]int64{1}, nil),
		columnar.NewLongBlock([]int64{2}, nil))
	require.NoError(t, err)

	_, err = ps.AppendPage(context.Background(), page)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestPageSinkWriteFailure(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	sink := &recordingSink{writeErr: fmt.Errorf("stream closed")}
	finished := 0
	ps, err := NewPageSink("orders", sink, idColumns, mem, 8, func() error {
		finished++
		return nil
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = ps.AppendPage(context.Background(), longPage(t, []int64{1, 2}, nil))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRemote))

	_, err = ps.AppendPage(context.Background(), longPage(t, []int64{3}, nil))
	assert.True(t, errors.IsType(err, errors.ErrorTypeRemote), "a failed sink keeps its error")

	ps.Abort()
	ps.Abort()
	assert.Equal(t, 1, finished)
	assert.Zero(t, sink.closed)
	assert.Equal(t, 1, sink.aborted)
}

func TestPageSinkAbortDropsBuffer(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	sink := &recordingSink{}
	finished := 0
	ps, err := NewPageSink("orders", sink, idColumns, mem, 16<<20, func() error {
		finished++
		return nil
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = ps.AppendPage(context.Background(), longPage(t, []int64{1, 2, 3}, nil))
	require.NoError(t, err)
	ps.Abort()

	assert.Empty(t, sink.rows)
	assert.Zero(t, sink.closed)
	assert.Equal(t, 1, sink.aborted)
	assert.Equal(t, 1, finished)

	_, err = ps.AppendPage(context.Background(), longPage(t, []int64{4}, nil))
	assert.Error(t, err)
}

func TestPageSinkMismatchedBlockFailsSink(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	sink := &recordingSink{}
	columns := []*core.ColumnHandle{
		{ColumnName: "id", ColumnType: types.BigInt},
		{ColumnName: "qty", ColumnType: types.Integer},
	}
	ps, err := NewPageSink("orders", sink, columns, mem, 16<<20, nil, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	good, err := columnar.NewPage(1,
		columnar.NewLongBlock([]int64{1}, nil),
		columnar.NewIntBlock([]int32{10}, nil))
	require.NoError(t, err)
	_, err = ps.AppendPage(ctx, good)
	require.NoError(t, err)

	bad, err := columnar.NewPage(1,
		columnar.NewLongBlock([]int64{2}, nil),
		columnar.NewLongBlock([]int64{20}, nil))
	require.NoError(t, err)
	_, err = ps.AppendPage(ctx, bad)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	assert.NotPanics(t, func() {
		_, err = ps.Finish(ctx)
	})
	require.Error(t, err)
	assert.Empty(t, sink.rows)
	assert.Zero(t, sink.closed)
	assert.Equal(t, 1, sink.aborted)
}

func TestPageSinkFinishAfterCancelAborts(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	sink := &recordingSink{}
	ps, err := NewPageSink("orders", sink, idColumns, mem, 16<<20, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = ps.AppendPage(context.Background(), longPage(t, []int64{1}, nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ps.Finish(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.rows)
	assert.Zero(t, sink.closed)
	assert.Equal(t, 1, sink.aborted)
}
