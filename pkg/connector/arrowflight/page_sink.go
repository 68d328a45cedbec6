package arrowflight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/clients"
	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/arrowflight/writer"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/metrics"
)

// sinkState counts what is buffered since the last flush
type sinkState struct {
	rows             int
	accumulatedBytes int64
}

// appendPage accounts for page and reports whether the buffer is now over threshold
func appendPage(state sinkState, page *columnar.Page, threshold int64) (sinkState, bool) {
	state.rows += page.PositionCount()
	state.accumulatedBytes += page.SizeInBytes()
	return state, state.accumulatedBytes > threshold
}

func newColumnEncoders(columns []*core.ColumnHandle) ([]writer.ColumnWriter, *arrow.Schema, error) {
	encoders := make([]writer.ColumnWriter, len(columns))
	for i, c := range columns {
		w, err := writer.ForType(c.ColumnType)
		if err != nil {
			return nil, nil, err
		}
		encoders[i] = w
	}
	schema, err := ToArrowSchema(columns)
	if err != nil {
		return nil, nil, err
	}
	return encoders, schema, nil
}

// PageSink buffers engine pages and sends them as record batches once the buffered
// estimate exceeds the threshold.
type PageSink struct {
	table     string
	builder   *array.RecordBuilder
	encoders  []writer.ColumnWriter
	sink      clients.RecordSink
	threshold int64
	state     sinkState

	onFinish func() error
	done     bool
	// failed is the first append error; a failed sink never flushes again
	failed error
	logger *zap.Logger
}

// NewPageSink creates a sink writing columns to sink. Unsupported column types fail
// before anything is buffered. onFinish runs once, on Finish or Abort.
func NewPageSink(table string, sink clients.RecordSink, columns []*core.ColumnHandle, mem memory.Allocator, threshold int64, onFinish func() error, log *zap.Logger) (*PageSink, error) {
	encoders, schema, err := newColumnEncoders(columns)
	if err != nil {
		return nil, err
	}
	return newPageSink(table, sink, encoders, schema, mem, threshold, onFinish, log), nil
}

func newPageSink(table string, sink clients.RecordSink, encoders []writer.ColumnWriter, schema *arrow.Schema, mem memory.Allocator, threshold int64, onFinish func() error, log *zap.Logger) *PageSink {
	if onFinish == nil {
		onFinish = func() error { return nil }
	}
	return &PageSink{
		table:     table,
		builder:   array.NewRecordBuilder(mem, schema),
		encoders:  encoders,
		sink:      sink,
		threshold: threshold,
		onFinish:  onFinish,
		logger:    log.With(zap.String("component", "page_sink"), zap.String("table", table)),
	}
}

// AppendPage encodes page into the buffer and flushes when over threshold. Encoding is
// synchronous, so the returned signal is always ready. Any error leaves the sink failed:
// later appends and Finish return it, and only Abort is useful.
func (s *PageSink) AppendPage(ctx context.Context, page *columnar.Page) (<-chan struct{}, error) {
	if s.done {
		return nil, errors.New(errors.ErrorTypeInternal, "page sink is already finished")
	}
	if s.failed != nil {
		return nil, s.failed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.encodePage(page); err != nil {
		s.failed = err
		return nil, err
	}
	return core.NotBlocked, nil
}

func (s *PageSink) encodePage(page *columnar.Page) error {
	if page.ChannelCount() != len(s.encoders) {
		return errors.Newf(errors.ErrorTypeValidation,
			"page has %d channels, table has %d columns", page.ChannelCount(), len(s.encoders))
	}
	// every block is checked before the builder is touched so columns stay the same length
	for i, enc := range s.encoders {
		if got := page.Block(i).Type(); got != enc.Type() {
			return errors.Newf(errors.ErrorTypeValidation,
				"channel %d is %s, column is %s", i, got, enc.Type())
		}
	}

	for i, enc := range s.encoders {
		if err := enc.Write(s.builder.Field(i), page.Block(i)); err != nil {
			return err
		}
	}

	state, flush := appendPage(s.state, page, s.threshold)
	s.state = state
	metrics.RowsWritten.WithLabelValues(s.table).Add(float64(page.PositionCount()))

	if flush {
		return s.flush()
	}
	return nil
}

// flush sends the buffered rows as one batch and resets the buffer
func (s *PageSink) flush() error {
	if s.state.rows == 0 {
		return nil
	}

	rec := s.builder.NewRecord()
	defer rec.Release()

	if err := s.sink.Write(rec); err != nil {
		return errors.Wrap(err, errors.ErrorTypeRemote, "failed to send batch")
	}

	metrics.Flushes.WithLabelValues(s.table).Inc()
	metrics.FlushBytes.WithLabelValues(s.table).Add(float64(s.state.accumulatedBytes))
	s.logger.Debug("flushed batch",
		zap.Int("rows", s.state.rows),
		zap.Int64("estimated_bytes", s.state.accumulatedBytes))
	s.state = sinkState{}
	return nil
}

// Finish flushes what is left, completes the remote stream and releases the buffer.
// The remote service owns the result, so there are no fragments. A sink that failed an
// append is aborted instead of flushed.
func (s *PageSink) Finish(ctx context.Context) ([][]byte, error) {
	if s.done {
		return nil, errors.New(errors.ErrorTypeInternal, "page sink is already finished")
	}
	s.done = true

	var result *multierror.Error
	switch {
	case s.failed != nil:
		result = multierror.Append(result, s.failed)
	case ctx.Err() != nil:
		result = multierror.Append(result, ctx.Err())
	default:
		if err := s.flush(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result.ErrorOrNil() == nil {
		if err := s.sink.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, errors.ErrorTypeRemote, "failed to complete remote write"))
		}
	} else {
		s.sink.Abort()
	}
	s.builder.Release()
	if err := s.onFinish(); err != nil {
		result = multierror.Append(result, err)
	}
	return nil, result.ErrorOrNil()
}

// Abort drops the buffer and cancels the remote stream without completing it. Rows
// already flushed are not rolled back.
func (s *PageSink) Abort() {
	if s.done {
		return
	}
	s.done = true
	s.sink.Abort()
	s.builder.Release()
	if err := s.onFinish(); err != nil {
		s.logger.Warn("failed to release page sink", zap.Error(err))
	}
}
