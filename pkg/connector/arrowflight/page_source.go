package arrowflight

import (
	"context"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/clients"
	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/arrowflight/reader"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/metrics"
)

// scanState is the read position within the current remote batch. The batch is owned
// by the stream and stays valid until the stream advances.
type scanState struct {
	batch    arrow.Record
	rowCount int
	offset   int
	finished bool
}

type columnDecoder struct {
	name   string
	reader reader.ColumnReader
}

func newColumnDecoders(columns []*core.ColumnHandle) ([]columnDecoder, error) {
	decoders := make([]columnDecoder, len(columns))
	for i, c := range columns {
		r, err := reader.ForType(c.ColumnType)
		if err != nil {
			return nil, err
		}
		decoders[i] = columnDecoder{name: c.ColumnName, reader: r}
	}
	return decoders, nil
}

// nextPage produces the page after state. When the current batch is used up it pulls
// exactly one batch from stream; an exhausted stream yields the finished state and no page.
func nextPage(state scanState, stream clients.RecordStream, decoders []columnDecoder, maxRows int) (scanState, *columnar.Page, error) {
	if state.finished {
		return state, nil, nil
	}

	if state.offset >= state.rowCount {
		if !stream.Next() {
			if err := stream.Err(); err != nil {
				return state, nil, errors.Wrap(err, errors.ErrorTypeRemote, "failed to read remote batch")
			}
			return scanState{finished: true}, nil, nil
		}
		batch := stream.Record()
		state = scanState{batch: batch, rowCount: int(batch.NumRows())}
	}

	size := min(maxRows, state.rowCount-state.offset)
	blocks := make([]columnar.Block, len(decoders))
	for i, d := range decoders {
		vec, err := reader.Column(state.batch, d.name)
		if err != nil {
			return state, nil, err
		}
		block, err := d.reader.Read(vec, state.offset, size)
		if err != nil {
			return state, nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode column "+d.name)
		}
		blocks[i] = block
	}

	page, err := columnar.NewPage(size, blocks...)
	if err != nil {
		return state, nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to assemble page")
	}
	state.offset += size
	return state, page, nil
}

// PageSource turns one remote stream into engine pages of at most maxRows rows
type PageSource struct {
	table    string
	stream   clients.RecordStream
	decoders []columnDecoder
	maxRows  int
	state    scanState

	completedBytes int64
	// failed is the first decode or stream error; later calls return it without pulling
	failed    error
	onClose   func() error
	closeOnce sync.Once
	logger    *zap.Logger
}

// NewPageSource wraps stream. It fails with an unsupported type error before touching
// the stream; in that case the caller keeps ownership of stream. onClose runs once on Close.
func NewPageSource(table string, stream clients.RecordStream, columns []*core.ColumnHandle, maxRows int, onClose func() error, log *zap.Logger) (*PageSource, error) {
	decoders, err := newColumnDecoders(columns)
	if err != nil {
		return nil, err
	}
	return newPageSource(table, stream, decoders, maxRows, onClose, log), nil
}

func newPageSource(table string, stream clients.RecordStream, decoders []columnDecoder, maxRows int, onClose func() error, log *zap.Logger) *PageSource {
	if maxRows <= 0 {
		maxRows = 1024
	}
	if onClose == nil {
		onClose = func() error { return nil }
	}
	return &PageSource{
		table:    table,
		stream:   stream,
		decoders: decoders,
		maxRows:  maxRows,
		onClose:  onClose,
		logger:   log.With(zap.String("component", "page_source"), zap.String("table", table)),
	}
}

// NextPage returns the next page, or nil once the stream is exhausted
func (s *PageSource) NextPage(ctx context.Context) (*columnar.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.failed != nil {
		return nil, s.failed
	}

	state, page, err := nextPage(s.state, s.stream, s.decoders, s.maxRows)
	s.state = state
	if err != nil {
		s.failed = err
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	s.completedBytes += page.SizeInBytes()
	metrics.PagesRead.WithLabelValues(s.table).Inc()
	metrics.RowsRead.WithLabelValues(s.table).Add(float64(page.PositionCount()))
	return page, nil
}

func (s *PageSource) IsFinished() bool {
	return s.state.finished
}

// CompletedBytes is the estimated size of all pages returned so far
func (s *PageSource) CompletedBytes() int64 {
	return s.completedBytes
}

// Close releases the stream and runs onClose once. Release failures are logged and
// swallowed.
func (s *PageSource) Close() error {
	s.closeOnce.Do(func() {
		s.stream.Release()
		s.state.batch = nil
		if err := s.onClose(); err != nil {
			s.logger.Warn("failed to close page source", zap.Error(err))
		}
	})
	return nil
}
