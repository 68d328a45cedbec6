package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
)

// Writer feeds pages into connector page sinks
type Writer struct {
	connector core.Connector
	logger    *zap.Logger
}

// NewWriter creates a writer over connector
func NewWriter(connector core.Connector, log *zap.Logger) *Writer {
	return &Writer{
		connector: connector,
		logger:    log.With(zap.String("component", "writer")),
	}
}

// CreateTable creates table and writes pages into it (create-table-as)
func (w *Writer) CreateTable(ctx context.Context, session *core.Session, table *core.TableMetadata, pages <-chan *columnar.Page) (Stats, error) {
	meta := w.connector.Metadata()
	handle, err := meta.BeginCreateTable(ctx, session, table)
	if err != nil {
		return Stats{}, err
	}
	sink, err := w.connector.PageSinkProvider().CreatePageSink(ctx, session, handle)
	if err != nil {
		return Stats{}, err
	}

	stats, fragments, err := w.Write(ctx, sink, pages)
	if err != nil {
		return stats, err
	}
	return stats, meta.FinishCreateTable(ctx, session, handle, fragments)
}

// Insert appends pages to an existing table
func (w *Writer) Insert(ctx context.Context, session *core.Session, table *core.TableHandle, pages <-chan *columnar.Page) (Stats, error) {
	meta := w.connector.Metadata()
	handle, err := meta.BeginInsert(ctx, session, table)
	if err != nil {
		return Stats{}, err
	}
	sink, err := w.connector.PageSinkProvider().CreateInsertPageSink(ctx, session, handle)
	if err != nil {
		return Stats{}, err
	}

	stats, fragments, err := w.Write(ctx, sink, pages)
	if err != nil {
		return stats, err
	}
	return stats, meta.FinishInsert(ctx, session, handle, fragments)
}

// Write appends every page of pages to sink in order and finishes it once pages is
// closed. On any error, including cancellation of ctx, the sink is aborted.
func (w *Writer) Write(ctx context.Context, sink core.PageSink, pages <-chan *columnar.Page) (Stats, [][]byte, error) {
	stats := newCollector()
	log := logger.WithContext(ctx, w.logger)

	fail := func(err error) (Stats, [][]byte, error) {
		sink.Abort()
		result := stats.snapshot()
		logFailure(log, "write aborted", err, result.Fields()...)
		return result, nil, err
	}

	for {
		var page *columnar.Page
		var ok bool
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		case page, ok = <-pages:
		}
		if !ok {
			break
		}

		blocked, err := sink.AppendPage(ctx, page)
		if err != nil {
			return fail(err)
		}
		stats.page(page)

		select {
		case <-blocked:
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}

	fragments, err := sink.Finish(ctx)
	result := stats.snapshot()
	if err != nil {
		log.Warn("failed to finish write", zap.Error(err))
		return result, nil, err
	}
	log.Info("write completed", result.Fields()...)
	return result, fragments, nil
}

// Pages returns a closed channel holding pages
func Pages(pages ...*columnar.Page) <-chan *columnar.Page {
	ch := make(chan *columnar.Page, len(pages))
	for _, p := range pages {
		ch <- p
	}
	close(ch)
	return ch
}
