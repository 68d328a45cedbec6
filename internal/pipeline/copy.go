package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
)

// CopyStats reports both halves of a copy
type CopyStats struct {
	Scan  Stats `json:"scan"`
	Write Stats `json:"write"`
}

// Copy creates dst with the columns of src and fills it with every row of src.
// Pages flow from the parallel scan to a single sink; if either side fails the sink
// is aborted.
func Copy(ctx context.Context, scanner *Scanner, writer *Writer, session *core.Session, src, dst core.SchemaTableName) (CopyStats, error) {
	var stats CopyStats
	meta := scanner.connector.Metadata()

	table, err := meta.GetTableHandle(ctx, session, src)
	if err != nil {
		return stats, err
	}
	source, err := meta.GetTableMetadata(ctx, session, table)
	if err != nil {
		return stats, err
	}
	columns := make([]*core.ColumnHandle, len(source.Columns))
	for i, c := range source.Columns {
		columns[i] = &core.ColumnHandle{ColumnName: c.Name, ColumnType: c.Type}
	}

	g, gctx := errgroup.WithContext(ctx)
	pages := make(chan *columnar.Page, scanner.config.PageBuffer)

	g.Go(func() error {
		scanStats, err := scanner.Scan(gctx, session, table, columns, func(ctx context.Context, page *columnar.Page) error {
			select {
			case pages <- page:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		stats.Scan = scanStats
		// a closed channel tells the writer to commit, so only close on success
		if err == nil {
			close(pages)
		}
		return err
	})
	g.Go(func() error {
		writeStats, err := writer.CreateTable(gctx, session, &core.TableMetadata{Table: dst, Columns: source.Columns}, pages)
		stats.Write = writeStats
		return err
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	logger.WithContext(ctx, writer.logger).Info("copy completed",
		zap.String("source", src.String()),
		zap.String("destination", dst.String()),
		zap.Int64("rows", stats.Write.Rows))
	return stats, nil
}
