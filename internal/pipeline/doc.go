// Package pipeline drives a connector the way the engine would: it plans splits and
// scans them in parallel, feeds pages into write sinks, and copies one table into another.
//
// # Basic Usage
//
//	scanner := pipeline.NewScanner(conn, pipeline.DefaultConfig(), logger)
//	stats, err := scanner.Scan(ctx, session, table, columns, func(ctx context.Context, page *columnar.Page) error {
//	    // called concurrently from split workers
//	    return nil
//	})
//
//	writer := pipeline.NewWriter(conn, logger)
//	stats, err := writer.CreateTable(ctx, session, tableMetadata, pages)
package pipeline
