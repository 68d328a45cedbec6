package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/json"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
)

// PageHandler receives scanned pages. It is called concurrently from split workers.
type PageHandler func(ctx context.Context, page *columnar.Page) error

// Scanner reads every split of a table with bounded parallelism
type Scanner struct {
	connector core.Connector
	config    *Config
	logger    *zap.Logger
}

// NewScanner creates a scanner over connector
func NewScanner(connector core.Connector, config *Config, log *zap.Logger) *Scanner {
	return &Scanner{
		connector: connector,
		config:    config.withDefaults(),
		logger:    log.With(zap.String("component", "scanner")),
	}
}

// Scan plans the splits of table and streams the requested columns of each one to fn.
// Splits are handed to workers in their serialized form, as they would be shipped to
// remote workers. The first error cancels the remaining splits.
func (s *Scanner) Scan(ctx context.Context, session *core.Session, table *core.TableHandle, columns []*core.ColumnHandle, fn PageHandler) (Stats, error) {
	stats := newCollector()
	log := logger.WithContext(ctx, s.logger).With(zap.String("table", table.TableName))

	source, err := s.connector.SplitManager().GetSplits(ctx, session, table)
	if err != nil {
		return stats.snapshot(), err
	}
	defer source.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallelism)

	var planErr error
	for !source.IsFinished() {
		batch, err := source.NextBatch(gctx, s.config.SplitBatchSize)
		if err != nil {
			planErr = err
			break
		}
		for _, split := range batch {
			encoded, err := json.Marshal(split)
			if err != nil {
				planErr = errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode split")
				break
			}
			id := stats.splits.Add(1)
			g.Go(func() error {
				return s.scanSplit(gctx, session, table, columns, encoded, id, stats, fn)
			})
		}
		if planErr != nil {
			break
		}
	}

	err = g.Wait()
	if err == nil {
		err = planErr
	}
	result := stats.snapshot()
	if err != nil {
		logFailure(log, "scan failed", err, result.Fields()...)
		return result, err
	}
	log.Info("scan completed", result.Fields()...)
	return result, nil
}

func (s *Scanner) scanSplit(ctx context.Context, session *core.Session, table *core.TableHandle, columns []*core.ColumnHandle, encoded []byte, id int64, stats *collector, fn PageHandler) error {
	var split core.Split
	if err := json.Unmarshal(encoded, &split); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to decode split")
	}
	ctx = logger.WithSplit(ctx, fmt.Sprintf("%d", id))

	source, err := s.connector.PageSourceProvider().CreatePageSource(ctx, session, &split, table, columns)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := source.Close(); cerr != nil {
			logger.WithContext(ctx, s.logger).Warn("failed to close page source", zap.Error(cerr))
		}
	}()

	for !source.IsFinished() {
		page, err := source.NextPage(ctx)
		if err != nil {
			return err
		}
		if page == nil {
			continue
		}
		stats.page(page)
		if err := fn(ctx, page); err != nil {
			return err
		}
	}
	logger.WithContext(ctx, s.logger).Debug("split completed",
		zap.Int64("completed_bytes", source.CompletedBytes()))
	return nil
}

// logFailure logs err at warn level when a retry could succeed and at error level otherwise
func logFailure(log *zap.Logger, msg string, err error, fields ...zap.Field) {
	retryable := errors.IsRetryable(err)
	fields = append(fields, zap.Error(err), zap.Bool("retryable", retryable))
	if retryable {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, fields...)
}
