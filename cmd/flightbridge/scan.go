package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/flightbridge/internal/pipeline"
	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	ferrors "github.com/ajitpratap0/flightbridge/pkg/errors"
)

var errLimitReached = errors.New("row limit reached")

func newScanCommand(a *app) *cobra.Command {
	var columnNames []string
	var limit int
	var countOnly bool

	cmd := &cobra.Command{
		Use:   "scan <table>",
		Short: "Read every split of a table",
		Long: `Read every split of a table in parallel and print its rows, tab separated.
Rows of different splits interleave in no particular order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, session := a.session(cmd.Context())
			table, err := resolveTable(ctx, c, session, args[0])
			if err != nil {
				return err
			}
			columns, err := selectColumns(ctx, c.Metadata(), session, table, columnNames)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !countOnly {
				names := make([]string, len(columns))
				for i, col := range columns {
					names[i] = col.ColumnName
				}
				fmt.Fprintln(out, strings.Join(names, "\t"))
			}

			var mu sync.Mutex
			printed := 0
			scanner := pipeline.NewScanner(c, a.pipelineConfig(), a.log)
			stats, err := scanner.Scan(ctx, session, table, columns, func(_ context.Context, page *columnar.Page) error {
				if countOnly {
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				remaining := -1
				if limit >= 0 {
					remaining = limit - printed
				}
				for _, line := range formatRows(page, remaining) {
					fmt.Fprintln(out, line)
					printed++
				}
				if limit >= 0 && printed >= limit {
					return errLimitReached
				}
				return nil
			})
			if err != nil && !errors.Is(err, errLimitReached) {
				return err
			}
			if countOnly {
				fmt.Fprintln(out, stats.Rows)
			}
			a.log.Info("scan finished", stats.Fields()...)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&columnNames, "columns", nil, "Columns to read, in order (default: all)")
	cmd.Flags().IntVar(&limit, "limit", -1, "Stop after printing this many rows")
	cmd.Flags().BoolVar(&countOnly, "count", false, "Only print the number of rows")
	return cmd
}

// selectColumns returns the handles of names in order, or every column when names is empty
func selectColumns(ctx context.Context, meta core.Metadata, session *core.Session, table *core.TableHandle, names []string) ([]*core.ColumnHandle, error) {
	md, err := meta.GetTableMetadata(ctx, session, table)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*core.ColumnHandle, len(md.Columns))
	all := make([]*core.ColumnHandle, len(md.Columns))
	for i, c := range md.Columns {
		all[i] = &core.ColumnHandle{ColumnName: c.Name, ColumnType: c.Type}
		byName[c.Name] = all[i]
	}
	if len(names) == 0 {
		return all, nil
	}

	selected := make([]*core.ColumnHandle, len(names))
	for i, name := range names {
		h, ok := byName[name]
		if !ok {
			return nil, ferrors.Newf(ferrors.ErrorTypeNotFound, "column %q not found in %s", name, table.TableName)
		}
		selected[i] = h
	}
	return selected, nil
}
