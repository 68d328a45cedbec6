package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/flightbridge/internal/pipeline"
	"github.com/ajitpratap0/flightbridge/pkg/connector/arrowflight"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

func newGenerateCommand(a *app) *cobra.Command {
	var rows, pageRows, nullEvery int
	var columnSpec string
	var appendRows bool

	cmd := &cobra.Command{
		Use:   "generate <table>",
		Short: "Write synthetic rows into a new or existing table",
		Long: `Write synthetic rows into a table. Without --append the table is created with
the columns of --columns; with --append rows are inserted using the table's own columns.

Example:
  flightbridge generate events --rows 100000 --columns id:bigint,qty:integer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, session := a.session(cmd.Context())
			name, err := core.ParseSchemaTableName(args[0], arrowflight.DefaultSchema)
			if err != nil {
				return err
			}
			writer := pipeline.NewWriter(c, a.log)

			var stats pipeline.Stats
			if appendRows {
				table, err := c.Metadata().GetTableHandle(ctx, session, name)
				if err != nil {
					return err
				}
				md, err := c.Metadata().GetTableMetadata(ctx, session, table)
				if err != nil {
					return err
				}
				pages, err := pipeline.Generate(ctx, md.Columns, rows, pageRows, nullEvery)
				if err != nil {
					return err
				}
				stats, err = writer.Insert(ctx, session, table, pages)
				if err != nil {
					return err
				}
			} else {
				columns, err := parseColumns(columnSpec)
				if err != nil {
					return err
				}
				pages, err := pipeline.Generate(ctx, columns, rows, pageRows, nullEvery)
				if err != nil {
					return err
				}
				stats, err = writer.CreateTable(ctx, session, &core.TableMetadata{Table: name, Columns: columns}, pages)
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", stats.Rows, name)
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 1000, "Number of rows to write")
	cmd.Flags().IntVar(&pageRows, "page-rows", 1024, "Rows per page handed to the sink")
	cmd.Flags().IntVar(&nullEvery, "null-every", 0, "Make every n-th row null (0 disables nulls)")
	cmd.Flags().StringVar(&columnSpec, "columns", "id:bigint", "Comma separated name:type pairs")
	cmd.Flags().BoolVar(&appendRows, "append", false, "Insert into an existing table")
	return cmd
}

func newCopyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <source> <destination>",
		Short: "Create a table from every row of another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			src, err := core.ParseSchemaTableName(args[0], arrowflight.DefaultSchema)
			if err != nil {
				return err
			}
			dst, err := core.ParseSchemaTableName(args[1], arrowflight.DefaultSchema)
			if err != nil {
				return err
			}

			ctx, session := a.session(cmd.Context())
			scanner := pipeline.NewScanner(c, a.pipelineConfig(), a.log)
			writer := pipeline.NewWriter(c, a.log)
			stats, err := pipeline.Copy(ctx, scanner, writer, session, src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d rows from %s to %s\n", stats.Write.Rows, src, dst)
			return nil
		},
	}
}

// parseColumns parses "id:bigint,qty:integer"
func parseColumns(spec string) ([]core.ColumnMetadata, error) {
	var columns []core.ColumnMetadata
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typeName, ok := strings.Cut(part, ":")
		if !ok || name == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation, "invalid column %q, expected name:type", part)
		}
		t, err := types.Parse(typeName)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid column "+name)
		}
		columns = append(columns, core.ColumnMetadata{Name: name, Type: t})
	}
	if len(columns) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "at least one column is required")
	}
	return columns, nil
}
