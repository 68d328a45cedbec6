package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/flightbridge/pkg/connector/arrowflight"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/json"
)

func newSchemasCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, session := a.session(cmd.Context())
			schemas, err := c.Metadata().ListSchemaNames(ctx, session)
			if err != nil {
				return err
			}
			for _, s := range schemas {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [schema]",
		Short: "List tables of a schema, or of every schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			schema := ""
			if len(args) == 1 {
				schema = args[0]
			}
			ctx, session := a.session(cmd.Context())
			tables, err := c.Metadata().ListTables(ctx, session, schema)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
			}
			return nil
		},
	}
}

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
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
			md, err := c.Metadata().GetTableMetadata(ctx, session, table)
			if err != nil {
				return err
			}
			return printJSON(cmd, md)
		},
	}
}

func newSplitsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "splits <table>",
		Short: "Show the splits a scan of the table would read",
		Args:  cobra.ExactArgs(1),
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
			source, err := c.SplitManager().GetSplits(ctx, session, table)
			if err != nil {
				return err
			}
			defer source.Close()

			var splits []*core.Split
			for !source.IsFinished() {
				batch, err := source.NextBatch(ctx, 100)
				if err != nil {
					return err
				}
				splits = append(splits, batch...)
			}
			return printJSON(cmd, splits)
		},
	}
}

// resolveTable parses "table" or "schema.table" and looks it up
func resolveTable(ctx context.Context, c *arrowflight.Connector, session *core.Session, name string) (*core.TableHandle, error) {
	qualified, err := core.ParseSchemaTableName(name, arrowflight.DefaultSchema)
	if err != nil {
		return nil, err
	}
	return c.Metadata().GetTableHandle(ctx, session, qualified)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
