package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/internal/memflight"
	"github.com/ajitpratap0/flightbridge/pkg/config"
)

func newServeCommand(a *app) *cobra.Command {
	var address string
	var demoRows, demoPartitions int
	var advertise bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory Flight service",
		Long: `Run an in-memory Arrow Flight service. Tables written with DoPut are kept until
the process exits. With --demo-rows a "demo" table is created at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := a.logLevel
			if level == "" {
				level = "info"
			}
			if err := a.initLogger(config.LoggingConfig{Level: level, Encoding: "console"}); err != nil {
				return err
			}

			opts := []memflight.Option{memflight.WithLogger(a.log)}
			if !advertise {
				opts = append(opts, memflight.WithoutEndpointLocations())
			}
			server := memflight.NewServer(opts...)
			if err := server.Start(address); err != nil {
				return err
			}
			defer server.Shutdown()

			if demoRows > 0 {
				addDemoTable(server, demoRows, demoPartitions)
				a.log.Info("added demo table", zap.Int("rows", demoRows), zap.Int("partitions", demoPartitions))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "serving on %s\n", server.Location())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			a.log.Info("shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "127.0.0.1:8815", "Listen address")
	cmd.Flags().IntVar(&demoRows, "demo-rows", 0, "Rows of the demo table (0 disables it)")
	cmd.Flags().IntVar(&demoPartitions, "demo-partitions", 4, "Endpoints of the demo table")
	cmd.Flags().BoolVar(&advertise, "advertise", true, "Put the server location on every endpoint")
	return cmd
}

// addDemoTable adds "demo" with columns id bigint and bucket integer spread over partitions
func addDemoTable(server *memflight.Server, rows, partitions int) {
	if partitions <= 0 {
		partitions = 1
	}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "bucket", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, nil)

	mem := memory.DefaultAllocator
	parts := make([][]arrow.Record, partitions)
	for p := range parts {
		b := array.NewRecordBuilder(mem, schema)
		ids := b.Field(0).(*array.Int64Builder)
		buckets := b.Field(1).(*array.Int32Builder)
		for r := p; r < rows; r += partitions {
			ids.Append(int64(r))
			buckets.Append(int32(r % 10))
		}
		rec := b.NewRecord()
		b.Release()
		parts[p] = []arrow.Record{rec}
		defer rec.Release()
	}
	server.AddTable("demo", schema, parts...)
}
