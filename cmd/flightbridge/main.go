package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "flightbridge",
		Short: "flightbridge - query engine bridge to Arrow Flight services",
		Long: `flightbridge exposes the datasets of an Arrow Flight service as tables.
It lists tables, plans splits, scans them in parallel and writes tables through DoPut.`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to the YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides logging.level")
	flags.StringVar(&a.metricsAddress, "metrics-address", "", "Serve prometheus metrics on this address, e.g. :9464")
	flags.IntVar(&a.parallelism, "parallelism", runtime.NumCPU(), "Number of splits scanned at once")

	root.AddCommand(
		newVersionCommand(),
		newConfigCommand(),
		newSchemasCommand(a),
		newTablesCommand(a),
		newDescribeCommand(a),
		newSplitsCommand(a),
		newScanCommand(a),
		newGenerateCommand(a),
		newCopyCommand(a),
		newServeCommand(a),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flightbridge v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
