// Command paydash-snapshot runs the payments pipeline once and prints the
// dashboard figures as tables, for cron jobs and quick checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"paydash/internal/aggregator"
	"paydash/internal/cli"
	"paydash/internal/config"
	"paydash/internal/log"

	"github.com/spf13/cobra"
)

type options struct {
	backend   string
	sourceURL string
	seedFile  string
	top       int
	timeout   time.Duration
	jsonOut   bool
	verbose   bool
}

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "paydash-snapshot",
		Short: "Fetch the payments sheet once and print the dashboard",
		Long: `paydash-snapshot reads the configured payments source once, normalizes
the rows and prints the same figures the web dashboard shows.

Configuration comes from the environment (see .env.example); flags override it.

Examples:
  paydash-snapshot                              # Use SOURCE_BACKEND and friends
  paydash-snapshot --backend memory             # Built-in sample data
  paydash-snapshot --source-url https://...     # Published CSV export
  paydash-snapshot --json                       # Raw snapshot as JSON`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("backend") {
				cfg.SourceBackend = opts.backend
			}
			if cmd.Flags().Changed("source-url") {
				cfg.SourceURL = opts.sourceURL
				if !cmd.Flags().Changed("backend") {
					cfg.SourceBackend = "csv"
				}
			}
			if cmd.Flags().Changed("seed-file") {
				cfg.SeedFile = opts.seedFile
			}
			if cmd.Flags().Changed("top") {
				cfg.TopClients = opts.top
			}
			if cmd.Flags().Changed("timeout") {
				cfg.FetchTimeout = opts.timeout
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			}
			return runSnapshot(cmd.Context(), cfg, opts.jsonOut, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.backend, "backend", "", "source backend (csv, sheets, memory)")
	flags.StringVar(&opts.sourceURL, "source-url", "", "published CSV export URL (implies --backend csv)")
	flags.StringVar(&opts.seedFile, "seed-file", "", "CSV file for the memory backend")
	flags.IntVar(&opts.top, "top", 10, "number of top clients to list")
	flags.DurationVar(&opts.timeout, "timeout", 15*time.Second, "fetch timeout")
	flags.BoolVar(&opts.jsonOut, "json", false, "print the snapshot as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func runSnapshot(ctx context.Context, cfg *config.Config, jsonOut bool, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Logs go to stderr so stdout stays parseable.
	logger := cli.SetupLogger(cfg, stderr)
	if err := cfg.Validate(); err != nil {
		return err
	}

	result, cleanup, err := cli.InitReader(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	agg := aggregator.New(result.Reader, aggregator.Config{FetchTimeout: cfg.FetchTimeout}, logger)
	defer func() {
		if err := agg.Stop(context.Background()); err != nil {
			logger.Warn("Aggregator stop failed", log.FieldError, err)
		}
	}()

	snap, runErr := agg.Refresh(ctx)
	if jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
	} else if err := cli.RenderSnapshot(stdout, snap, agg.Source(), cfg.TopClients); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("refresh failed: %s", snap.Error)
	}
	return nil
}
