// Package cli implements the insights command line tool. It runs the same
// analytics engine as the API over a JSON export or the configured database.
package cli

import (
	"fmt"
	"os"
	"time"

	"invoicer/internal/analytics"
	"invoicer/internal/config"
	"invoicer/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

type options struct {
	file   string
	seed   uint64
	now    string
	pretty bool

	cfg *config.Config
}

// engine builds an analytics engine from config, overridden by flags
func (o *options) engine(cmd *cobra.Command) (*analytics.Engine, error) {
	opts := analytics.Options{
		Seed: o.cfg.Analytics.Seed,
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = o.seed
	}
	if o.now != "" {
		now, err := analytics.ParseDate(o.now)
		if err != nil {
			return nil, fmt.Errorf("invalid --now date, use YYYY-MM-DD: %w", err)
		}
		opts.Now = func() time.Time { return now }
	}
	return analytics.NewEngine(opts), nil
}

// NewRootCommand assembles the insights command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "insights",
		Short: "Invoice insights from the command line",
		Long: `insights runs payment delay prediction, client risk scoring, anomaly
detection and client segmentation over a set of invoices and prints the
result as JSON.

Invoices are read from --file (a JSON array in the API's invoice format) or,
without --file, from the database configured through DB_* variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			// stdout carries the JSON result
			return logger.Init(cfg.Logging.Level, "console", "stderr")
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "", "Read invoices from a JSON file instead of the database")
	flags.Uint64Var(&opts.seed, "seed", 0, "Random seed for synthetic labels and clustering (overrides ANALYTICS_SEED, 0 = random)")
	flags.StringVar(&opts.now, "now", "", "Evaluate recency and overdue status as of this date (YYYY-MM-DD, default today)")
	flags.BoolVar(&opts.pretty, "pretty", true, "Indent the JSON output")

	root.AddCommand(
		newSummaryCommand(opts),
		newPredictionsCommand(opts),
		newRiskCommand(opts),
		newAnomaliesCommand(opts),
		newSegmentsCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		logger.Named("cli").Error("Command execution failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
