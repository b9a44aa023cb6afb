package cli

import (
	"encoding/json"
	"io"

	"invoicer/internal/analytics"
	"invoicer/internal/service"
	"invoicer/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runner computes one result from the loaded snapshot
type runner func(cmd *cobra.Command, engine *analytics.Engine, invoices []analytics.Invoice) (any, error)

func (o *options) run(fn runner) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		engine, err := o.engine(cmd)
		if err != nil {
			return err
		}
		invoices, err := o.load(cmd.Context())
		if err != nil {
			return err
		}
		logger.Named("cli").Debug("Snapshot loaded",
			zap.String("command", cmd.Name()),
			zap.Int("invoices", len(invoices)),
		)

		result, err := fn(cmd, engine, invoices)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result, o.pretty)
	}
}

func newSummaryCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Dashboard figures over every component",
		Args:  cobra.NoArgs,
		RunE: o.run(func(_ *cobra.Command, engine *analytics.Engine, invoices []analytics.Invoice) (any, error) {
			return engine.Summary(invoices), nil
		}),
	}
}

func newPredictionsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "predictions",
		Short: "Predict the payment delay of every unpaid invoice",
		Args:  cobra.NoArgs,
		RunE: o.run(func(_ *cobra.Command, engine *analytics.Engine, invoices []analytics.Invoice) (any, error) {
			predictions, training := engine.PaymentPredictions(invoices)
			if training.SyntheticLabels > 0 {
				logger.Named("cli").Warn("Predictions rely on synthetic payment delays",
					zap.Int("synthetic", training.SyntheticLabels),
					zap.Int("sample_size", training.SampleSize),
				)
			}
			return service.PaymentPredictionsResponse{Predictions: predictions, Training: training}, nil
		}),
	}
}

func newRiskCommand(o *options) *cobra.Command {
	var client string
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Score client payment risk",
		Example: `  insights risk --file invoices.json
  insights risk --file invoices.json --client "Acme Ltd"`,
		Args: cobra.NoArgs,
		RunE: o.run(func(_ *cobra.Command, engine *analytics.Engine, invoices []analytics.Invoice) (any, error) {
			if client != "" {
				return engine.ClientRisk(client, invoices), nil
			}
			return engine.RiskScores(invoices), nil
		}),
	}
	cmd.Flags().StringVar(&client, "client", "", "Score only this client")
	return cmd
}

func newAnomaliesCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies",
		Short: "Flag unusual invoices",
		Args:  cobra.NoArgs,
		RunE: o.run(func(_ *cobra.Command, engine *analytics.Engine, invoices []analytics.Invoice) (any, error) {
			return engine.Anomalies(invoices), nil
		}),
	}
}

func newSegmentsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "segments",
		Short: "Cluster clients into Bronze, Silver and Gold tiers",
		Args:  cobra.NoArgs,
		RunE: o.run(func(_ *cobra.Command, engine *analytics.Engine, invoices []analytics.Invoice) (any, error) {
			return engine.Segments(invoices), nil
		}),
	}
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
