package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/reconcile"
	"github.com/sells-group/fundamentals-cli/internal/store"
	"github.com/sells-group/fundamentals-cli/pkg/anthropic"
)

var (
	validatePeriod   string
	validateDownload bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <stock-code>",
	Short: "Reconcile stored statements against the company's filings",
	Long: "Without --period, validates every stored period of the stock, optionally downloading filings first. " +
		"A period that cannot be validated (no filing, conflicting text) is reported and skipped; it never aborts the rest.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stockCode := args[0]

		if err := cfg.Validate("validate"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if validateDownload {
			if err := downloadDocuments(ctx, st, stockCode); err != nil {
				return err
			}
		}

		engine := newEngine(st)

		if validatePeriod != "" {
			detail, err := engine.Validate(ctx, stockCode, validatePeriod)
			if err != nil {
				return err
			}
			zap.L().Info("validated",
				zap.String("stock", stockCode),
				zap.String("period", validatePeriod),
				zap.String("status", detail.Status),
			)
			return nil
		}

		raws, err := st.ListRaw(ctx, stockCode)
		if err != nil {
			return eris.Wrapf(err, "list raw for %s", stockCode)
		}
		if len(raws) == 0 {
			return eris.Errorf("no statement data for %s, run fetch first", stockCode)
		}

		validated := 0
		for _, rec := range raws {
			detail, err := engine.Validate(ctx, stockCode, rec.ReportPeriod)
			if err != nil {
				zap.L().Warn("period not validated",
					zap.String("stock", stockCode),
					zap.String("period", rec.ReportPeriod),
					zap.Error(err),
				)
				continue
			}
			validated++
			zap.L().Info("validated",
				zap.String("stock", stockCode),
				zap.String("period", rec.ReportPeriod),
				zap.String("status", detail.Status),
			)
		}
		zap.L().Info("validation run complete",
			zap.String("stock", stockCode),
			zap.Int("periods", len(raws)),
			zap.Int("validated", validated),
		)
		return nil
	},
}

// newEngine builds the reconciliation engine; without an API key it runs
// pattern extraction only.
func newEngine(st store.Store) *reconcile.Engine {
	var modelEx reconcile.Extractor
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		modelEx = reconcile.NewModelExtractor(client, cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens, cfg.Reconcile.ExcerptLimit, reconcile.DefaultTargets)
	}
	return reconcile.NewEngine(st, reconcile.EngineOptions{
		Tolerance:        cfg.Reconcile.Tolerance,
		UnitBaseFloor:    cfg.Reconcile.UnitBaseFloor,
		UnitScaleCeiling: cfg.Reconcile.UnitScaleCeiling,
		Model:            modelEx,
	})
}

func init() {
	validateCmd.Flags().StringVar(&validatePeriod, "period", "", "validate a single period (YYYY-MM-DD)")
	validateCmd.Flags().BoolVar(&validateDownload, "download", false, "download and parse filings before validating")
	rootCmd.AddCommand(validateCmd)
}
