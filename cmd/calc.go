package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/indicators"
)

var calcCmd = &cobra.Command{
	Use:   "calc <stock-code> [stock-code...]",
	Short: "Recompute derived indicators from stored statements",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		calc := indicators.NewCalculator(st)
		failed := 0
		for _, code := range args {
			n, err := calc.Compute(ctx, code)
			if err != nil {
				zap.L().Error("calc failed", zap.String("stock", code), zap.Error(err))
				failed++
				continue
			}
			if n == 0 {
				zap.L().Warn("no raw records, nothing to compute", zap.String("stock", code))
			}
		}
		if failed > 0 {
			return eris.Errorf("calc failed for %d of %d stocks", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calcCmd)
}
