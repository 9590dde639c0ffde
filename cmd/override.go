package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var overrideCmd = &cobra.Command{
	Use:   "override <stock-code> <period> <field> <value>",
	Short: "Manually correct one field and lock the record",
	Long: "Sets a canonical field to the given value, marks the record MANUAL, and locks it " +
		"so automated fetches can no longer overwrite it.",
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stockCode, period, field := args[0], args[1], args[2]

		value, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return eris.Wrapf(err, "parse value %q", args[3])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ManualOverride(ctx, stockCode, period, field, value); err != nil {
			return err
		}
		zap.L().Info("override applied",
			zap.String("stock", stockCode),
			zap.String("period", period),
			zap.String("field", field),
			zap.Float64("value", value),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overrideCmd)
}
