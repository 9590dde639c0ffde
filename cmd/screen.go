package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/fundamentals-cli/internal/screen"
)

var screenCmd = &cobra.Command{
	Use:   "screen <stock-code>",
	Short: "Grade the latest indicators against the value checklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rpt, err := screen.NewScreener(st).Screen(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rpt)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)
}
