package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

type stockStatus struct {
	StockCode string         `json:"stock_code"`
	Periods   int            `json:"periods"`
	Quality   map[string]int `json:"quality"`
	Locked    int            `json:"locked"`
	Files     int            `json:"files"`
	Parsed    int            `json:"parsed"`
	Derived   int            `json:"derived"`
}

var statusCmd = &cobra.Command{
	Use:   "status <stock-code> [stock-code...]",
	Short: "Summarize stored data and verification quality per stock",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		summaries := make([]stockStatus, 0, len(args))
		for _, code := range args {
			raws, err := st.ListRaw(ctx, code)
			if err != nil {
				return eris.Wrapf(err, "list raw for %s", code)
			}
			files, err := st.ListFiles(ctx, code)
			if err != nil {
				return eris.Wrapf(err, "list files for %s", code)
			}
			derived, err := st.ListDerived(ctx, code)
			if err != nil {
				return eris.Wrapf(err, "list derived for %s", code)
			}

			s := stockStatus{
				StockCode: code,
				Periods:   len(raws),
				Quality:   make(map[string]int),
				Files:     len(files),
				Derived:   len(derived),
			}
			for _, r := range raws {
				s.Quality[string(r.Quality)]++
				if r.Locked {
					s.Locked++
				}
			}
			for _, f := range files {
				if f.ParseStatus == model.ParseSuccess {
					s.Parsed++
				}
			}
			summaries = append(summaries, s)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
