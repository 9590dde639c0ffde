package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
	"github.com/sells-group/fundamentals-cli/internal/statements"
)

var (
	importXLSXPath string
	importMarket   string
	importMappings string
)

var importCmd = &cobra.Command{
	Use:   "import <stock-code>",
	Short: "Import statement data from an XLSX workbook",
	Long:  "Reads a label-per-row workbook (periods across the header) and upserts the mapped records, honoring record locks.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stockCode := args[0]

		market, err := detectMarket(stockCode, importMarket)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		mappings, err := fieldmap.MappingsFromFile(importMappings)
		if err != nil {
			return err
		}

		importer := statements.NewXLSXImporter(st, mappings, cfg.Fetch.CutoffYear)
		n, err := importer.Import(ctx, importXLSXPath, stockCode, market)
		if err != nil {
			return eris.Wrapf(err, "import %s", importXLSXPath)
		}

		zap.L().Info("import complete",
			zap.String("stock", stockCode),
			zap.String("xlsx", importXLSXPath),
			zap.Int("records", n),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to XLSX workbook (required)")
	importCmd.Flags().StringVar(&importMarket, "market", "", "force market (CN or HK) instead of inferring from the code")
	importCmd.Flags().StringVar(&importMappings, "mappings", "", "path to a field mappings YAML (defaults to the built-in set)")
	_ = importCmd.MarkFlagRequired("xlsx")
	rootCmd.AddCommand(importCmd)
}
