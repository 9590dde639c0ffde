package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/documents"
	"github.com/sells-group/fundamentals-cli/internal/ocr"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

var documentsMarket string

var documentsCmd = &cobra.Command{
	Use:   "documents <stock-code>",
	Short: "Download and parse the periodic-report filings for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("documents"); err != nil {
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

		return downloadDocuments(ctx, st, args[0])
	},
}

// downloadDocuments is shared with `validate --download`.
func downloadDocuments(ctx context.Context, st store.Store, stockCode string) error {
	market, err := detectMarket(stockCode, documentsMarket)
	if err != nil {
		return err
	}

	extractor, err := ocr.NewExtractor(cfg.Documents)
	if err != nil {
		return err
	}

	httpFetcher := newHTTPFetcher()
	portal := documents.NewPortalClient(httpFetcher, cfg.Documents.PortalBaseURL)
	dl := documents.NewDownloader(portal, httpFetcher, st, extractor, documents.DownloaderOptions{
		BaseDir: cfg.Documents.Dir,
	})

	n, err := dl.Download(ctx, stockCode, market, cfg.Documents.LookbackDays)
	if err != nil {
		return eris.Wrapf(err, "download documents for %s", stockCode)
	}
	zap.L().Info("documents ready", zap.String("stock", stockCode), zap.Int("files", n))
	return nil
}

func init() {
	documentsCmd.Flags().StringVar(&documentsMarket, "market", "", "force market (CN or HK) instead of inferring from the code")
	rootCmd.AddCommand(documentsCmd)
}
