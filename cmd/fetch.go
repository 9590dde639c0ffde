package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/fetcher"
	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/statements"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

var (
	fetchMarket   string
	fetchMappings string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <stock-code> [stock-code...]",
	Short: "Fetch statement data from the upstream providers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		mappings, err := fieldmap.MappingsFromFile(fetchMappings)
		if err != nil {
			return err
		}
		httpFetcher := newHTTPFetcher()

		failed := 0
		for _, code := range args {
			market, err := detectMarket(code, fetchMarket)
			if err != nil {
				return err
			}
			f, err := buildFetcher(market, httpFetcher, st, mappings)
			if err != nil {
				return err
			}
			if err := f.Fetch(ctx, code); err != nil {
				zap.L().Error("fetch failed",
					zap.String("stock", code),
					zap.String("market", string(market)),
					zap.Error(err),
				)
				failed++
			}
		}
		if failed > 0 {
			return eris.Errorf("fetch failed for %d of %d stocks", failed, len(args))
		}
		return nil
	},
}

func newHTTPFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Fetch.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
}

func buildFetcher(market model.Market, hf *fetcher.HTTPFetcher, st store.Store, mappings map[model.Market]*fieldmap.Mapping) (statements.Fetcher, error) {
	m, ok := mappings[market]
	if !ok {
		return nil, eris.Errorf("no field mapping for market %s", market)
	}
	switch market {
	case model.MarketHK:
		provider := statements.NewHTTPLongProvider(hf, cfg.Fetch.HKBaseURL)
		return statements.NewCrossBorderFetcher(provider, st, m, cfg.Fetch.CutoffYear), nil
	default:
		provider := statements.NewHTTPWideProvider(hf, cfg.Fetch.DomesticBaseURL)
		return statements.NewDomesticFetcher(provider, st, m, cfg.Fetch.CutoffYear), nil
	}
}

func init() {
	fetchCmd.Flags().StringVar(&fetchMarket, "market", "", "force market (CN or HK) instead of inferring from the code")
	fetchCmd.Flags().StringVar(&fetchMappings, "mappings", "", "path to a field mappings YAML (defaults to the built-in set)")
	rootCmd.AddCommand(fetchCmd)
}
