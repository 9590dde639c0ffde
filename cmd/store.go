package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// detectMarket infers the listing market from the code shape: 6 digits is a
// mainland listing, 5 digits is Hong Kong. An explicit --market flag wins.
func detectMarket(stockCode, override string) (model.Market, error) {
	switch strings.ToUpper(override) {
	case "CN":
		return model.MarketCN, nil
	case "HK":
		return model.MarketHK, nil
	case "":
	default:
		return "", eris.Errorf("unknown market %q, expected CN or HK", override)
	}

	digits := len(stockCode) > 0
	for _, r := range stockCode {
		if r < '0' || r > '9' {
			digits = false
			break
		}
	}
	if digits {
		switch len(stockCode) {
		case 6:
			return model.MarketCN, nil
		case 5:
			return model.MarketHK, nil
		}
	}
	return "", eris.Errorf("cannot infer market for %q, pass --market", stockCode)
}
