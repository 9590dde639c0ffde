package statements

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// DomesticFetcher pulls the three wide statement tables of a mainland-listed
// stock, joins them per period end, and lands canonical records.
type DomesticFetcher struct {
	provider   WideProvider
	store      store.Store
	mapping    *fieldmap.Mapping
	cutoffYear int
}

// NewDomesticFetcher wires a DomesticFetcher.
func NewDomesticFetcher(p WideProvider, st store.Store, m *fieldmap.Mapping, cutoffYear int) *DomesticFetcher {
	return &DomesticFetcher{provider: p, store: st, mapping: m, cutoffYear: cutoffYear}
}

func (f *DomesticFetcher) Fetch(ctx context.Context, stockCode string) error {
	merged := fieldmap.NewWideTable()
	for _, kind := range kinds {
		table, err := f.provider.StatementTable(ctx, stockCode, kind)
		if err != nil {
			return eris.Wrapf(err, "statements: %s table for %s", kind, stockCode)
		}
		merged.Merge(table)
	}

	written, err := ingestWide(ctx, f.store, merged, f.mapping, stockCode,
		model.MarketCN, "CNY", f.cutoffYear, nil)
	if err != nil {
		return err
	}

	zap.L().Info("statements fetched",
		zap.String("stock", stockCode),
		zap.String("market", string(model.MarketCN)),
		zap.Int("periods_seen", len(merged.Periods)),
		zap.Int("records_written", written),
	)
	return nil
}
