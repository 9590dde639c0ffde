package statements

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// CrossBorderFetcher pulls the long-format statement tables of an HK-listed
// stock, pivots them to wide form, and lands canonical records.
type CrossBorderFetcher struct {
	provider   LongProvider
	store      store.Store
	mapping    *fieldmap.Mapping
	cutoffYear int
}

// NewCrossBorderFetcher wires a CrossBorderFetcher.
func NewCrossBorderFetcher(p LongProvider, st store.Store, m *fieldmap.Mapping, cutoffYear int) *CrossBorderFetcher {
	return &CrossBorderFetcher{provider: p, store: st, mapping: m, cutoffYear: cutoffYear}
}

func (f *CrossBorderFetcher) Fetch(ctx context.Context, stockCode string) error {
	merged := fieldmap.NewWideTable()
	for _, kind := range kinds {
		table, err := f.provider.StatementTable(ctx, stockCode, kind)
		if err != nil {
			return eris.Wrapf(err, "statements: hk %s table for %s", kind, stockCode)
		}
		merged.Merge(table.Pivot())
	}

	written, err := ingestWide(ctx, f.store, merged, f.mapping, stockCode,
		model.MarketHK, "HKD", f.cutoffYear, fillNetIncome)
	if err != nil {
		return err
	}

	zap.L().Info("statements fetched",
		zap.String("stock", stockCode),
		zap.String("market", string(model.MarketHK)),
		zap.Int("periods_seen", len(merged.Periods)),
		zap.Int("records_written", written),
	)
	return nil
}

// fillNetIncome backfills net_income from the parent-attributable figure.
// HK filings usually report only the shareholders-attributable profit.
func fillNetIncome(f *model.Fields) {
	if f.NetIncome == nil && f.NetIncomeParent != nil {
		v := *f.NetIncomeParent
		f.NetIncome = &v
	}
	if f.NetIncomeParent == nil && f.NetIncome != nil {
		v := *f.NetIncome
		f.NetIncomeParent = &v
	}
}
