// Package statements pulls published financial statements from the market
// data providers, maps them into the canonical schema, and lands them in the
// store. One fetch covers every available period of one stock; a single bad
// period is logged and skipped, never fatal for the stock.
package statements

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// Kind names one of the three statement tables.
type Kind string

const (
	KindIncome   Kind = "income"
	KindBalance  Kind = "balance"
	KindCashFlow Kind = "cashflow"
)

// kinds is the fetch order. Income first so revenue-bearing periods register
// before balance-only ones.
var kinds = []Kind{KindIncome, KindBalance, KindCashFlow}

// Fetcher pulls all statement periods of one stock into the store.
type Fetcher interface {
	Fetch(ctx context.Context, stockCode string) error
}

// ingestWide walks a merged wide table period by period: parse and cut off,
// classify, map to canonical fields, then upsert. Returns how many records
// were written (locked rows are skipped by the store and not counted).
func ingestWide(
	ctx context.Context,
	st store.Store,
	table *fieldmap.WideTable,
	m *fieldmap.Mapping,
	stock string,
	market model.Market,
	currency string,
	cutoffYear int,
	adjust func(*model.Fields),
) (int, error) {
	recs := make([]model.RawFinancialRecord, 0, len(table.Periods))
	for _, period := range table.Periods {
		end, err := fieldmap.ParsePeriod(period)
		if err != nil {
			zap.L().Warn("unparseable report period, skipping",
				zap.String("stock", stock),
				zap.String("period", period),
				zap.Error(err),
			)
			continue
		}
		if end.Year() < cutoffYear {
			continue
		}

		fields, aux := fieldmap.MapRow(table.Rows[period], m)
		if adjust != nil {
			adjust(&fields)
		}
		fieldmap.FillComputed(&fields)

		recs = append(recs, model.RawFinancialRecord{
			StockCode:    stock,
			ReportPeriod: fieldmap.FormatPeriod(end),
			ReportType:   fieldmap.ClassifyPeriod(end),
			Market:       market,
			Currency:     currency,
			Quality:      model.QualityUnverified,
			Fields:       fields,
			Aux:          aux,
		})
	}
	return persistRaw(ctx, st, recs)
}

// persistRaw lands the mapped records, batching in one round trip when the
// backend supports it. Locked rows are skipped either way and excluded from
// the count.
func persistRaw(ctx context.Context, st store.Store, recs []model.RawFinancialRecord) (int, error) {
	if bulk, ok := st.(store.BulkUpserter); ok {
		n, err := bulk.BulkUpsertRaw(ctx, recs)
		if err != nil {
			return 0, eris.Wrap(err, "statements: bulk upsert")
		}
		return int(n), nil
	}

	written := 0
	for _, rec := range recs {
		ok, err := st.UpsertRaw(ctx, rec)
		if err != nil {
			return written, eris.Wrapf(err, "statements: upsert %s/%s", rec.StockCode, rec.ReportPeriod)
		}
		if ok {
			written++
		}
	}
	return written, nil
}
