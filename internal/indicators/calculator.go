// Package indicators derives ratios and growth figures from the raw
// statement records. Derived data is always recomputed wholesale for a
// stock; it never feeds back into the raw layer.
package indicators

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// Calculator recomputes the derived indicator records of one stock.
type Calculator struct {
	store store.Store
}

// NewCalculator wires a Calculator.
func NewCalculator(st store.Store) *Calculator {
	return &Calculator{store: st}
}

// Compute reads every raw period of the stock, derives indicators per
// period, and replaces the stock's derived records in one transaction.
// Missing inputs yield nil indicators, never errors.
func (c *Calculator) Compute(ctx context.Context, stockCode string) (int, error) {
	raws, err := c.store.ListRaw(ctx, stockCode)
	if err != nil {
		return 0, eris.Wrapf(err, "indicators: list raw for %s", stockCode)
	}
	if len(raws) == 0 {
		return 0, nil
	}

	byPeriod := make(map[string]*model.RawFinancialRecord, len(raws))
	for i := range raws {
		byPeriod[raws[i].ReportPeriod] = &raws[i]
	}

	recs := make([]model.DerivedIndicatorRecord, 0, len(raws))
	for i := range raws {
		cur := &raws[i]
		prior := priorYearRecord(byPeriod, cur.ReportPeriod)
		recs = append(recs, model.DerivedIndicatorRecord{
			StockCode:    stockCode,
			ReportPeriod: cur.ReportPeriod,
			Indicators:   Derive(&cur.Fields, priorFields(prior)),
		})
	}

	if err := c.store.ReplaceDerived(ctx, stockCode, recs); err != nil {
		return 0, eris.Wrapf(err, "indicators: replace derived for %s", stockCode)
	}

	zap.L().Info("indicators computed",
		zap.String("stock", stockCode),
		zap.Int("periods", len(recs)),
	)
	return len(recs), nil
}

func priorFields(rec *model.RawFinancialRecord) *model.Fields {
	if rec == nil {
		return nil
	}
	return &rec.Fields
}

// priorYearRecord resolves the same period end one year earlier. Growth is
// only meaningful against the matching period of the prior year; the
// previous row in date order is usually a different report type.
func priorYearRecord(byPeriod map[string]*model.RawFinancialRecord, period string) *model.RawFinancialRecord {
	end, err := fieldmap.ParsePeriod(period)
	if err != nil {
		return nil
	}
	prior := end.AddDate(-1, 0, 0)
	return byPeriod[fieldmap.FormatPeriod(prior)]
}

// Derive computes the indicator set for one period. prior may be nil; the
// growth figures are then nil.
func Derive(f *model.Fields, prior *model.Fields) model.Indicators {
	var ind model.Indicators

	ind.GrossMargin = pctRatio(f.GrossProfit, f.Revenue)
	ind.NetMargin = pctRatio(f.NetIncome, f.Revenue)
	// ROE stays on the parent figure; the other profitability ratios use
	// consolidated net income, which includes minority interests.
	ind.ROE = pctRatio(f.NetIncomeParent, f.TotalEquity)
	ind.ROA = pctRatio(f.NetIncome, f.TotalAssets)
	ind.DebtToAsset = pctRatio(f.TotalLiabilities, f.TotalAssets)
	ind.CurrentRatio = ratio(f.CurrentAssets, f.CurrentLiabilities)

	ind.InventoryTurnoverDays = turnoverDays(f.Inventory, f.CostOfRevenue)
	ind.ReceivablesTurnoverDays = turnoverDays(f.AccountsReceivable, f.Revenue)

	if f.CFONet != nil && f.Capex != nil {
		ind.FCF = model.Float(*f.CFONet - *f.Capex)
	}
	ind.CFOToNetIncome = ratio(f.CFONet, f.NetIncome)

	if prior != nil {
		ind.RevenueYoY = yoy(f.Revenue, prior.Revenue)
		ind.NetProfitYoY = yoy(f.NetIncomeParent, prior.NetIncomeParent)
	}

	return ind
}

// ratio returns a/b, nil when either side is nil or b is zero.
func ratio(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return model.Float(*a / *b)
}

// pctRatio returns a/b as a percentage.
func pctRatio(a, b *float64) *float64 {
	r := ratio(a, b)
	if r == nil {
		return nil
	}
	return model.Float(*r * 100)
}

// turnoverDays returns 365 × balance / flow.
func turnoverDays(balance, flow *float64) *float64 {
	r := ratio(balance, flow)
	if r == nil {
		return nil
	}
	return model.Float(*r * 365)
}

// yoy returns (cur − last) / |last| × 100, nil when either side is missing
// or last is zero.
func yoy(cur, last *float64) *float64 {
	if cur == nil || last == nil || *last == 0 {
		return nil
	}
	denom := *last
	if denom < 0 {
		denom = -denom
	}
	return model.Float((*cur - *last) / denom * 100)
}
