package statements

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/fetcher"
	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// XLSXImporter loads a local statement workbook through the same mapping
// path the online fetchers use. Expected layout: header row of period ends
// with the line-item label in the first column, one line item per row.
type XLSXImporter struct {
	store      store.Store
	mappings   map[model.Market]*fieldmap.Mapping
	cutoffYear int
}

// NewXLSXImporter wires an XLSXImporter.
func NewXLSXImporter(st store.Store, mappings map[model.Market]*fieldmap.Mapping, cutoffYear int) *XLSXImporter {
	return &XLSXImporter{store: st, mappings: mappings, cutoffYear: cutoffYear}
}

// Import reads the workbook at path and upserts one record per period.
// The market flag selects the mapping table and the stored currency.
func (imp *XLSXImporter) Import(ctx context.Context, path, stockCode string, market model.Market) (int, error) {
	m, ok := imp.mappings[market]
	if !ok {
		return 0, eris.Errorf("statements: no mapping for market %s", market)
	}

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return 0, eris.Wrapf(err, "statements: read workbook %s", path)
	}
	if len(rows) < 2 {
		return 0, eris.Errorf("statements: workbook %s has no data rows", path)
	}

	// Header: first cell is the label column title, the rest are period ends.
	periods := rows[0][1:]
	table := fieldmap.NewWideTable()
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		label := strings.TrimSpace(row[0])
		if label == "" {
			continue
		}
		for i, period := range periods {
			if i+1 >= len(row) {
				break
			}
			table.SetCell(period, label, row[i+1])
		}
	}

	currency := "CNY"
	var adjust func(*model.Fields)
	if market == model.MarketHK {
		currency = "HKD"
		adjust = fillNetIncome
	}

	written, err := ingestWide(ctx, imp.store, table, m, stockCode, market, currency, imp.cutoffYear, adjust)
	if err != nil {
		return written, err
	}

	zap.L().Info("workbook imported",
		zap.String("stock", stockCode),
		zap.String("path", path),
		zap.Int("records_written", written),
	)
	return written, nil
}
