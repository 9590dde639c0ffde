package statements

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "statements.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXImporter(t *testing.T) {
	st := newTestStore(t)
	mappings := testMappings(t)

	path := writeWorkbook(t, [][]string{
		{"项目", "20231231", "20221231"},
		{"营业总收入", "150560000000", "127554000000"},
		{"资产总计", "272700000000", "254365000000"},
		{"", "ignored", "ignored"},
	})

	imp := NewXLSXImporter(st, mappings, 2010)
	n, err := imp.Import(context.Background(), path, "600519", model.MarketCN)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := st.ListRaw(context.Background(), "600519")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2022-12-31", recs[0].ReportPeriod)
	require.NotNil(t, recs[0].Fields.Revenue)
	assert.Equal(t, 127554000000.0, *recs[0].Fields.Revenue)
}

// bulkStore fronts a real store with the batched write path so the ingest
// dispatch is observable.
type bulkStore struct {
	store.Store
	bulkCalls      int
	perRecordCalls int
}

func (s *bulkStore) BulkUpsertRaw(ctx context.Context, recs []model.RawFinancialRecord) (int64, error) {
	s.bulkCalls++
	var n int64
	for _, rec := range recs {
		ok, err := s.Store.UpsertRaw(ctx, rec)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *bulkStore) UpsertRaw(ctx context.Context, rec model.RawFinancialRecord) (bool, error) {
	s.perRecordCalls++
	return s.Store.UpsertRaw(ctx, rec)
}

func TestXLSXImporter_BatchesOnBulkBackend(t *testing.T) {
	st := &bulkStore{Store: newTestStore(t)}
	imp := NewXLSXImporter(st, testMappings(t), 2010)

	path := writeWorkbook(t, [][]string{
		{"项目", "20231231", "20221231"},
		{"营业总收入", "150560000000", "127554000000"},
	})

	n, err := imp.Import(context.Background(), path, "600519", model.MarketCN)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, st.bulkCalls)
	assert.Zero(t, st.perRecordCalls)
}

func TestXLSXImporter_UnknownMarket(t *testing.T) {
	st := newTestStore(t)
	imp := NewXLSXImporter(st, testMappings(t), 2010)

	_, err := imp.Import(context.Background(), "whatever.xlsx", "600519", model.Market("XX"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no mapping")
}

func TestXLSXImporter_EmptyWorkbook(t *testing.T) {
	st := newTestStore(t)
	imp := NewXLSXImporter(st, testMappings(t), 2010)

	path := writeWorkbook(t, [][]string{{"项目", "20231231"}})
	_, err := imp.Import(context.Background(), path, "600519", model.MarketCN)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}
