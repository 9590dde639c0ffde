package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

func newTestEngine(t *testing.T, model Extractor) (*Engine, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "reconcile.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	eng := NewEngine(st, EngineOptions{
		Tolerance:        0.02,
		UnitBaseFloor:    1e6,
		UnitScaleCeiling: 1e4,
		Model:            model,
	})
	return eng, st
}

func seedRecord(t *testing.T, st store.Store, fields model.Fields) {
	t.Helper()
	written, err := st.UpsertRaw(context.Background(), model.RawFinancialRecord{
		StockCode:    "600519",
		ReportPeriod: "2023-12-31",
		ReportType:   model.ReportAnnual,
		Market:       model.MarketCN,
		Currency:     "CNY",
		Quality:      model.QualityUnverified,
		Fields:       fields,
	})
	require.NoError(t, err)
	require.True(t, written)
}

func seedFiling(t *testing.T, st store.Store, text string) {
	t.Helper()
	txtPath := filepath.Join(t.TempDir(), "filing.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(text), 0o644))
	require.NoError(t, st.UpsertFile(context.Background(), model.DocumentFileRecord{
		StockCode:    "600519",
		ReportPeriod: "2023-12-31",
		ReportType:   model.ReportAnnual,
		FileType:     "PDF",
		FilePath:     "filing.pdf",
		TxtPath:      txtPath,
		ParseStatus:  model.ParseSuccess,
	}))
}

// fixedExtractor returns a canned value set, standing in for the model path.
type fixedExtractor struct {
	values map[string]float64
	err    error
}

func (f *fixedExtractor) Extract(context.Context, string, map[string]float64) (map[string]float64, error) {
	return f.values, f.err
}

func TestValidateNoData(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	_, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoData))
}

func TestValidateNoFile(t *testing.T) {
	eng, st := newTestEngine(t, nil)
	seedRecord(t, st, model.Fields{Revenue: model.Float(100e8)})

	_, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoFile))
}

func TestValidatePassWithinTolerance(t *testing.T) {
	// akshare 100.00亿 vs filing 101.50亿: 1.48% deviation, inside 2%
	eng, st := newTestEngine(t, &fixedExtractor{values: map[string]float64{
		"revenue": 101.50e8,
	}})
	seedRecord(t, st, model.Fields{Revenue: model.Float(100.00e8)})
	seedFiling(t, st, "placeholder")

	detail, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "VERIFIED", detail.Status)

	check := detail.Fields["revenue"]
	assert.Equal(t, StatusPass, check.Status)
	require.NotNil(t, check.Provider)
	assert.InDelta(t, 100.00, *check.Provider, 1e-9)
	require.NotNil(t, check.Document)
	assert.InDelta(t, 101.50, *check.Document, 1e-9)
	require.NotNil(t, check.DiffPct)
	assert.InDelta(t, 1.48, *check.DiffPct, 1e-9)

	rec, err := st.GetRaw(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, model.QualityVerified, rec.Quality)
	require.NotNil(t, rec.Verification)
	assert.Equal(t, "VERIFIED", rec.Verification.Status)
}

func TestValidateConflictBeyondTolerance(t *testing.T) {
	// akshare 100.00亿 vs filing 103.00亿: 2.91% deviation
	eng, st := newTestEngine(t, &fixedExtractor{values: map[string]float64{
		"revenue": 103.00e8,
	}})
	seedRecord(t, st, model.Fields{Revenue: model.Float(100.00e8)})
	seedFiling(t, st, "placeholder")

	detail, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "CONFLICT", detail.Status)
	assert.Equal(t, StatusConflict, detail.Fields["revenue"].Status)

	rec, err := st.GetRaw(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, model.QualityConflict, rec.Quality)
}

func TestValidateExactToleranceIsConflict(t *testing.T) {
	// deviation of exactly 2% does not pass
	eng, st := newTestEngine(t, &fixedExtractor{values: map[string]float64{
		"revenue": 98.0e8,
	}})
	seedRecord(t, st, model.Fields{Revenue: model.Float(100.0e8)})
	seedFiling(t, st, "placeholder")

	detail, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, StatusConflict, detail.Fields["revenue"].Status)
}

func TestValidateMissingSides(t *testing.T) {
	eng, st := newTestEngine(t, &fixedExtractor{values: map[string]float64{
		"revenue": 100e8,
	}})
	seedRecord(t, st, model.Fields{
		Revenue:     model.Float(100e8),
		TotalAssets: model.Float(500e8),
	})
	seedFiling(t, st, "placeholder")

	detail, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)

	// missing sides never escalate the record to CONFLICT
	assert.Equal(t, "VERIFIED", detail.Status)
	assert.Equal(t, StatusMissingFiling, detail.Fields["total_assets"].Status)
	assert.Equal(t, StatusMissingProvider, detail.Fields["net_income_parent"].Status)
	assert.Nil(t, detail.Fields["total_assets"].DiffPct)
}

func TestValidateModelFailureFallsBackToPattern(t *testing.T) {
	eng, st := newTestEngine(t, &fixedExtractor{err: assert.AnError})
	seedRecord(t, st, model.Fields{Revenue: model.Float(102.0e8)})
	seedFiling(t, st, "公司实现营业总收入102.50亿元。")

	detail, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	check := detail.Fields["revenue"]
	assert.Equal(t, StatusPass, check.Status)
	require.NotNil(t, check.Document)
	assert.InDelta(t, 102.50, *check.Document, 1e-9)
}

func TestValidateWorksOnLockedRecords(t *testing.T) {
	eng, st := newTestEngine(t, &fixedExtractor{values: map[string]float64{
		"revenue": 110e8,
	}})
	seedRecord(t, st, model.Fields{Revenue: model.Float(100e8)})
	require.NoError(t, st.ManualOverride(context.Background(), "600519", "2023-12-31", "revenue", 100e8))
	seedFiling(t, st, "placeholder")

	detail, err := eng.Validate(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "CONFLICT", detail.Status)

	// quality is updated on the locked record, the value is not
	rec, err := st.GetRaw(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.True(t, rec.Locked)
	assert.Equal(t, model.QualityConflict, rec.Quality)
	assert.InDelta(t, 100e8, *rec.Fields.Revenue, 1e-3)
}
