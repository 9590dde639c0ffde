// Package store persists raw statement records, derived indicators, and
// document-file records. Financial writes respect the per-record lock;
// quality writes never do, so a verification outcome is always recordable
// even on locked records.
package store

import (
	"context"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// Store is the persistence interface shared by the fetchers, the indicator
// calculator, the reconciliation engine, and the presentation layer.
type Store interface {
	// UpsertRaw replaces the record for (stock, period), or skips it when
	// the existing record is locked. Returns false on a lock skip. The
	// lock check and the write run in one transaction per key.
	UpsertRaw(ctx context.Context, rec model.RawFinancialRecord) (bool, error)
	GetRaw(ctx context.Context, stock, period string) (*model.RawFinancialRecord, error)
	ListRaw(ctx context.Context, stock string) ([]model.RawFinancialRecord, error)

	// ManualOverride is the privileged write path: it sets one canonical
	// field, forces the lock, and marks the record MANUAL. It bypasses the
	// lock check because it is the only sanctioned way past it.
	ManualOverride(ctx context.Context, stock, period, field string, value float64) error

	// SetQuality updates the quality state and verification detail only.
	// It ignores the lock: quality assessment must always be recordable.
	SetQuality(ctx context.Context, stock, period string, status model.QualityState, detail *model.VerificationDetail) error

	// ReplaceDerived swaps the stock's derived records wholesale.
	ReplaceDerived(ctx context.Context, stock string, recs []model.DerivedIndicatorRecord) error
	ListDerived(ctx context.Context, stock string) ([]model.DerivedIndicatorRecord, error)

	UpsertFile(ctx context.Context, rec model.DocumentFileRecord) error
	ListFiles(ctx context.Context, stock string) ([]model.DocumentFileRecord, error)
	SetFileParseStatus(ctx context.Context, stock, period string, rt model.ReportType, status model.ParseStatus, txtPath string) error

	// LocateText returns the extracted-text path for (stock, period), or ""
	// when no parsed document exists.
	LocateText(ctx context.Context, stock, period string) (string, error)

	MetricDefinitions(ctx context.Context) ([]model.MetricDefinition, error)

	Migrate(ctx context.Context) error
	Close() error
}

// BulkUpserter is the optional batched write path. The statement ingest
// paths dispatch to it when the backend provides one; lock skips count the
// same as in the per-record path.
type BulkUpserter interface {
	BulkUpsertRaw(ctx context.Context, recs []model.RawFinancialRecord) (int64, error)
}
