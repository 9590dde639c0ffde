package reconcile

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// Validation preconditions.
var (
	// ErrNoData means no provider record exists for the (stock, period).
	ErrNoData = eris.New("reconcile: no provider record")
	// ErrNoFile means no parsed filing text exists for the (stock, period).
	ErrNoFile = eris.New("reconcile: no filing text")
)

// Extractor pulls target field values, in base currency units, out of
// filing text. refs carries the provider's values as calibration.
type Extractor interface {
	Extract(ctx context.Context, text string, refs map[string]float64) (map[string]float64, error)
}

// Engine validates provider records against filing text and persists the
// outcome as the record's quality state.
type Engine struct {
	store     store.Store
	pattern   *PatternExtractor
	model     Extractor
	targets   []Target
	tolerance float64
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Tolerance is the relative deviation below which two values agree.
	Tolerance float64
	// UnitBaseFloor and UnitScaleCeiling drive the pattern extractor's
	// unit heuristic.
	UnitBaseFloor    float64
	UnitScaleCeiling float64
	// Model is the model-based extractor; nil degrades to pattern-only.
	Model Extractor
	// Targets overrides DefaultTargets when non-empty.
	Targets []Target
}

// NewEngine wires an Engine. Without a model extractor the engine runs
// pattern-only, which is logged once here rather than on every call.
func NewEngine(st store.Store, opts EngineOptions) *Engine {
	targets := opts.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	if opts.Model == nil {
		zap.L().Info("model extraction unavailable, using pattern extraction only")
	}
	return &Engine{
		store:     st,
		pattern:   NewPatternExtractor(targets, opts.UnitBaseFloor, opts.UnitScaleCeiling),
		model:     opts.Model,
		targets:   targets,
		tolerance: opts.Tolerance,
	}
}

// Validate cross-checks the record's target fields against the filing text
// and persists the outcome. Returns the persisted detail. The quality write
// ignores the record lock, so locked and manual records are validated too.
func (e *Engine) Validate(ctx context.Context, stockCode, period string) (*model.VerificationDetail, error) {
	rec, err := e.store.GetRaw(ctx, stockCode, period)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: load record %s/%s", stockCode, period)
	}
	if rec == nil {
		return nil, eris.Wrapf(ErrNoData, "%s/%s", stockCode, period)
	}

	txtPath, err := e.store.LocateText(ctx, stockCode, period)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: locate text %s/%s", stockCode, period)
	}
	if txtPath == "" {
		return nil, eris.Wrapf(ErrNoFile, "%s/%s", stockCode, period)
	}
	text, err := os.ReadFile(txtPath)
	if err != nil {
		return nil, eris.Wrapf(ErrNoFile, "read %s: %v", txtPath, err)
	}

	refs := make(map[string]float64, len(e.targets))
	for _, t := range e.targets {
		if v := rec.Fields.Value(t.Field); v != nil {
			refs[t.Field] = *v
		}
	}

	extracted := e.extract(ctx, string(text), refs)

	detail := &model.VerificationDetail{
		Fields:    make(map[string]model.FieldCheck, len(e.targets)),
		Timestamp: time.Now().UTC(),
	}
	status := model.QualityVerified
	for _, t := range e.targets {
		check := e.compareField(rec.Fields.Value(t.Field), extracted, t.Field)
		detail.Fields[t.Field] = check
		if check.Status == StatusConflict {
			status = model.QualityConflict
		}
	}
	detail.Status = string(status)

	if err := e.store.SetQuality(ctx, stockCode, period, status, detail); err != nil {
		return nil, eris.Wrapf(err, "reconcile: persist quality %s/%s", stockCode, period)
	}

	zap.L().Info("validation complete",
		zap.String("stock", stockCode),
		zap.String("period", period),
		zap.String("status", string(status)),
	)
	return detail, nil
}

// extract prefers the model strategy and falls back to pattern search on
// any failure.
func (e *Engine) extract(ctx context.Context, text string, refs map[string]float64) map[string]float64 {
	if e.model != nil {
		values, err := e.model.Extract(ctx, text, refs)
		if err == nil {
			return values
		}
		zap.L().Warn("model extraction failed, falling back to pattern",
			zap.Error(err),
		)
	}
	values, _ := e.pattern.Extract(ctx, text, refs)
	return values
}

// compareField classifies one field. Deviation is |a−b| / max(|a|,|b|);
// exactly at tolerance counts as conflict. Reported values are in 1e8
// units rounded to two decimals, matching how filings quote them.
func (e *Engine) compareField(provider *float64, extracted map[string]float64, field string) model.FieldCheck {
	docValue, hasDoc := extracted[field]

	var check model.FieldCheck
	if provider != nil {
		check.Provider = model.Float(round2(*provider / 1e8))
	}
	if hasDoc {
		check.Document = model.Float(round2(docValue / 1e8))
	}

	switch {
	case provider == nil:
		check.Status = StatusMissingProvider
	case !hasDoc:
		check.Status = StatusMissingFiling
	default:
		dev := deviation(*provider, docValue)
		check.DiffPct = model.Float(round2(dev * 100))
		if dev < e.tolerance {
			check.Status = StatusPass
		} else {
			check.Status = StatusConflict
		}
	}
	return check
}

func deviation(a, b float64) float64 {
	diff := math.Abs(a - b)
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return diff / denom
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
