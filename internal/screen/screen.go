// Package screen grades a stock's latest derived indicators against a
// value-investing checklist. Output is advisory; nothing here writes back
// to the store.
package screen

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// Verdict classifies one check.
type Verdict string

const (
	VerdictPass    Verdict = "PASS"
	VerdictFail    Verdict = "FAIL"
	VerdictMissing Verdict = "MISSING"
)

// Check is one graded criterion. Gap is signed so a reader sees the safety
// margin (positive) or shortfall (negative) directly; it is nil when the
// underlying indicator is missing.
type Check struct {
	Name    string   `json:"name"`
	Target  string   `json:"target"`
	Actual  *float64 `json:"actual,omitempty"`
	Gap     *float64 `json:"gap,omitempty"`
	Verdict Verdict  `json:"verdict"`
}

// Report is the full grade for one stock at one period.
type Report struct {
	StockCode    string  `json:"stock_code"`
	ReportPeriod string  `json:"report_period"`
	Checks       []Check `json:"checks"`
	Passed       int     `json:"passed"`
	Total        int     `json:"total"`
}

// Screener runs the checklist.
type Screener struct {
	store store.Store
}

// NewScreener wires a Screener.
func NewScreener(st store.Store) *Screener {
	return &Screener{store: st}
}

// Screen grades the most recent derived record of the stock. Missing
// indicators are flagged per check, never treated as an error; no derived
// records at all is an error because there is nothing to grade.
func (s *Screener) Screen(ctx context.Context, stockCode string) (*Report, error) {
	derived, err := s.store.ListDerived(ctx, stockCode)
	if err != nil {
		return nil, eris.Wrapf(err, "screen: list derived for %s", stockCode)
	}
	if len(derived) == 0 {
		return nil, eris.Errorf("screen: no derived records for %s, run calc first", stockCode)
	}
	latest := derived[len(derived)-1]

	rpt := &Report{
		StockCode:    stockCode,
		ReportPeriod: latest.ReportPeriod,
		Checks:       Grade(latest.Indicators),
	}
	for _, c := range rpt.Checks {
		rpt.Total++
		if c.Verdict == VerdictPass {
			rpt.Passed++
		}
	}
	return rpt, nil
}

// Grade applies the checklist: ROE above 15%, gross margin above 40%, debt
// ratio below 60%, positive free cash flow.
func Grade(ind model.Indicators) []Check {
	return []Check{
		atLeast("roe", "> 15%", ind.ROE, 15),
		atLeast("gross_margin", "> 40%", ind.GrossMargin, 40),
		atMost("debt_to_asset", "< 60%", ind.DebtToAsset, 60),
		positive("fcf", "> 0", ind.FCF),
	}
}

func atLeast(name, target string, actual *float64, threshold float64) Check {
	c := Check{Name: name, Target: target, Actual: actual, Verdict: VerdictMissing}
	if actual == nil {
		return c
	}
	c.Gap = model.Float(*actual - threshold)
	c.Verdict = verdictFor(*actual > threshold)
	return c
}

// atMost grades lower-is-better ratios; the gap stays positive-is-good.
func atMost(name, target string, actual *float64, threshold float64) Check {
	c := Check{Name: name, Target: target, Actual: actual, Verdict: VerdictMissing}
	if actual == nil {
		return c
	}
	c.Gap = model.Float(threshold - *actual)
	c.Verdict = verdictFor(*actual < threshold)
	return c
}

func positive(name, target string, actual *float64) Check {
	c := Check{Name: name, Target: target, Actual: actual, Verdict: VerdictMissing}
	if actual == nil {
		return c
	}
	c.Verdict = verdictFor(*actual > 0)
	return c
}

func verdictFor(ok bool) Verdict {
	if ok {
		return VerdictPass
	}
	return VerdictFail
}
