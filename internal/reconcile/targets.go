// Package reconcile cross-checks high-materiality fields between the
// normalized provider record and the value extracted from the company's own
// filing text. Only a small target set is compared; the filing is the
// authority, the provider is the convenience.
package reconcile

import "github.com/sells-group/fundamentals-cli/internal/model"

// Target describes one reconciled field: the canonical name plus the filing
// label variants it appears under. Variant order matters, earlier labels are
// tried first.
type Target struct {
	Field  string
	Labels []string
}

// DefaultTargets is the reconciled field set. Filings quote these in 1e8
// currency units almost universally, which is what the unit heuristic and
// the reported detail assume.
var DefaultTargets = []Target{
	{
		Field:  model.FieldRevenue,
		Labels: []string{"营业总收入", "营业收入", "营业额"},
	},
	{
		Field:  model.FieldNetIncomeParent,
		Labels: []string{"归属于上市公司股东的净利润", "归属于母公司股东的净利润", "归属于母公司所有者的净利润"},
	},
	{
		Field:  model.FieldTotalAssets,
		Labels: []string{"资产总计", "总资产", "资产总额"},
	},
	{
		Field:  model.FieldTotalEquity,
		Labels: []string{"所有者权益合计", "股东权益合计", "归属于上市公司股东的净资产"},
	},
}

// Per-field and record-level outcome states. The record-level states are
// persisted as model.QualityState; the per-field states live inside the
// verification detail.
const (
	StatusPass            = "PASS"
	StatusConflict        = "CONFLICT"
	StatusMissingProvider = "MISSING_AKSHARE"
	StatusMissingFiling   = "MISSING_PDF"
)
