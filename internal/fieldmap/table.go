// Package fieldmap normalizes provider statement payloads into the
// canonical field schema. Mapping is a pure function of the payload and the
// per-market mapping table.
package fieldmap

// WideTable is a wide-format statement payload: one row per period end, one
// column per provider label. Cells are kept raw; numeric coercion happens
// during mapping.
type WideTable struct {
	Periods []string       // period end dates, provider order
	Rows    map[string]Row // keyed by period
}

// Row maps a provider label to its raw cell value.
type Row map[string]string

// NewWideTable returns an empty wide table.
func NewWideTable() *WideTable {
	return &WideTable{Rows: make(map[string]Row)}
}

// SetCell stores one cell, registering the period on first sight.
func (t *WideTable) SetCell(period, label, raw string) {
	row, ok := t.Rows[period]
	if !ok {
		row = make(Row)
		t.Rows[period] = row
		t.Periods = append(t.Periods, period)
	}
	row[label] = raw
}

// Merge overlays other onto t, keeping t's value when both tables carry the
// same (period, label) cell. Used to join the three statement tables of one
// stock into a single row per period.
func (t *WideTable) Merge(other *WideTable) {
	if other == nil {
		return
	}
	for _, period := range other.Periods {
		for label, raw := range other.Rows[period] {
			if row, ok := t.Rows[period]; ok {
				if _, exists := row[label]; exists {
					continue
				}
			}
			t.SetCell(period, label, raw)
		}
	}
}

// LongTable is a long-format statement payload: one entry per line item per
// period, the shape the cross-border provider returns.
type LongTable struct {
	Entries []LongEntry
}

// LongEntry is a single line item observation.
type LongEntry struct {
	Period string // period end date
	Item   string // provider line-item label
	Amount string // raw amount cell
}

// Pivot converts the long table to wide format. Duplicate (period, item)
// pairs collapse to the first-seen value.
func (t *LongTable) Pivot() *WideTable {
	wide := NewWideTable()
	for _, e := range t.Entries {
		if e.Period == "" || e.Item == "" {
			continue
		}
		if row, ok := wide.Rows[e.Period]; ok {
			if _, exists := row[e.Item]; exists {
				continue
			}
		}
		wide.SetCell(e.Period, e.Item, e.Amount)
	}
	return wide
}
