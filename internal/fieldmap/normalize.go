package fieldmap

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// placeholder tokens some providers use for blank cells.
var placeholders = map[string]bool{
	"":     true,
	"--":   true,
	"-":    true,
	"null": true,
	"None": true,
	"nan":  true,
	"NaN":  true,
}

// Coerce converts a raw provider cell into a nullable number. Thousands
// separators are stripped, placeholder tokens yield nil, and anything that
// still fails to parse yields nil rather than failing the record.
func Coerce(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if placeholders[s] {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// foldLabel normalizes a provider label for matching: full-width punctuation
// folded to ASCII, surrounding and embedded spaces dropped. CJK statement
// labels mix full-width and half-width parentheses for the same line item.
func foldLabel(label string) string {
	s := width.Fold.String(label)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, " ", "")
}

// MapRow maps one wide-table row into canonical fields plus the auxiliary
// superset of everything observed. Pure: same row and mapping always yield
// the same output.
func MapRow(row Row, m *Mapping) (model.Fields, model.Aux) {
	labels := make([]string, 0, len(row))
	for label := range row {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	// Distinct raw labels can fold to the same key (full-width vs ASCII
	// punctuation). Walk them in sorted order and keep the first non-nil
	// value so the collapse never depends on map iteration order.
	folded := make(map[string]*float64, len(row))
	aux := make(model.Aux, len(row))
	for _, label := range labels {
		v := Coerce(row[label])
		aux[label] = v
		key := foldLabel(label)
		if cur, seen := folded[key]; !seen || (cur == nil && v != nil) {
			folded[key] = v
		}
	}

	var fields model.Fields
	for _, fv := range m.Fields {
		for _, variant := range fv.Variants {
			v, ok := folded[foldLabel(variant)]
			if !ok || v == nil {
				continue
			}
			fields.Set(fv.Field, v)
			break
		}
	}

	FillComputed(&fields)
	return fields, aux
}

// FillComputed derives fields that some providers omit but whose components
// are present. Currently: gross_profit = revenue - cost_of_revenue.
func FillComputed(f *model.Fields) {
	if f.GrossProfit == nil && f.Revenue != nil && f.CostOfRevenue != nil {
		f.GrossProfit = model.Float(*f.Revenue - *f.CostOfRevenue)
	}
}
