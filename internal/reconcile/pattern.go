package reconcile

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// PatternExtractor pulls target values out of filing text by label search:
// for each label variant, the first numeric token within a short window
// after the label wins. Filing layouts are loose, so the extractor is
// deliberately tolerant about what sits between label and number.
type PatternExtractor struct {
	targets   []Target
	baseFloor float64
	scaleCeil float64
	patterns  map[string][]*regexp.Regexp
}

// NewPatternExtractor compiles the label patterns for the given targets.
// baseFloor and scaleCeil drive the unit heuristic, see scale.
func NewPatternExtractor(targets []Target, baseFloor, scaleCeil float64) *PatternExtractor {
	p := &PatternExtractor{
		targets:   targets,
		baseFloor: baseFloor,
		scaleCeil: scaleCeil,
		patterns:  make(map[string][]*regexp.Regexp, len(targets)),
	}
	for _, t := range targets {
		res := make([]*regexp.Regexp, 0, len(t.Labels))
		for _, label := range t.Labels {
			// label, then up to 20 non-digit runes, then a number
			res = append(res, regexp.MustCompile(
				regexp.QuoteMeta(label)+`[^\d]{0,20}?([\d,]+\.?\d*)`,
			))
		}
		p.patterns[t.Field] = res
	}
	return p
}

// Extract runs the label search over text and returns base-unit values.
// Fields with no match are absent from the result. The reference values are
// not consulted; they exist for symmetry with the model extractor.
func (p *PatternExtractor) Extract(_ context.Context, text string, _ map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(p.targets))
	for _, t := range p.targets {
		for _, re := range p.patterns[t.Field] {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			raw := strings.ReplaceAll(m[1], ",", "")
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			out[t.Field] = p.scale(t.Field, v)
			break
		}
	}
	return out, nil
}

// scale applies the magnitude heuristic: values at or above baseFloor are
// already base units, values below scaleCeil are taken as 1e8 units. The
// band in between is genuinely ambiguous; the value passes through
// unscaled with a warning so a mismatch surfaces as CONFLICT downstream
// instead of being silently "fixed".
func (p *PatternExtractor) scale(field string, v float64) float64 {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= p.baseFloor:
		return v
	case abs < p.scaleCeil:
		return v * 1e8
	default:
		zap.L().Warn("ambiguous magnitude in filing text, keeping raw value",
			zap.String("field", field),
			zap.Float64("value", v),
		)
		return v
	}
}
