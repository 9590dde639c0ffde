package fieldmap

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// periodLayouts lists the period-end date formats providers emit.
var periodLayouts = []string{"20060102", "2006-01-02", "2006-01-02 15:04:05"}

// ParsePeriod parses a provider period-end date.
func ParsePeriod(s string) (time.Time, error) {
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("fieldmap: unparseable period %q", s)
}

// ClassifyPeriod maps a period-end date to its report type by month:
// 3 is Q1, 6 is H1, 9 is Q3, 12 is ANNUAL, anything else OTHER.
func ClassifyPeriod(t time.Time) model.ReportType {
	switch t.Month() {
	case time.March:
		return model.ReportQ1
	case time.June:
		return model.ReportH1
	case time.September:
		return model.ReportQ3
	case time.December:
		return model.ReportAnnual
	default:
		return model.ReportOther
	}
}

// FormatPeriod renders a period-end date in the persisted YYYY-MM-DD form.
func FormatPeriod(t time.Time) string {
	return t.Format("2006-01-02")
}
