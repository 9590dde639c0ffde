package documents

import (
	"regexp"
	"strings"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

var titleYearRe = regexp.MustCompile(`(\d{4})年`)

// ParseTitle extracts the report period end and report type from a filing
// title like "贵州茅台2023年年度报告". Quarterly and half-year markers are
// checked before the annual ones: "第三季度报告" contains "年度" lookalikes
// in some portal titles and must not be misread as an annual report.
func ParseTitle(title string) (period string, rt model.ReportType, ok bool) {
	m := titleYearRe.FindStringSubmatch(title)
	if m == nil {
		return "", "", false
	}
	year := m[1]

	switch {
	case strings.Contains(title, "第三季度") || strings.Contains(title, "三季报"):
		return year + "-09-30", model.ReportQ3, true
	case strings.Contains(title, "第一季度") || strings.Contains(title, "一季报"):
		return year + "-03-31", model.ReportQ1, true
	case strings.Contains(title, "半年") || strings.Contains(title, "中报"):
		return year + "-06-30", model.ReportH1, true
	case strings.Contains(title, "年度报告") || strings.Contains(title, "年报"):
		return year + "-12-31", model.ReportAnnual, true
	}
	return "", "", false
}

// CleanTitle strips the portal's highlight markup and characters that are
// unsafe in file names.
func CleanTitle(title string) string {
	title = strings.ReplaceAll(title, "<em>", "")
	title = strings.ReplaceAll(title, "</em>", "")
	title = strings.ReplaceAll(title, "/", "_")
	return strings.TrimSpace(title)
}

// isExcluded reports whether an announcement is a summary or a cancelled
// filing, neither of which carries reconcilable statement data.
func isExcluded(title string) bool {
	return strings.Contains(title, "摘要") || strings.Contains(title, "取消")
}
