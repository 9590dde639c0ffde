package model

import "time"

// ReportType classifies a filing by the fiscal period it covers.
type ReportType string

const (
	ReportQ1     ReportType = "Q1"
	ReportH1     ReportType = "H1"
	ReportQ3     ReportType = "Q3"
	ReportAnnual ReportType = "ANNUAL"
	ReportOther  ReportType = "OTHER"
)

// QualityState is the verification outcome of a raw record.
type QualityState string

const (
	QualityUnverified QualityState = "UNVERIFIED"
	QualityVerified   QualityState = "VERIFIED"
	QualityConflict   QualityState = "CONFLICT"
	QualityManual     QualityState = "MANUAL"
)

// ParseStatus tracks document-to-text conversion for a downloaded filing.
type ParseStatus string

const (
	ParsePending ParseStatus = "PENDING"
	ParseSuccess ParseStatus = "SUCCESS"
	ParseFailed  ParseStatus = "FAILED"
)

// Market identifies the listing market of a stock.
type Market string

const (
	MarketCN Market = "CN"
	MarketHK Market = "HK"
)

// RawFinancialRecord is one normalized statement snapshot, unique per
// (stock_code, report_period). Once Locked is set, automated fetches must
// leave the financial fields alone; only a manual override may change them.
type RawFinancialRecord struct {
	StockCode    string       `json:"stock_code"`
	ReportPeriod string       `json:"report_period"` // YYYY-MM-DD period end
	ReportType   ReportType   `json:"report_type"`
	Market       Market       `json:"market"`
	Currency     string       `json:"currency"`
	Quality      QualityState `json:"data_quality"`
	Locked       bool         `json:"is_locked"`

	Fields Fields `json:"fields"`
	// Aux keeps every originally-observed provider line item for audit and
	// display, separate from the canonical fields.
	Aux Aux `json:"aux,omitempty"`

	Verification *VerificationDetail `json:"verification,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// DerivedIndicatorRecord holds computed ratios and growth figures for one
// stock and period. Derived data follows raw data and carries no lock.
type DerivedIndicatorRecord struct {
	StockCode    string     `json:"stock_code"`
	ReportPeriod string     `json:"report_period"`
	Indicators   Indicators `json:"indicators"`
}

// DocumentFileRecord tracks one downloaded filing and its extracted text,
// unique per (stock_code, report_period, report_type).
type DocumentFileRecord struct {
	ID           string      `json:"id"`
	StockCode    string      `json:"stock_code"`
	ReportPeriod string      `json:"report_period"`
	ReportType   ReportType  `json:"report_type"`
	FileType     string      `json:"file_type"` // "PDF" or "HTML"
	FilePath     string      `json:"file_path"`
	TxtPath      string      `json:"txt_path,omitempty"`
	DownloadedAt time.Time   `json:"downloaded_at"`
	FileSize     int64       `json:"file_size"`
	ParseStatus  ParseStatus `json:"parse_status"`
}

// VerificationDetail is the structured outcome of reconciling one record
// against its source filing.
type VerificationDetail struct {
	Status    string                `json:"status"`
	Fields    map[string]FieldCheck `json:"fields"`
	Timestamp time.Time             `json:"timestamp"`
}

// FieldCheck compares one canonical field between the provider value and the
// value extracted from the filing text. Values are reported in units of 1e8
// base currency (the display convention of the source filings), rounded to
// two decimals.
type FieldCheck struct {
	Status   string   `json:"status"`
	Provider *float64 `json:"akshare,omitempty"`
	Document *float64 `json:"pdf,omitempty"`
	DiffPct  *float64 `json:"diff_pct,omitempty"`
}

// MetricDefinition is a dictionary entry explaining a derived metric.
type MetricDefinition struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Benchmark   string `json:"benchmark"`
}
