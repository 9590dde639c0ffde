package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS statements_raw (
	stock_code    TEXT NOT NULL,
	report_period TEXT NOT NULL,
	report_type   TEXT NOT NULL,
	market        TEXT NOT NULL DEFAULT 'CN',
	currency      TEXT,
	data_quality  TEXT NOT NULL DEFAULT 'UNVERIFIED',
	is_locked     INTEGER NOT NULL DEFAULT 0,
	fields        TEXT NOT NULL,
	aux           TEXT,
	verification  TEXT,
	updated_at    DATETIME NOT NULL,
	PRIMARY KEY (stock_code, report_period)
);

CREATE TABLE IF NOT EXISTS indicators_derived (
	stock_code    TEXT NOT NULL,
	report_period TEXT NOT NULL,
	indicators    TEXT NOT NULL,
	PRIMARY KEY (stock_code, report_period)
);

CREATE TABLE IF NOT EXISTS report_files (
	id            TEXT PRIMARY KEY,
	stock_code    TEXT NOT NULL,
	report_period TEXT NOT NULL,
	report_type   TEXT NOT NULL,
	file_type     TEXT,
	file_path     TEXT,
	txt_path      TEXT,
	downloaded_at DATETIME,
	file_size     INTEGER NOT NULL DEFAULT 0,
	parse_status  TEXT NOT NULL DEFAULT 'PENDING',
	UNIQUE (stock_code, report_period, report_type)
);

CREATE TABLE IF NOT EXISTS metric_definitions (
	code        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	benchmark   TEXT
);

CREATE INDEX IF NOT EXISTS idx_statements_raw_stock ON statements_raw(stock_code);
CREATE INDEX IF NOT EXISTS idx_report_files_stock_period ON report_files(stock_code, report_period);
`

// seedMetricDefinitions pre-fills the metric dictionary consumed by the
// presentation layer.
var seedMetricDefinitions = []model.MetricDefinition{
	{Code: "roe", Name: "Return on equity", Description: "How efficiently shareholder capital is put to work.", Benchmark: "> 15% is strong, < 10% is mediocre"},
	{Code: "gross_margin", Name: "Gross margin", Description: "Direct profitability and pricing power of the product.", Benchmark: "premium brands > 90%, typical manufacturing 20-30%"},
	{Code: "debt_to_asset", Name: "Debt-to-asset ratio", Description: "Balance-sheet leverage and financing risk.", Benchmark: "< 60% is generally safe, financials excepted"},
	{Code: "cfo_net", Name: "Operating cash flow", Description: "Cash the business actually collects from selling.", Benchmark: "should exceed net income over the long run"},
	{Code: "fcf", Name: "Free cash flow", Description: "Operating cash flow net of capital expenditure.", Benchmark: "> 0 means self-funding"},
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	for _, d := range seedMetricDefinitions {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO metric_definitions (code, name, description, benchmark) VALUES (?, ?, ?, ?)`,
			d.Code, d.Name, d.Description, d.Benchmark,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed metric %s", d.Code)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertRaw(ctx context.Context, rec model.RawFinancialRecord) (bool, error) {
	fieldsJSON, auxJSON, verifJSON, err := marshalRaw(rec)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: begin upsert raw")
	}
	defer tx.Rollback() //nolint:errcheck

	var locked bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_locked FROM statements_raw WHERE stock_code = ? AND report_period = ?`,
		rec.StockCode, rec.ReportPeriod,
	).Scan(&locked)
	if err != nil && err != sql.ErrNoRows {
		return false, eris.Wrap(err, "sqlite: check lock")
	}
	if locked {
		zap.L().Info("record locked, skipping automated update",
			zap.String("stock", rec.StockCode),
			zap.String("period", rec.ReportPeriod),
		)
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO statements_raw
			(stock_code, report_period, report_type, market, currency, data_quality, is_locked, fields, aux, verification, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (stock_code, report_period) DO UPDATE SET
			report_type = excluded.report_type,
			market = excluded.market,
			currency = excluded.currency,
			data_quality = excluded.data_quality,
			is_locked = excluded.is_locked,
			fields = excluded.fields,
			aux = excluded.aux,
			verification = excluded.verification,
			updated_at = excluded.updated_at`,
		rec.StockCode, rec.ReportPeriod, string(rec.ReportType), string(rec.Market), rec.Currency,
		string(rec.Quality), rec.Locked, fieldsJSON, auxJSON, verifJSON, time.Now().UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: upsert raw %s/%s", rec.StockCode, rec.ReportPeriod)
	}

	if err := tx.Commit(); err != nil {
		return false, eris.Wrap(err, "sqlite: commit upsert raw")
	}
	return true, nil
}

const rawColumns = `stock_code, report_period, report_type, market, currency, data_quality, is_locked, fields, aux, verification, updated_at`

func (s *SQLiteStore) GetRaw(ctx context.Context, stock, period string) (*model.RawFinancialRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+rawColumns+` FROM statements_raw WHERE stock_code = ? AND report_period = ?`,
		stock, period,
	)
	rec, err := scanRaw(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) ListRaw(ctx context.Context, stock string) ([]model.RawFinancialRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rawColumns+` FROM statements_raw WHERE stock_code = ? ORDER BY report_period ASC`,
		stock,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list raw")
	}
	defer rows.Close()

	var recs []model.RawFinancialRecord
	for rows.Next() {
		rec, err := scanRaw(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list raw iterate")
}

func (s *SQLiteStore) ManualOverride(ctx context.Context, stock, period, field string, value float64) error {
	if !model.IsCanonicalField(field) {
		return eris.Errorf("store: %q is not a canonical field", field)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin manual override")
	}
	defer tx.Rollback() //nolint:errcheck

	var fieldsJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT fields FROM statements_raw WHERE stock_code = ? AND report_period = ?`,
		stock, period,
	).Scan(&fieldsJSON)
	if err == sql.ErrNoRows {
		return eris.Errorf("store: no record for %s/%s", stock, period)
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: load fields for override")
	}

	var fields model.Fields
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return eris.Wrap(err, "sqlite: unmarshal fields")
	}
	fields.Set(field, model.Float(value))

	updated, err := json.Marshal(fields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal fields")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE statements_raw
		 SET fields = ?, is_locked = 1, data_quality = ?, updated_at = ?
		 WHERE stock_code = ? AND report_period = ?`,
		string(updated), string(model.QualityManual), time.Now().UTC(), stock, period,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: manual override %s/%s", stock, period)
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit manual override")
	}

	zap.L().Info("manual override applied, record locked",
		zap.String("stock", stock),
		zap.String("period", period),
		zap.String("field", field),
		zap.Float64("value", value),
	)
	return nil
}

func (s *SQLiteStore) SetQuality(ctx context.Context, stock, period string, status model.QualityState, detail *model.VerificationDetail) error {
	var detailJSON any
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal verification detail")
		}
		detailJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE statements_raw SET data_quality = ?, verification = ? WHERE stock_code = ? AND report_period = ?`,
		string(status), detailJSON, stock, period,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set quality %s/%s", stock, period)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: no record for %s/%s", stock, period)
	}
	return nil
}

func (s *SQLiteStore) ReplaceDerived(ctx context.Context, stock string, recs []model.DerivedIndicatorRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace derived")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM indicators_derived WHERE stock_code = ?`, stock); err != nil {
		return eris.Wrap(err, "sqlite: clear derived")
	}

	for _, rec := range recs {
		indJSON, err := json.Marshal(rec.Indicators)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal indicators")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO indicators_derived (stock_code, report_period, indicators) VALUES (?, ?, ?)`,
			rec.StockCode, rec.ReportPeriod, string(indJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert derived %s/%s", rec.StockCode, rec.ReportPeriod)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace derived")
}

func (s *SQLiteStore) ListDerived(ctx context.Context, stock string) ([]model.DerivedIndicatorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stock_code, report_period, indicators FROM indicators_derived
		 WHERE stock_code = ? ORDER BY report_period ASC`,
		stock,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list derived")
	}
	defer rows.Close()

	var recs []model.DerivedIndicatorRecord
	for rows.Next() {
		var rec model.DerivedIndicatorRecord
		var indJSON string
		if err := rows.Scan(&rec.StockCode, &rec.ReportPeriod, &indJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan derived")
		}
		if err := json.Unmarshal([]byte(indJSON), &rec.Indicators); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal indicators")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list derived iterate")
}

func (s *SQLiteStore) UpsertFile(ctx context.Context, rec model.DocumentFileRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.DownloadedAt.IsZero() {
		rec.DownloadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_files
			(id, stock_code, report_period, report_type, file_type, file_path, txt_path, downloaded_at, file_size, parse_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (stock_code, report_period, report_type) DO UPDATE SET
			file_type = excluded.file_type,
			file_path = excluded.file_path,
			txt_path = excluded.txt_path,
			downloaded_at = excluded.downloaded_at,
			file_size = excluded.file_size,
			parse_status = excluded.parse_status`,
		rec.ID, rec.StockCode, rec.ReportPeriod, string(rec.ReportType), rec.FileType,
		rec.FilePath, nullIfEmpty(rec.TxtPath), rec.DownloadedAt, rec.FileSize, string(rec.ParseStatus),
	)
	return eris.Wrapf(err, "sqlite: upsert file %s/%s", rec.StockCode, rec.ReportPeriod)
}

func (s *SQLiteStore) ListFiles(ctx context.Context, stock string) ([]model.DocumentFileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stock_code, report_period, report_type, file_type, file_path, txt_path, downloaded_at, file_size, parse_status
		FROM report_files WHERE stock_code = ? ORDER BY report_period ASC`,
		stock,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list files")
	}
	defer rows.Close()

	var recs []model.DocumentFileRecord
	for rows.Next() {
		var rec model.DocumentFileRecord
		var rt, status string
		var txt sql.NullString
		if err := rows.Scan(&rec.ID, &rec.StockCode, &rec.ReportPeriod, &rt, &rec.FileType,
			&rec.FilePath, &txt, &rec.DownloadedAt, &rec.FileSize, &status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan file")
		}
		rec.ReportType = model.ReportType(rt)
		rec.ParseStatus = model.ParseStatus(status)
		rec.TxtPath = txt.String
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list files iterate")
}

func (s *SQLiteStore) SetFileParseStatus(ctx context.Context, stock, period string, rt model.ReportType, status model.ParseStatus, txtPath string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE report_files SET parse_status = ?, txt_path = ? WHERE stock_code = ? AND report_period = ? AND report_type = ?`,
		string(status), nullIfEmpty(txtPath), stock, period, string(rt),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set parse status %s/%s", stock, period)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: no file record for %s/%s (%s)", stock, period, rt)
	}
	return nil
}

func (s *SQLiteStore) LocateText(ctx context.Context, stock, period string) (string, error) {
	var txt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT txt_path FROM report_files
		WHERE stock_code = ? AND report_period = ? AND txt_path IS NOT NULL
		ORDER BY downloaded_at DESC LIMIT 1`,
		stock, period,
	).Scan(&txt)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "sqlite: locate text")
	}
	return txt.String, nil
}

func (s *SQLiteStore) MetricDefinitions(ctx context.Context) ([]model.MetricDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, description, benchmark FROM metric_definitions ORDER BY code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: metric definitions")
	}
	defer rows.Close()

	var defs []model.MetricDefinition
	for rows.Next() {
		var d model.MetricDefinition
		if err := rows.Scan(&d.Code, &d.Name, &d.Description, &d.Benchmark); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric definition")
		}
		defs = append(defs, d)
	}
	return defs, eris.Wrap(rows.Err(), "sqlite: metric definitions iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func marshalRaw(rec model.RawFinancialRecord) (fields, aux, verif any, err error) {
	f, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal fields")
	}
	fields = string(f)

	if len(rec.Aux) > 0 {
		a, err := json.Marshal(rec.Aux)
		if err != nil {
			return nil, nil, nil, eris.Wrap(err, "store: marshal aux")
		}
		aux = string(a)
	}

	if rec.Verification != nil {
		v, err := json.Marshal(rec.Verification)
		if err != nil {
			return nil, nil, nil, eris.Wrap(err, "store: marshal verification")
		}
		verif = string(v)
	}
	return fields, aux, verif, nil
}

func scanRaw(row scannable) (*model.RawFinancialRecord, error) {
	var rec model.RawFinancialRecord
	var rt, market, quality, fieldsJSON string
	var currency, auxJSON, verifJSON sql.NullString

	err := row.Scan(&rec.StockCode, &rec.ReportPeriod, &rt, &market, &currency,
		&quality, &rec.Locked, &fieldsJSON, &auxJSON, &verifJSON, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan raw")
	}

	rec.ReportType = model.ReportType(rt)
	rec.Market = model.Market(market)
	rec.Currency = currency.String
	rec.Quality = model.QualityState(quality)

	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal fields")
	}
	if auxJSON.Valid {
		if err := json.Unmarshal([]byte(auxJSON.String), &rec.Aux); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal aux")
		}
	}
	if verifJSON.Valid {
		rec.Verification = &model.VerificationDetail{}
		if err := json.Unmarshal([]byte(verifJSON.String), rec.Verification); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal verification")
		}
	}
	return &rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
