package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/db"
	"github.com/sells-group/fundamentals-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., bulk statement import).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS statements_raw (
	stock_code    TEXT NOT NULL,
	report_period TEXT NOT NULL,
	report_type   TEXT NOT NULL,
	market        TEXT NOT NULL DEFAULT 'CN',
	currency      TEXT,
	data_quality  TEXT NOT NULL DEFAULT 'UNVERIFIED',
	is_locked     BOOLEAN NOT NULL DEFAULT false,
	fields        JSONB NOT NULL,
	aux           JSONB,
	verification  JSONB,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (stock_code, report_period)
);

CREATE TABLE IF NOT EXISTS indicators_derived (
	stock_code    TEXT NOT NULL,
	report_period TEXT NOT NULL,
	indicators    JSONB NOT NULL,
	PRIMARY KEY (stock_code, report_period)
);

CREATE TABLE IF NOT EXISTS report_files (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	stock_code    TEXT NOT NULL,
	report_period TEXT NOT NULL,
	report_type   TEXT NOT NULL,
	file_type     TEXT,
	file_path     TEXT,
	txt_path      TEXT,
	downloaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	file_size     BIGINT NOT NULL DEFAULT 0,
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	for _, d := range seedMetricDefinitions {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO metric_definitions (code, name, description, benchmark) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO NOTHING`,
			d.Code, d.Name, d.Description, d.Benchmark,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed metric %s", d.Code)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertRaw(ctx context.Context, rec model.RawFinancialRecord) (bool, error) {
	fieldsJSON, auxJSON, verifJSON, err := marshalRaw(rec)
	if err != nil {
		return false, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, eris.Wrap(err, "postgres: begin upsert raw")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var locked bool
	err = tx.QueryRow(ctx,
		`SELECT is_locked FROM statements_raw WHERE stock_code = $1 AND report_period = $2 FOR UPDATE`,
		rec.StockCode, rec.ReportPeriod,
	).Scan(&locked)
	if err != nil && err != pgx.ErrNoRows {
		return false, eris.Wrap(err, "postgres: check lock")
	}
	if locked {
		zap.L().Info("record locked, skipping automated update",
			zap.String("stock", rec.StockCode),
			zap.String("period", rec.ReportPeriod),
		)
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO statements_raw
			(stock_code, report_period, report_type, market, currency, data_quality, is_locked, fields, aux, verification, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (stock_code, report_period) DO UPDATE SET
			report_type = EXCLUDED.report_type,
			market = EXCLUDED.market,
			currency = EXCLUDED.currency,
			data_quality = EXCLUDED.data_quality,
			is_locked = EXCLUDED.is_locked,
			fields = EXCLUDED.fields,
			aux = EXCLUDED.aux,
			verification = EXCLUDED.verification,
			updated_at = EXCLUDED.updated_at`,
		rec.StockCode, rec.ReportPeriod, string(rec.ReportType), string(rec.Market), rec.Currency,
		string(rec.Quality), rec.Locked, fieldsJSON, auxJSON, verifJSON, time.Now().UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: upsert raw %s/%s", rec.StockCode, rec.ReportPeriod)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, eris.Wrap(err, "postgres: commit upsert raw")
	}
	return true, nil
}

// BulkUpsertRaw imports many records in one round trip. Locked rows are left
// untouched by the conflict update, matching the per-record path.
func (s *PostgresStore) BulkUpsertRaw(ctx context.Context, recs []model.RawFinancialRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(recs))
	now := time.Now().UTC()
	for _, rec := range recs {
		fieldsJSON, auxJSON, verifJSON, err := marshalRaw(rec)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{
			rec.StockCode, rec.ReportPeriod, string(rec.ReportType), string(rec.Market), rec.Currency,
			string(rec.Quality), rec.Locked, fieldsJSON, auxJSON, verifJSON, now,
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: "statements_raw",
		Columns: []string{
			"stock_code", "report_period", "report_type", "market", "currency",
			"data_quality", "is_locked", "fields", "aux", "verification", "updated_at",
		},
		ConflictKeys: []string{"stock_code", "report_period"},
		UpdateWhere:  "statements_raw.is_locked = false",
	}, rows)
}

const pgRawColumns = `stock_code, report_period, report_type, market, currency, data_quality, is_locked, fields, aux, verification, updated_at`

func (s *PostgresStore) GetRaw(ctx context.Context, stock, period string) (*model.RawFinancialRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgRawColumns+` FROM statements_raw WHERE stock_code = $1 AND report_period = $2`,
		stock, period,
	)
	rec, err := scanPgRaw(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *PostgresStore) ListRaw(ctx context.Context, stock string) ([]model.RawFinancialRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgRawColumns+` FROM statements_raw WHERE stock_code = $1 ORDER BY report_period ASC`,
		stock,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list raw")
	}
	defer rows.Close()

	var recs []model.RawFinancialRecord
	for rows.Next() {
		rec, err := scanPgRaw(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list raw iterate")
}

func (s *PostgresStore) ManualOverride(ctx context.Context, stock, period, field string, value float64) error {
	if !model.IsCanonicalField(field) {
		return eris.Errorf("store: %q is not a canonical field", field)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin manual override")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var fieldsJSON []byte
	err = tx.QueryRow(ctx,
		`SELECT fields FROM statements_raw WHERE stock_code = $1 AND report_period = $2 FOR UPDATE`,
		stock, period,
	).Scan(&fieldsJSON)
	if err == pgx.ErrNoRows {
		return eris.Errorf("store: no record for %s/%s", stock, period)
	}
	if err != nil {
		return eris.Wrap(err, "postgres: load fields for override")
	}

	var fields model.Fields
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return eris.Wrap(err, "postgres: unmarshal fields")
	}
	fields.Set(field, model.Float(value))

	updated, err := json.Marshal(fields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal fields")
	}

	_, err = tx.Exec(ctx,
		`UPDATE statements_raw
		 SET fields = $1, is_locked = true, data_quality = $2, updated_at = $3
		 WHERE stock_code = $4 AND report_period = $5`,
		updated, string(model.QualityManual), time.Now().UTC(), stock, period,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: manual override %s/%s", stock, period)
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit manual override")
	}

	zap.L().Info("manual override applied, record locked",
		zap.String("stock", stock),
		zap.String("period", period),
		zap.String("field", field),
		zap.Float64("value", value),
	)
	return nil
}

func (s *PostgresStore) SetQuality(ctx context.Context, stock, period string, status model.QualityState, detail *model.VerificationDetail) error {
	var detailJSON []byte
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal verification detail")
		}
		detailJSON = b
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE statements_raw SET data_quality = $1, verification = $2 WHERE stock_code = $3 AND report_period = $4`,
		string(status), detailJSON, stock, period,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set quality %s/%s", stock, period)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: no record for %s/%s", stock, period)
	}
	return nil
}

func (s *PostgresStore) ReplaceDerived(ctx context.Context, stock string, recs []model.DerivedIndicatorRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace derived")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM indicators_derived WHERE stock_code = $1`, stock); err != nil {
		return eris.Wrap(err, "postgres: clear derived")
	}

	rows := make([][]any, 0, len(recs))
	for _, rec := range recs {
		indJSON, err := json.Marshal(rec.Indicators)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal indicators")
		}
		rows = append(rows, []any{rec.StockCode, rec.ReportPeriod, indJSON})
	}
	if _, err := db.CopyFrom(ctx, tx, "indicators_derived",
		[]string{"stock_code", "report_period", "indicators"}, rows); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace derived")
}

func (s *PostgresStore) ListDerived(ctx context.Context, stock string) ([]model.DerivedIndicatorRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT stock_code, report_period, indicators FROM indicators_derived
		 WHERE stock_code = $1 ORDER BY report_period ASC`,
		stock,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list derived")
	}
	defer rows.Close()

	var recs []model.DerivedIndicatorRecord
	for rows.Next() {
		var rec model.DerivedIndicatorRecord
		var indJSON []byte
		if err := rows.Scan(&rec.StockCode, &rec.ReportPeriod, &indJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan derived")
		}
		if err := json.Unmarshal(indJSON, &rec.Indicators); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal indicators")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list derived iterate")
}

func (s *PostgresStore) UpsertFile(ctx context.Context, rec model.DocumentFileRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.DownloadedAt.IsZero() {
		rec.DownloadedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_files
			(id, stock_code, report_period, report_type, file_type, file_path, txt_path, downloaded_at, file_size, parse_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (stock_code, report_period, report_type) DO UPDATE SET
			file_type = EXCLUDED.file_type,
			file_path = EXCLUDED.file_path,
			txt_path = EXCLUDED.txt_path,
			downloaded_at = EXCLUDED.downloaded_at,
			file_size = EXCLUDED.file_size,
			parse_status = EXCLUDED.parse_status`,
		rec.ID, rec.StockCode, rec.ReportPeriod, string(rec.ReportType), rec.FileType,
		rec.FilePath, nullIfEmpty(rec.TxtPath), rec.DownloadedAt, rec.FileSize, string(rec.ParseStatus),
	)
	return eris.Wrapf(err, "postgres: upsert file %s/%s", rec.StockCode, rec.ReportPeriod)
}

func (s *PostgresStore) ListFiles(ctx context.Context, stock string) ([]model.DocumentFileRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, stock_code, report_period, report_type, file_type, file_path, txt_path, downloaded_at, file_size, parse_status
		FROM report_files WHERE stock_code = $1 ORDER BY report_period ASC`,
		stock,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list files")
	}
	defer rows.Close()

	var recs []model.DocumentFileRecord
	for rows.Next() {
		var rec model.DocumentFileRecord
		var rt, status string
		var txt *string
		if err := rows.Scan(&rec.ID, &rec.StockCode, &rec.ReportPeriod, &rt, &rec.FileType,
			&rec.FilePath, &txt, &rec.DownloadedAt, &rec.FileSize, &status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan file")
		}
		rec.ReportType = model.ReportType(rt)
		rec.ParseStatus = model.ParseStatus(status)
		if txt != nil {
			rec.TxtPath = *txt
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list files iterate")
}

func (s *PostgresStore) SetFileParseStatus(ctx context.Context, stock, period string, rt model.ReportType, status model.ParseStatus, txtPath string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE report_files SET parse_status = $1, txt_path = $2 WHERE stock_code = $3 AND report_period = $4 AND report_type = $5`,
		string(status), nullIfEmpty(txtPath), stock, period, string(rt),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set parse status %s/%s", stock, period)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: no file record for %s/%s (%s)", stock, period, rt)
	}
	return nil
}

func (s *PostgresStore) LocateText(ctx context.Context, stock, period string) (string, error) {
	var txt *string
	err := s.pool.QueryRow(ctx, `
		SELECT txt_path FROM report_files
		WHERE stock_code = $1 AND report_period = $2 AND txt_path IS NOT NULL
		ORDER BY downloaded_at DESC LIMIT 1`,
		stock, period,
	).Scan(&txt)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "postgres: locate text")
	}
	if txt == nil {
		return "", nil
	}
	return *txt, nil
}

func (s *PostgresStore) MetricDefinitions(ctx context.Context) ([]model.MetricDefinition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, name, description, benchmark FROM metric_definitions ORDER BY code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: metric definitions")
	}
	defer rows.Close()

	var defs []model.MetricDefinition
	for rows.Next() {
		var d model.MetricDefinition
		if err := rows.Scan(&d.Code, &d.Name, &d.Description, &d.Benchmark); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric definition")
		}
		defs = append(defs, d)
	}
	return defs, eris.Wrap(rows.Err(), "postgres: metric definitions iterate")
}

func scanPgRaw(row pgx.Row) (*model.RawFinancialRecord, error) {
	var rec model.RawFinancialRecord
	var rt, market, quality string
	var currency *string
	var fieldsJSON []byte
	var auxJSON, verifJSON []byte

	err := row.Scan(&rec.StockCode, &rec.ReportPeriod, &rt, &market, &currency,
		&quality, &rec.Locked, &fieldsJSON, &auxJSON, &verifJSON, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan raw")
	}

	rec.ReportType = model.ReportType(rt)
	rec.Market = model.Market(market)
	if currency != nil {
		rec.Currency = *currency
	}
	rec.Quality = model.QualityState(quality)

	if err := json.Unmarshal(fieldsJSON, &rec.Fields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal fields")
	}
	if len(auxJSON) > 0 {
		if err := json.Unmarshal(auxJSON, &rec.Aux); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal aux")
		}
	}
	if len(verifJSON) > 0 {
		rec.Verification = &model.VerificationDetail{}
		if err := json.Unmarshal(verifJSON, rec.Verification); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal verification")
		}
	}
	return &rec, nil
}
