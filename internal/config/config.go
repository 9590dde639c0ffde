package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Documents DocumentsConfig `yaml:"documents" mapstructure:"documents"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// FetchConfig configures the statement providers.
type FetchConfig struct {
	// CutoffYear drops periods that end before January 1 of this year.
	CutoffYear      int    `yaml:"cutoff_year" mapstructure:"cutoff_year"`
	DomesticBaseURL string `yaml:"domestic_base_url" mapstructure:"domestic_base_url"`
	HKBaseURL       string `yaml:"hk_base_url" mapstructure:"hk_base_url"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries      int    `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSecond   int    `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// DocumentsConfig configures filing acquisition and text conversion.
type DocumentsConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	PortalBaseURL string `yaml:"portal_base_url" mapstructure:"portal_base_url"`
	LookbackDays  int    `yaml:"lookback_days" mapstructure:"lookback_days"`
	// OCRProvider selects the text extraction backend: "local" runs the
	// pdftotext binary, "mistral" calls the Mistral OCR API.
	OCRProvider   string `yaml:"ocr_provider" mapstructure:"ocr_provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
}

// ReconcileConfig configures cross-source verification.
type ReconcileConfig struct {
	// Tolerance is the relative deviation below which two values agree.
	Tolerance float64 `yaml:"tolerance" mapstructure:"tolerance"`
	// UnitBaseFloor: extracted values at or above it are taken as base units.
	UnitBaseFloor float64 `yaml:"unit_base_floor" mapstructure:"unit_base_floor"`
	// UnitScaleCeiling: values below it are assumed to be in 1e8 units.
	UnitScaleCeiling float64 `yaml:"unit_scale_ceiling" mapstructure:"unit_scale_ceiling"`
	// ExcerptLimit bounds the filing text sent to the model, in runes.
	ExcerptLimit int `yaml:"excerpt_limit" mapstructure:"excerpt_limit"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the configuration needed for the given mode. Modes map to
// command groups: "fetch", "documents", "validate", "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(cond bool, msg string) {
		if cond {
			problems = append(problems, msg)
		}
	}

	switch c.Store.Driver {
	case "sqlite":
		check(c.Store.Path == "", "store.path is required for the sqlite driver")
	case "postgres":
		check(c.Store.DatabaseURL == "", "store.database_url is required for the postgres driver")
	default:
		check(true, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "fetch":
		check(c.Fetch.CutoffYear < 1990, "fetch.cutoff_year must be >= 1990")
		check(c.Fetch.RatePerSecond <= 0, "fetch.rate_per_second must be > 0")
	case "documents":
		check(c.Documents.Dir == "", "documents.dir is required")
		check(c.Documents.LookbackDays <= 0, "documents.lookback_days must be > 0")
		check(c.Documents.OCRProvider == "mistral" && c.Documents.MistralKey == "",
			"documents.mistral_key is required for the mistral provider")
	case "validate":
		check(c.Reconcile.Tolerance <= 0 || c.Reconcile.Tolerance >= 1, "reconcile.tolerance must be in (0, 1)")
		check(c.Reconcile.UnitScaleCeiling > c.Reconcile.UnitBaseFloor, "reconcile.unit_scale_ceiling must not exceed unit_base_floor")
	case "serve":
		check(c.Server.Port <= 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNDAMENTALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "fundamentals.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("fetch.cutoff_year", 2010)
	v.SetDefault("fetch.domestic_base_url", "https://money.finance.sina.com.cn")
	v.SetDefault("fetch.hk_base_url", "https://stock.finance.sina.com.cn")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_second", 2)
	v.SetDefault("documents.dir", "periodic_reports")
	v.SetDefault("documents.portal_base_url", "http://www.cninfo.com.cn")
	v.SetDefault("documents.lookback_days", 1095)
	v.SetDefault("documents.ocr_provider", "local")
	v.SetDefault("documents.pdftotext_path", "pdftotext")
	v.SetDefault("reconcile.tolerance", 0.02)
	v.SetDefault("reconcile.unit_base_floor", 1e6)
	v.SetDefault("reconcile.unit_scale_ceiling", 1e4)
	v.SetDefault("reconcile.excerpt_limit", 60000)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
