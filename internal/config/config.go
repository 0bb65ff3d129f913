// Package config provides configuration management for tradesim.
package config

import "time"

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	DataSource DataSourceConfig `mapstructure:"data_source"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DataSourceConfig selects and tunes the market data provider
type DataSourceConfig struct {
	Type            string            `mapstructure:"type" validate:"required,oneof=csv alphavantage synthetic"`
	CSVPath         string            `mapstructure:"csv_path"`
	BaseURL         string            `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey          string            `mapstructure:"api_key"`
	ExchangeSuffix  string            `mapstructure:"exchange_suffix"`
	SymbolMap       map[string]string `mapstructure:"symbol_map"`
	TimeoutSeconds  int               `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxRetries      int               `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RateLimit       float64           `mapstructure:"rate_limit" validate:"gt=0"`
	CacheTTLSeconds int               `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	Seed            int64             `mapstructure:"seed"`
}

// BacktestConfig represents backtesting defaults
type BacktestConfig struct {
	StartDate            string  `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate              string  `mapstructure:"end_date" validate:"required,datetime=2006-01-02"`
	InitialCapital       float64 `mapstructure:"initial_capital" validate:"gt=0"`
	Commission           float64 `mapstructure:"commission" validate:"gte=0"`
	FallbackMode         string  `mapstructure:"fallback_mode" validate:"required,fallbackmode"`
	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations" validate:"gt=0"`
	WalkForwardWindows   int     `mapstructure:"walk_forward_windows" validate:"gt=0"`
	MaxConcurrency       int     `mapstructure:"max_concurrency" validate:"gt=0"`
	OutputPath           string  `mapstructure:"output_path"`
	RiskFreeRate         float64 `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
	Seed                 int64   `mapstructure:"seed"`
}

// PredictionConfig represents prediction defaults
type PredictionConfig struct {
	Days            int   `mapstructure:"days" validate:"gt=0,lte=365"`
	Confidence      int   `mapstructure:"confidence" validate:"gte=0,lte=100"`
	UseML           bool  `mapstructure:"use_ml"`
	CacheTTLSeconds int   `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	Seed            int64 `mapstructure:"seed"`
}

// SchedulerConfig represents the periodic prediction refresh
type SchedulerConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	PredictionRefresh string   `mapstructure:"prediction_refresh" validate:"omitempty,cronspec"`
	Symbols           []string `mapstructure:"symbols" validate:"dive,required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig points at the AWS Secrets Manager entry holding the market data key
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Timeout returns the data source request timeout
func (d DataSourceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// CacheTTL returns the data source cache lifetime
func (d DataSourceConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheTTLSeconds) * time.Second
}

// CacheTTL returns the prediction cache lifetime
func (p PredictionConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}
