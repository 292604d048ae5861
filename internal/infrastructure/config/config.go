package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Focus       FocusConfig
	Marketplace MarketplaceConfig
	Storage     StorageConfig
	Fiscal      FiscalConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	MigrationsPath  string
	// AutoMigrate applies the embedded migrations when the server starts
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds settings for verifying bearer tokens issued by the auth provider
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxBodySize        int64
	CORSAllowOrigins   []string
	CORSAllowHeaders   []string
	// RateLimitPerSecond is the sustained request rate per company; 0 disables limiting
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// FocusConfig holds the invoicing API (Focus NFe) settings
type FocusConfig struct {
	HomologationURL   string
	ProductionURL     string
	HomologationToken string
	ProductionToken   string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// MarketplaceConfig holds sales channel API settings
type MarketplaceConfig struct {
	MercadoLivre MercadoLivreConfig
	Shopee       ShopeeConfig
}

// MercadoLivreConfig holds Mercado Livre API settings
type MercadoLivreConfig struct {
	Enabled     bool
	BaseURL     string
	SellerID    string
	AccessToken string
	Timeout     time.Duration
}

// ShopeeConfig holds Shopee Open Platform settings
type ShopeeConfig struct {
	Enabled     bool
	BaseURL     string
	PartnerID   int64
	PartnerKey  string
	ShopID      int64
	AccessToken string
	Timeout     time.Duration
}

// StorageConfig holds object storage settings for invoice archives
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string
}

// FiscalConfig holds invoice emission and reconciliation settings
type FiscalConfig struct {
	DefaultEnvironment string
	LegacyStatusProbe  bool
	BatchConcurrency   int
	BatchDelay         time.Duration
	EmissionLockTTL    time.Duration
	IssuerCNPJ         string
	NatureOfOperation  string
	DefaultNCM         string
	DefaultCFOP        string
	DefaultICMSCode    string
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled            bool
	FiscalSyncInterval time.Duration
	OrderSyncInterval  time.Duration
	JobTimeout         time.Duration
	Companies          []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	LogsEnabled       bool
	ProfilingEnabled  bool
	PyroscopeURL      string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BKO_ prefix (e.g., BKO_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BKO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			MigrationsPath:  v.GetString("database.migrations_path"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:        v.GetDuration("http.read_timeout"),
			WriteTimeout:       v.GetDuration("http.write_timeout"),
			IdleTimeout:        v.GetDuration("http.idle_timeout"),
			MaxBodySize:        v.GetInt64("http.max_body_size"),
			CORSAllowOrigins:   v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowHeaders:   v.GetStringSlice("http.cors_allow_headers"),
			RateLimitPerSecond: v.GetFloat64("http.rate_limit_per_second"),
			RateLimitBurst:     v.GetInt("http.rate_limit_burst"),
		},
		Focus: FocusConfig{
			HomologationURL:   v.GetString("focus.homologation_url"),
			ProductionURL:     v.GetString("focus.production_url"),
			HomologationToken: v.GetString("focus.homologation_token"),
			ProductionToken:   v.GetString("focus.production_token"),
			Timeout:           v.GetDuration("focus.timeout"),
			RequestsPerSecond: v.GetFloat64("focus.requests_per_second"),
			Burst:             v.GetInt("focus.burst"),
		},
		Marketplace: MarketplaceConfig{
			MercadoLivre: MercadoLivreConfig{
				Enabled:     v.GetBool("marketplace.mercadolivre.enabled"),
				BaseURL:     v.GetString("marketplace.mercadolivre.base_url"),
				SellerID:    v.GetString("marketplace.mercadolivre.seller_id"),
				AccessToken: v.GetString("marketplace.mercadolivre.access_token"),
				Timeout:     v.GetDuration("marketplace.mercadolivre.timeout"),
			},
			Shopee: ShopeeConfig{
				Enabled:     v.GetBool("marketplace.shopee.enabled"),
				BaseURL:     v.GetString("marketplace.shopee.base_url"),
				PartnerID:   v.GetInt64("marketplace.shopee.partner_id"),
				PartnerKey:  v.GetString("marketplace.shopee.partner_key"),
				ShopID:      v.GetInt64("marketplace.shopee.shop_id"),
				AccessToken: v.GetString("marketplace.shopee.access_token"),
				Timeout:     v.GetDuration("marketplace.shopee.timeout"),
			},
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			Prefix:          v.GetString("storage.prefix"),
		},
		Fiscal: FiscalConfig{
			DefaultEnvironment: v.GetString("fiscal.default_environment"),
			LegacyStatusProbe:  v.GetBool("fiscal.legacy_status_probe"),
			BatchConcurrency:   v.GetInt("fiscal.batch_concurrency"),
			BatchDelay:         v.GetDuration("fiscal.batch_delay"),
			EmissionLockTTL:    v.GetDuration("fiscal.emission_lock_ttl"),
			IssuerCNPJ:         v.GetString("fiscal.issuer_cnpj"),
			NatureOfOperation:  v.GetString("fiscal.nature_of_operation"),
			DefaultNCM:         v.GetString("fiscal.default_ncm"),
			DefaultCFOP:        v.GetString("fiscal.default_cfop"),
			DefaultICMSCode:    v.GetString("fiscal.default_icms_code"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			FiscalSyncInterval: v.GetDuration("scheduler.fiscal_sync_interval"),
			OrderSyncInterval:  v.GetDuration("scheduler.order_sync_interval"),
			JobTimeout:         v.GetDuration("scheduler.job_timeout"),
			Companies:          v.GetStringSlice("scheduler.companies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeURL:      v.GetString("telemetry.pyroscope_url"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "backoffice"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "backoffice"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "backoffice-auth"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitPerSecond > 0 && cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = int(cfg.HTTP.RateLimitPerSecond) * 2
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Company-ID"}
	}
	if cfg.Focus.HomologationURL == "" {
		cfg.Focus.HomologationURL = "https://homologacao.focusnfe.com.br"
	}
	if cfg.Focus.ProductionURL == "" {
		cfg.Focus.ProductionURL = "https://api.focusnfe.com.br"
	}
	if cfg.Focus.Timeout == 0 {
		cfg.Focus.Timeout = 30 * time.Second
	}
	if cfg.Focus.RequestsPerSecond == 0 {
		cfg.Focus.RequestsPerSecond = 5
	}
	if cfg.Focus.Burst == 0 {
		cfg.Focus.Burst = 3
	}
	if cfg.Marketplace.MercadoLivre.BaseURL == "" {
		cfg.Marketplace.MercadoLivre.BaseURL = "https://api.mercadolibre.com"
	}
	if cfg.Marketplace.MercadoLivre.Timeout == 0 {
		cfg.Marketplace.MercadoLivre.Timeout = 30 * time.Second
	}
	if cfg.Marketplace.Shopee.BaseURL == "" {
		cfg.Marketplace.Shopee.BaseURL = "https://partner.shopeemobile.com"
	}
	if cfg.Marketplace.Shopee.Timeout == 0 {
		cfg.Marketplace.Shopee.Timeout = 30 * time.Second
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "nfe"
	}
	if cfg.Fiscal.DefaultEnvironment == "" {
		cfg.Fiscal.DefaultEnvironment = "homologacao"
	}
	if cfg.Fiscal.BatchConcurrency == 0 {
		cfg.Fiscal.BatchConcurrency = 3
	}
	if cfg.Fiscal.BatchDelay == 0 {
		cfg.Fiscal.BatchDelay = time.Second
	}
	if cfg.Fiscal.EmissionLockTTL == 0 {
		cfg.Fiscal.EmissionLockTTL = 2 * time.Minute
	}
	if cfg.Fiscal.NatureOfOperation == "" {
		cfg.Fiscal.NatureOfOperation = "Venda de mercadoria"
	}
	if cfg.Fiscal.DefaultCFOP == "" {
		cfg.Fiscal.DefaultCFOP = "5102"
	}
	if cfg.Fiscal.DefaultICMSCode == "" {
		cfg.Fiscal.DefaultICMSCode = "102"
	}
	if cfg.Scheduler.FiscalSyncInterval == 0 {
		cfg.Scheduler.FiscalSyncInterval = 10 * time.Minute
	}
	if cfg.Scheduler.OrderSyncInterval == 0 {
		cfg.Scheduler.OrderSyncInterval = 15 * time.Minute
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "backoffice"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	switch c.Fiscal.DefaultEnvironment {
	case "homologacao", "producao":
	default:
		return fmt.Errorf("fiscal.default_environment must be homologacao or producao, got %q", c.Fiscal.DefaultEnvironment)
	}
	if c.Fiscal.BatchConcurrency < 1 {
		return fmt.Errorf("fiscal.batch_concurrency must be at least 1")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	if c.Marketplace.Shopee.Enabled && (c.Marketplace.Shopee.PartnerID == 0 || c.Marketplace.Shopee.PartnerKey == "") {
		return fmt.Errorf("marketplace.shopee.partner_id and partner_key are required when shopee is enabled")
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns host:port for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
