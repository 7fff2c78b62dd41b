package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Backup     BackupConfig     `yaml:"backup"`
	Ledger     LedgerConfig     `yaml:"ledger"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	ShutdownTimeout int `yaml:"shutdown_timeout"` // seconds
}

type GatewayConfig struct {
	Port      int             `yaml:"port"`
	ServerURL string          `yaml:"server_url"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Requests int     `yaml:"requests"`
	Window   int     `yaml:"window"` // seconds
	RPS      float64 `yaml:"rps"`    // fallback token-bucket limit per caller
	Burst    int     `yaml:"burst"`
}

type DatabaseConfig struct {
	// Driver: "sqlite" (основной) или "memory" (учебный in-memory вариант).
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// SeedFile: стартовый каталог пользователей и вещей, опционально
	SeedFile string `yaml:"seed_file"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type LedgerConfig struct {
	Enabled      bool         `yaml:"enabled"`
	Sheets       SheetsConfig `yaml:"sheets"`
	ExcelPath    string       `yaml:"excel_path"`
	PollInterval int          `yaml:"poll_interval"` // seconds
	BatchSize    int          `yaml:"batch_size"`
	Retry        RetryConfig  `yaml:"retry"`
}

type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
}

type RetryConfig struct {
	MaxRetries    int     `yaml:"max_retries"`
	InitialDelay  int     `yaml:"initial_delay"` // seconds
	MaxDelay      int     `yaml:"max_delay"`     // seconds
	BackoffFactor float64 `yaml:"backoff_factor"`
}

func Load(configPath string) (*Config, error) {
	// .env опционален: переменные могут прийти и из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	if c.Gateway.ServerURL == "" {
		return errors.New("gateway server_url is required")
	}

	if c.Ledger.Enabled {
		sheetsConfigured := c.Ledger.Sheets.CredentialsFile != "" && c.Ledger.Sheets.SpreadsheetID != ""
		if !sheetsConfigured && c.Ledger.ExcelPath == "" {
			return errors.New("ledger is enabled but neither sheets nor excel_path is configured")
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 9090
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = 8080
	}
	if c.Gateway.ServerURL == "" {
		c.Gateway.ServerURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Gateway.RateLimit.Requests == 0 {
		c.Gateway.RateLimit.Requests = 50
	}
	if c.Gateway.RateLimit.Window == 0 {
		c.Gateway.RateLimit.Window = 60
	}
	if c.Gateway.RateLimit.Burst == 0 {
		c.Gateway.RateLimit.Burst = 5
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9091
	}
	if c.Ledger.PollInterval == 0 {
		c.Ledger.PollInterval = 2
	}
	if c.Ledger.BatchSize == 0 {
		c.Ledger.BatchSize = 20
	}
	if c.Ledger.Retry.MaxRetries == 0 {
		c.Ledger.Retry.MaxRetries = 5
	}
	if c.Ledger.Retry.InitialDelay == 0 {
		c.Ledger.Retry.InitialDelay = 2
	}
	if c.Ledger.Retry.MaxDelay == 0 {
		c.Ledger.Retry.MaxDelay = 60
	}
	if c.Ledger.Retry.BackoffFactor == 0 {
		c.Ledger.Retry.BackoffFactor = 2
	}
}
