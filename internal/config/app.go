package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// App is the service-level configuration shared by the server, CLI and ingest commands.
type App struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Trading Trading       `mapstructure:"trading"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Markets []string      `mapstructure:"markets"`

	// Datasets are CSV files loaded into the stores at startup.
	Datasets []Dataset `mapstructure:"datasets"`
}

// Dataset names the trade table and market data files of one market.
type Dataset struct {
	Market string `mapstructure:"market"`
	Trades string `mapstructure:"trades"` // trade table CSV, optional
	Bars   string `mapstructure:"bars"`   // market data CSV, optional
}

type ServerConfig struct {
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst int     `mapstructure:"rate_burst"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // memory | postgres
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
	SQLitePath    string `mapstructure:"sqlite_path"` // local run journal, empty disables
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

type BatchConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

// Load reads the app configuration from defaults, an optional config file
// and BACKTEST_* environment variables (a .env file in the working directory is loaded first).
func Load(configPath string) (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("backtest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("BACKTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg App
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.sqlite_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	d := DefaultTrading()
	v.SetDefault("trading.initial_capital", d.InitialCapital)
	v.SetDefault("trading.position_size_percent", d.PositionSizePercent)
	v.SetDefault("trading.fixed_commission", d.FixedCommission)
	v.SetDefault("trading.variable_fee", d.VariableFee)
	v.SetDefault("trading.bid_ask_spread", d.BidAskSpread)
	v.SetDefault("trading.risk_free_rate", d.RiskFreeRate)

	v.SetDefault("batch.parallelism", 4)
	v.SetDefault("markets", []string{"FTSE100", "NASDAQ100"})
}

// Validate checks the service configuration.
func (a *App) Validate() error {
	switch a.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if a.Storage.PostgresDSN == "" || a.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("storage.postgres_dsn and storage.clickhouse_dsn are required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q", BackendMemory, BackendPostgres)
	}
	if a.Batch.Parallelism < 1 {
		return fmt.Errorf("batch.parallelism must be >= 1")
	}
	if a.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be >= 0")
	}
	if len(a.Markets) == 0 {
		return fmt.Errorf("at least one market is required")
	}
	for i, d := range a.Datasets {
		if d.Market == "" {
			return fmt.Errorf("datasets[%d].market is required", i)
		}
	}
	return a.Trading.Validate()
}
