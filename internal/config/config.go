package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Hypixel  HypixelConfig  `mapstructure:"hypixel"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type HypixelConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PageBatchSize int           `mapstructure:"page_batch_size"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	RateLimitRPS  float64       `mapstructure:"rate_limit_rps"`
}

type RefreshConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Schedule    string        `mapstructure:"schedule"`
	RunOnBoot   bool          `mapstructure:"run_on_boot"`
	StaleMaxAge time.Duration `mapstructure:"stale_max_age"`
}

type CatalogConfig struct {
	PetListPath     string `mapstructure:"pet_list_path"`
	ProgressionPath string `mapstructure:"progression_path"`
}

type AnalysisConfig struct {
	DefaultSkill string `mapstructure:"default_skill"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.path", "pet_prices.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("hypixel.base_url", "https://api.hypixel.net/v2/skyblock/auctions")
	v.SetDefault("hypixel.timeout", "15s")
	v.SetDefault("hypixel.page_batch_size", 20)
	v.SetDefault("hypixel.max_retries", 3)
	v.SetDefault("hypixel.retry_backoff", "1s")
	v.SetDefault("hypixel.rate_limit_rps", 40)
	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.schedule", "@every 5m")
	v.SetDefault("refresh.run_on_boot", true)
	v.SetDefault("refresh.stale_max_age", "5m")
	v.SetDefault("catalog.pet_list_path", "data/petlist.json")
	v.SetDefault("catalog.progression_path", "data/golden_dragon.json")
	v.SetDefault("analysis.default_skill", "Mining")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
