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
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cron     CronConfig     `mapstructure:"cron"`
	Finance  FinanceConfig  `mapstructure:"finance"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Draft    DraftConfig    `mapstructure:"draft"`
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
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Disabled  bool          `mapstructure:"disabled"`
}

type CronConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	OverdueScan string `mapstructure:"overdue_scan"`
	KPISnapshot string `mapstructure:"kpi_snapshot"`
}

type FinanceConfig struct {
	VATRate float64 `mapstructure:"vat_rate"`
}

type ApprovalConfig struct {
	AutoSkipEnabled         bool    `mapstructure:"auto_skip_enabled"`
	AutoSkipMarginThreshold float64 `mapstructure:"auto_skip_margin_threshold"`
}

type DraftConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CIC")
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
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "60s")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.overdue_scan", "@every 1h")
	v.SetDefault("cron.kpi_snapshot", "0 30 0 * * *")
	v.SetDefault("finance.vat_rate", 0.10)
	v.SetDefault("approval.auto_skip_enabled", true)
	v.SetDefault("approval.auto_skip_margin_threshold", 30)
	v.SetDefault("draft.ttl", "72h")

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
