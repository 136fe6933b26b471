package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr     string `mapstructure:"addr"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"server"`

	Renderer struct {
		BaseURL         string `mapstructure:"base_url"`
		Token           string `mapstructure:"token"`
		TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
		PollIntervalMS  int    `mapstructure:"poll_interval_ms"`
		PollTimeoutSecs int    `mapstructure:"poll_timeout_seconds"`
	} `mapstructure:"renderer"`

	Delivery struct {
		GroupSize    int `mapstructure:"group_size"`
		DefaultCount int `mapstructure:"default_count"`
	} `mapstructure:"delivery"`

	Postgres struct {
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		DBName       string `mapstructure:"db_name"`
		SSLMode      string `mapstructure:"ssl_mode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
	} `mapstructure:"postgres"`
}

func Load() Config {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	_ = v.ReadInConfig() // optional; env can fully configure

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("unable to decode config: %w", err))
	}
	validate(&cfg)
	return cfg
}

func validate(c *Config) {
	if c.Server.Addr == "" { c.Server.Addr = ":8080" }
	if c.Renderer.TimeoutSeconds <= 0 { c.Renderer.TimeoutSeconds = 30 }
	if c.Renderer.PollIntervalMS <= 0 { c.Renderer.PollIntervalMS = 1000 }
	if c.Renderer.PollTimeoutSecs <= 0 { c.Renderer.PollTimeoutSecs = 60 }
	if c.Delivery.GroupSize <= 0 { c.Delivery.GroupSize = 3 }
	if c.Delivery.DefaultCount <= 0 { c.Delivery.DefaultCount = 12 }
	if c.Postgres.Port == 0 { c.Postgres.Port = 5432 }
	if c.Postgres.SSLMode == "" { c.Postgres.SSLMode = "disable" }
	if c.Postgres.MaxOpenConns == 0 { c.Postgres.MaxOpenConns = 10 }
	if c.Postgres.MaxIdleConns == 0 { c.Postgres.MaxIdleConns = 10 }
}

// HistoryEnabled reports whether a batch history database is configured.
func (c Config) HistoryEnabled() bool {
	return c.Postgres.Host != "" && c.Postgres.DBName != ""
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}

func (c Config) RendererTimeout() time.Duration {
	return time.Duration(c.Renderer.TimeoutSeconds) * time.Second
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Renderer.PollIntervalMS) * time.Millisecond
}

func (c Config) PollTimeout() time.Duration {
	return time.Duration(c.Renderer.PollTimeoutSecs) * time.Second
}
