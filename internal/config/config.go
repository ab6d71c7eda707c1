// Package config loads the YAML configuration, applies .env and
// environment overrides, fills defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TradeScout/internal/collector"
	"TradeScout/internal/logger"
	"TradeScout/internal/markethours"
	"TradeScout/internal/publisher"
)

// DefaultPath is used when neither an argument nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Profile is one scan horizon: the bar interval and how far back to fetch.
type Profile struct {
	Name       string   `yaml:"name" validate:"required"`
	Enabled    bool     `yaml:"enabled"`
	Interval   string   `yaml:"interval" validate:"required"`
	Period     string   `yaml:"period" validate:"required"`
	Indicators []string `yaml:"indicators"`
}

// DefaultProfiles returns intraday, swing and positional, all enabled.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "intraday", Enabled: true, Interval: "5m", Period: "1d", Indicators: []string{"RSI", "MACD", "VWAP", "SuperTrend"}},
		{Name: "swing", Enabled: true, Interval: "1h", Period: "1mo", Indicators: []string{"RSI", "MACD", "EMA", "Bollinger"}},
		{Name: "positional", Enabled: true, Interval: "1d", Period: "6mo", Indicators: []string{"SMA", "RSI", "ADX", "ATR"}},
	}
}

type DataSource struct {
	Provider  string                `yaml:"provider" default:"yahoo" validate:"oneof=yahoo alpaca mock"`
	Symbols   []string              `yaml:"symbols" default:"[\"RELIANCE.NS\",\"TCS.NS\",\"INFY.NS\",\"HDFCBANK.NS\",\"ICICIBANK.NS\"]" validate:"min=1,dive,required"`
	CacheTTL  time.Duration         `yaml:"cache_ttl" default:"300s"`
	Workers   int                   `yaml:"workers" default:"5" validate:"gte=1,lte=64"`
	Timeout   time.Duration         `yaml:"request_timeout" default:"10s"`
	Redis     collector.RedisConfig `yaml:"redis"`
	AlpacaKey string                `yaml:"alpaca_api_key"`
	AlpacaSec string                `yaml:"alpaca_api_secret"`
}

type Risk struct {
	PortfolioValue float64 `yaml:"portfolio_value" default:"100000" validate:"gt=0"`
	MaxRiskPct     float64 `yaml:"max_portfolio_risk" default:"2" validate:"gt=0,lte=100"`
	MaxPositionPct float64 `yaml:"max_position_pct" default:"20" validate:"gt=0,lte=100"`
	MaxPositions   int     `yaml:"max_open_positions" default:"5" validate:"gte=1"`
	MinVolume      float64 `yaml:"min_volume" default:"100000" validate:"gte=0"`
	StateFile      string  `yaml:"state_file" default:"data/portfolio.json"`
}

type Telegram struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	Commands bool   `yaml:"commands"`
}

type Email struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server" default:"smtp.gmail.com"`
	SMTPPort   int    `yaml:"smtp_port" default:"587"`
	Sender     string `yaml:"sender"`
	Password   string `yaml:"password"`
	Receiver   string `yaml:"receiver"`
}

type Webhook struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

type Kafka struct {
	Enabled          bool `yaml:"enabled"`
	publisher.Config `yaml:",inline"`
}

type Alerts struct {
	Telegram      Telegram `yaml:"telegram"`
	Email         Email    `yaml:"email"`
	Webhook       Webhook  `yaml:"webhook"`
	Kafka         Kafka    `yaml:"kafka"`
	CheckInterval int      `yaml:"check_interval_minutes" default:"15" validate:"gte=1,lte=60"`
	MinConfidence float64  `yaml:"min_confidence" default:"0.6" validate:"gte=0,lte=1"`
}

// Config holds all application configuration.
type Config struct {
	App struct {
		Name string        `yaml:"name" default:"TradeScout"`
		Log  logger.Config `yaml:"log"`
	} `yaml:"app"`
	DataSource     DataSource         `yaml:"data_source"`
	StrategiesFile string             `yaml:"strategies_file" default:"configs/strategies.yaml"`
	Profiles       []Profile          `yaml:"profiles" validate:"dive"`
	MarketHours    markethours.Config `yaml:"market_hours"`
	Risk           Risk               `yaml:"risk"`
	Alerts         Alerts             `yaml:"alerts"`
	Database       struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/stocks.db"`
	} `yaml:"database"`
	HTTP struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Addr    string `yaml:"addr" default:":8080"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

var validate = validator.New()

// Load reads .env and the YAML file at path, then applies environment
// overrides and defaults. A missing file yields a default configuration.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if len(cfg.Profiles) == 0 {
		cfg.Profiles = DefaultProfiles()
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Alerts.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&cfg.Alerts.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	set(&cfg.Alerts.Email.Sender, "EMAIL_SENDER")
	set(&cfg.Alerts.Email.Password, "EMAIL_PASSWORD")
	set(&cfg.Alerts.Email.Receiver, "EMAIL_RECEIVER")
	set(&cfg.DataSource.AlpacaKey, "ALPACA_API_KEY")
	set(&cfg.DataSource.AlpacaSec, "ALPACA_API_SECRET")
	set(&cfg.DataSource.Redis.Addr, "REDIS_ADDR")
	set(&cfg.Database.SQLitePath, "SQLITE_PATH")
	set(&cfg.Proxy, "HTTPS_PROXY")
	set(&cfg.App.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("PORTFOLIO_VALUE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.PortfolioValue = f
		}
	}
}

// Validate checks struct tags and the cross-field requirements of enabled channels.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Alerts.Telegram.Enabled && (c.Alerts.Telegram.BotToken == "" || c.Alerts.Telegram.ChatID == "") {
		return fmt.Errorf("alerts.telegram: bot_token and chat_id are required when enabled")
	}
	if c.Alerts.Email.Enabled && (c.Alerts.Email.Sender == "" || c.Alerts.Email.Receiver == "") {
		return fmt.Errorf("alerts.email: sender and receiver are required when enabled")
	}
	if c.Alerts.Webhook.Enabled && c.Alerts.Webhook.URL == "" {
		return fmt.Errorf("alerts.webhook.url is required when enabled")
	}
	if c.Alerts.Kafka.Enabled && len(c.Alerts.Kafka.Brokers) == 0 {
		return fmt.Errorf("alerts.kafka.brokers is required when enabled")
	}
	if c.DataSource.Provider == "alpaca" && (c.DataSource.AlpacaKey == "" || c.DataSource.AlpacaSec == "") {
		return fmt.Errorf("data_source: alpaca credentials are required")
	}
	for _, p := range c.Profiles {
		if err := collector.ValidSpan(p.Period, p.Interval); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	return nil
}

// EnabledProfiles returns the profiles with enabled set, in config order.
func (c *Config) EnabledProfiles() []Profile {
	var out []Profile
	for _, p := range c.Profiles {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Profile looks up a profile by name.
func (c *Config) Profile(name string) (Profile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}
