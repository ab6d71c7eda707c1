package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.DataSource.Workers != 5 {
		t.Errorf("unexpected data source defaults: %+v", cfg.DataSource)
	}
	if cfg.DataSource.CacheTTL != 300*time.Second || cfg.DataSource.Timeout != 10*time.Second {
		t.Errorf("unexpected durations: %v %v", cfg.DataSource.CacheTTL, cfg.DataSource.Timeout)
	}
	if len(cfg.DataSource.Symbols) != 5 {
		t.Errorf("expected default symbols, got %v", cfg.DataSource.Symbols)
	}
	if cfg.Risk.MaxRiskPct != 2 || cfg.Risk.MaxPositionPct != 20 || cfg.Risk.MaxPositions != 5 || cfg.Risk.MinVolume != 100000 {
		t.Errorf("unexpected risk defaults: %+v", cfg.Risk)
	}
	if cfg.Alerts.CheckInterval != 15 || cfg.Alerts.MinConfidence != 0.6 {
		t.Errorf("unexpected alert defaults: %+v", cfg.Alerts)
	}
	if cfg.Alerts.Email.SMTPServer != "smtp.gmail.com" || cfg.Alerts.Email.SMTPPort != 587 {
		t.Errorf("unexpected smtp defaults: %+v", cfg.Alerts.Email)
	}
	if cfg.Alerts.Kafka.Topic != "tradescout.signals" || cfg.Alerts.Kafka.MaxAttempts != 3 {
		t.Errorf("unexpected kafka defaults: %+v", cfg.Alerts.Kafka)
	}
	if cfg.Database.SQLitePath != "data/stocks.db" || cfg.HTTP.Addr != ":8080" || !cfg.HTTP.Enabled {
		t.Errorf("unexpected defaults: db=%s http=%+v", cfg.Database.SQLitePath, cfg.HTTP)
	}
	if cfg.App.Log.Level != "info" || cfg.App.Log.Format != "console" {
		t.Errorf("unexpected log defaults: %+v", cfg.App.Log)
	}
	if got := len(cfg.EnabledProfiles()); got != 3 {
		t.Errorf("expected 3 enabled profiles, got %d", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: mock
  symbols: [TCS.NS]
  cache_ttl: 1m
profiles:
  - name: swing
    enabled: true
    interval: 1h
    period: 1mo
  - name: positional
    enabled: false
    interval: 1d
    period: 6mo
market_hours:
  holidays: ["2024-08-15"]
alerts:
  telegram:
    enabled: true
  min_confidence: 0.75
http:
  enabled: false
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Provider != "mock" || cfg.DataSource.CacheTTL != time.Minute || len(cfg.DataSource.Symbols) != 1 {
		t.Errorf("file values not applied: %+v", cfg.DataSource)
	}
	if cfg.DataSource.Workers != 5 {
		t.Errorf("unset field should keep default, got %d", cfg.DataSource.Workers)
	}
	if cfg.Alerts.Telegram.BotToken != "tok" || cfg.Alerts.Telegram.ChatID != "42" || cfg.Database.SQLitePath != "/tmp/x.db" {
		t.Errorf("env overrides not applied")
	}
	if cfg.HTTP.Enabled {
		t.Error("http should be disabled")
	}
	enabled := cfg.EnabledProfiles()
	if len(enabled) != 1 || enabled[0].Name != "swing" {
		t.Errorf("unexpected enabled profiles: %+v", enabled)
	}
	if p, ok := cfg.Profile("positional"); !ok || p.Period != "6mo" {
		t.Errorf("profile lookup failed: %+v", p)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad provider", "data_source:\n  provider: bloomberg\n", "Provider"},
		{"telegram without token", "alerts:\n  telegram:\n    enabled: true\n", "telegram"},
		{"kafka without brokers", "alerts:\n  kafka:\n    enabled: true\n", "kafka"},
		{"bad span", "profiles:\n  - name: x\n    enabled: true\n    interval: 7q\n    period: 1d\n", "profile x"},
		{"bad holiday", "market_hours:\n  holidays: [\"15-08-2024\"]\n", "Holidays"},
		{"confidence above one", "alerts:\n  min_confidence: 1.5\n", "MinConfidence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TELEGRAM_BOT_TOKEN", "")
			t.Setenv("TELEGRAM_CHAT_ID", "")
			cfg, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("shipped config should validate: %v", err)
	}
	if len(cfg.MarketHours.Holidays) != 14 || len(cfg.EnabledProfiles()) != 3 {
		t.Errorf("unexpected shipped config: %d holidays, %d profiles", len(cfg.MarketHours.Holidays), len(cfg.EnabledProfiles()))
	}
}
