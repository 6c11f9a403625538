package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"chitfund/internal/config"
	"chitfund/internal/core"
	"chitfund/internal/log"
)

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:   "sqlite",
		SQLiteDBPath:  "x.db",
		Members:       10,
		Months:        10,
		MonthlyAmount: 1000,
		StartYear:     2025,
		StartMonth:    4,
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("from app config: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Settings.NumMembers != 10 || cfg.Settings.StartMonth != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{Type: MemoryBackend, Settings: core.DefaultSettings()}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad type", func(c *Config) { c.Type = "mongo" }},
		{"sqlite without path", func(c *Config) { c.Type = SQLiteBackend }},
		{"bad settings", func(c *Config) { c.Settings.MonthlyAmount = 0 }},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSQLiteBackendHydrates(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Type:         SQLiteBackend,
		Settings:     core.DefaultSettings(),
		SQLiteDBPath: filepath.Join(t.TempDir(), "chit.db"),
	}
	f := NewFactory(quietLogger())

	first, err := f.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Publisher != nil {
		t.Fatal("publisher set without AMQP_URL")
	}
	if err := first.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := first.Service.RecordPayment(ctx, 2, 3, core.StatusPaid, 0, core.Date{}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := first.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	second, err := f.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Cleanup()
	recs, _ := second.Service.MonthRecords(2)
	if recs[2].Status != core.StatusPaid || recs[2].Amount != 6000 {
		t.Fatalf("payment not hydrated: %+v", recs[2])
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(quietLogger()).CreateBackend(context.Background(), Config{Type: MemoryBackend, Settings: core.DefaultSettings()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Ready != nil {
		t.Fatal("memory backend should not need a readiness probe")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
