package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
server:
  addr: ":8080"
db:
  dsn: "postgres://localhost/shop"
gateway:
  base_url: "https://api.example.com/v1"
  key_id: "key-id"
  key_secret: "key-secret"
`

func TestLoadMinimalAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gateway.Currency != "INR" {
		t.Errorf("currency default: got %q", cfg.Gateway.Currency)
	}
	if cfg.GatewayTimeout() != 10*time.Second {
		t.Errorf("gateway timeout default: got %v", cfg.GatewayTimeout())
	}
	if cfg.SweepInterval() != 2*time.Hour {
		t.Errorf("sweep interval default: got %v", cfg.SweepInterval())
	}
	if cfg.Worker.Concurrency != 1 || cfg.Worker.OrphanPageSize != 50 {
		t.Errorf("worker defaults: %+v", cfg.Worker)
	}
	if cfg.Shop.Name != "Next Shop" {
		t.Errorf("shop name default: got %q", cfg.Shop.Name)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9000"
db:
  dsn: "postgres://db/shop"
gateway:
  base_url: "https://api.example.com/v1"
  key_id: "key-id"
  key_secret: "key-secret"
  currency: "USD"
  timeout_seconds: 30
shop:
  name: "My Shop"
  customer_url: "https://shop.example.com"
worker:
  interval_hours: 6
  concurrency: 8
  recover_orphans: true
  orphan_page_size: 100
mail:
  enabled: true
  host: "smtp.example.com"
  port: 587
  from: "orders@example.com"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9000" || cfg.Gateway.Currency != "USD" {
		t.Errorf("values not read: %+v", cfg)
	}
	if cfg.SweepInterval() != 6*time.Hour || cfg.Worker.Concurrency != 8 {
		t.Errorf("worker section wrong: %+v", cfg.Worker)
	}
	if !cfg.Worker.RecoverOrphans || cfg.Worker.OrphanPageSize != 100 {
		t.Errorf("orphan settings wrong: %+v", cfg.Worker)
	}
	if !cfg.Mail.Enabled || cfg.Mail.Host != "smtp.example.com" {
		t.Errorf("mail section wrong: %+v", cfg.Mail)
	}
}

func TestLoadRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing server addr", `
db:
  dsn: "postgres://db/shop"
gateway:
  base_url: "https://api.example.com/v1"
  key_id: "k"
  key_secret: "s"
`},
		{"missing dsn", `
server:
  addr: ":8080"
gateway:
  base_url: "https://api.example.com/v1"
  key_id: "k"
  key_secret: "s"
`},
		{"missing gateway secret", `
server:
  addr: ":8080"
db:
  dsn: "postgres://db/shop"
gateway:
  base_url: "https://api.example.com/v1"
  key_id: "k"
`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Fatal("expected error for incomplete config")
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_KEY_SECRET", "env-secret")
	t.Setenv("WORKER_INTERVAL_HOURS", "12")
	t.Setenv("CUSTOMER_URL", "https://env.example.com")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.KeySecret != "env-secret" {
		t.Errorf("env override missed: %q", cfg.Gateway.KeySecret)
	}
	if cfg.SweepInterval() != 12*time.Hour {
		t.Errorf("interval override missed: %v", cfg.SweepInterval())
	}
	if cfg.Shop.CustomerURL != "https://env.example.com" {
		t.Errorf("customer url override missed: %q", cfg.Shop.CustomerURL)
	}
}

func TestLoadBadFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "::not yaml::")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
