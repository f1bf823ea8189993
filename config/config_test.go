package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
)

var testAdminString = crypto.FromRaw([20]byte{0xAD}).String()

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendLevelDB {
		t.Fatalf("expected leveldb default, got %q", cfg.StorageBackend)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file written: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ListenAddress != cfg.ListenAddress || reloaded.HTTPRateLimit != cfg.HTTPRateLimit {
		t.Fatalf("reloaded config differs: %+v vs %+v", reloaded, cfg)
	}
}

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := fmt.Sprintf(`ListenAddress = "127.0.0.1:9000"
DataDir = "./data"
StorageBackend = "Bolt"
AdminAddress = "%s"
SchedulePath = "schedule.yaml"
EventHistory = 512

[Auth]
HMACSecret = "s3cret"
Issuer = "veritasor"

[HTTPRateLimit]
RequestsPerMinute = 120
Burst = 20

[Telemetry]
Endpoint = "otel:4318"
Traces = true

[Indexer]
Driver = "sqlite"
DSN = "file::memory:"

[Logging]
Level = "debug"
File = "/var/log/veritasor.log"
MaxSizeMB = 50
`, testAdminString)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendBolt {
		t.Fatalf("backend not normalised: %q", cfg.StorageBackend)
	}
	if cfg.SchedulePath != filepath.Join(dir, "schedule.yaml") {
		t.Fatalf("schedule path not resolved against config dir: %q", cfg.SchedulePath)
	}
	if cfg.HTTPRateLimit.RequestsPerMinute != 120 || cfg.HTTPRateLimit.Burst != 20 {
		t.Fatalf("unexpected rate limit: %+v", cfg.HTTPRateLimit)
	}
	if !cfg.Telemetry.Traces || cfg.Telemetry.Metrics {
		t.Fatalf("unexpected telemetry: %+v", cfg.Telemetry)
	}
	if cfg.Indexer.Driver != "sqlite" || cfg.Logging.MaxSizeMB != 50 {
		t.Fatalf("unexpected indexer/logging: %+v %+v", cfg.Indexer, cfg.Logging)
	}
	if cfg.ShutdownTimeoutSec != 10 {
		t.Fatalf("expected shutdown default, got %d", cfg.ShutdownTimeoutSec)
	}
	if cfg.HMACSecret() != "s3cret" {
		t.Fatalf("unexpected secret %q", cfg.HMACSecret())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("ListenAddress = \":1\"\nGenesisFile = \"x\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "GenesisFile") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestHMACSecretPrefersEnv(t *testing.T) {
	t.Setenv("VERITASOR_TEST_SECRET", "from-env")
	cfg := Default()
	cfg.Auth.HMACSecret = "inline"
	cfg.Auth.HMACSecretEnv = "VERITASOR_TEST_SECRET"
	if got := cfg.HMACSecret(); got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.StorageBackend = "rocks" }, "unknown backend"},
		{"missing data dir", func(c *Config) { c.DataDir = "" }, "DataDir required"},
		{"memory needs no data dir", func(c *Config) { c.StorageBackend = BackendMemory; c.DataDir = "" }, ""},
		{"bad admin", func(c *Config) { c.AdminAddress = "nhb1xyz" }, "admin address"},
		{"history too large", func(c *Config) { c.EventHistory = MaxEventHistory + 1 }, "history"},
		{"burst missing", func(c *Config) { c.HTTPRateLimit = HTTPRateLimit{RequestsPerMinute: 10} }, "burst"},
		{"indexer driver", func(c *Config) { c.Indexer = Indexer{Driver: "mysql", DSN: "x"} }, "unknown driver"},
		{"indexer dsn", func(c *Config) { c.Indexer = Indexer{Driver: "postgres"} }, "DSN required"},
		{"telemetry endpoint", func(c *Config) { c.Telemetry = Telemetry{Metrics: true} }, "endpoint"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
