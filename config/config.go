package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Storage backends accepted by StorageBackend.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

type Config struct {
	ListenAddress      string        `toml:"ListenAddress"`
	DataDir            string        `toml:"DataDir"`
	StorageBackend     string        `toml:"StorageBackend"`
	Environment        string        `toml:"Environment"`
	AdminAddress       string        `toml:"AdminAddress"`
	SchedulePath       string        `toml:"SchedulePath"`
	AllowStateMigrate  bool          `toml:"AllowStateMigrate"`
	EventHistory       int           `toml:"EventHistory"`
	ShutdownTimeoutSec int           `toml:"ShutdownTimeoutSec"`
	Auth               Auth          `toml:"Auth"`
	HTTPRateLimit      HTTPRateLimit `toml:"HTTPRateLimit"`
	Telemetry          Telemetry     `toml:"Telemetry"`
	Indexer            Indexer       `toml:"Indexer"`
	Logging            Logging       `toml:"Logging"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by a freshly written default.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(cfg)
	if cfg.SchedulePath != "" && !filepath.IsAbs(cfg.SchedulePath) {
		cfg.SchedulePath = filepath.Join(filepath.Dir(path), cfg.SchedulePath)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	cfg := &Config{
		ListenAddress:  ":8545",
		DataDir:        "./veritasor-data",
		StorageBackend: BackendLevelDB,
		Environment:    "dev",
		HTTPRateLimit:  HTTPRateLimit{RequestsPerMinute: 600, Burst: 60},
		Auth:           Auth{Issuer: "veritasor", Audience: "veritasor-admin"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8545"
	}
	if strings.TrimSpace(cfg.StorageBackend) == "" {
		cfg.StorageBackend = BackendLevelDB
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
	if cfg.ShutdownTimeoutSec <= 0 {
		cfg.ShutdownTimeoutSec = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// HMACSecret resolves the admin token secret, preferring the environment
// variable when one is named.
func (c *Config) HMACSecret() string {
	if env := strings.TrimSpace(c.Auth.HMACSecretEnv); env != "" {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(c.Auth.HMACSecret)
}
