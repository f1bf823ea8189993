package config

import (
	"fmt"
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
)

var (
	MaxEventHistory = 1 << 16
)

func ValidateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	switch c.StorageBackend {
	case BackendMemory:
	case BackendLevelDB, BackendBolt:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("storage: DataDir required for %s backend", c.StorageBackend)
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.StorageBackend)
	}
	if c.AdminAddress != "" {
		if _, err := crypto.ParseAccount(c.AdminAddress); err != nil {
			return fmt.Errorf("admin address: %w", err)
		}
	}
	if c.EventHistory < 0 || c.EventHistory > MaxEventHistory {
		return fmt.Errorf("events: history must be between 0 and %d", MaxEventHistory)
	}
	if c.HTTPRateLimit.RequestsPerMinute < 0 || c.HTTPRateLimit.Burst < 0 {
		return fmt.Errorf("http rate limit: values must be non-negative")
	}
	if c.HTTPRateLimit.RequestsPerMinute > 0 && c.HTTPRateLimit.Burst == 0 {
		return fmt.Errorf("http rate limit: burst required when requests per minute is set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Indexer.Driver)) {
	case "":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Indexer.DSN) == "" {
			return fmt.Errorf("indexer: DSN required for %s", c.Indexer.Driver)
		}
	default:
		return fmt.Errorf("indexer: unknown driver %q", c.Indexer.Driver)
	}
	if (c.Telemetry.Metrics || c.Telemetry.Traces) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("telemetry: endpoint required when exporters are enabled")
	}
	return nil
}
