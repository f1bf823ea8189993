package state

import (
	"fmt"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ratelimit"
)

type storedRateLimitConfig struct {
	MaxSubmissions uint32
	WindowSeconds  uint64
	Enabled        bool
	Version        uint64
}

// RateLimitConfig loads the rate limiter configuration.
func (m *Manager) RateLimitConfig() (*ratelimit.Config, bool, error) {
	var stored storedRateLimitConfig
	ok, err := m.KVGet(rateLimitConfigKeyBytes, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &ratelimit.Config{
		MaxSubmissions: stored.MaxSubmissions,
		WindowSeconds:  stored.WindowSeconds,
		Enabled:        stored.Enabled,
		Version:        stored.Version,
	}, true, nil
}

// PutRateLimitConfig stores the rate limiter configuration.
func (m *Manager) PutRateLimitConfig(cfg *ratelimit.Config) error {
	if cfg == nil {
		return fmt.Errorf("state: rate limit config must not be nil")
	}
	return m.KVPut(rateLimitConfigKeyBytes, &storedRateLimitConfig{
		MaxSubmissions: cfg.MaxSubmissions,
		WindowSeconds:  cfg.WindowSeconds,
		Enabled:        cfg.Enabled,
		Version:        cfg.Version,
	})
}

// SubmissionTimestamps returns business's recorded submission times.
func (m *Manager) SubmissionTimestamps(business [20]byte) ([]uint64, error) {
	var out []uint64
	if err := m.KVGetList(rateLimitWindowKey(business), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PutSubmissionTimestamps replaces business's recorded submission times.
func (m *Manager) PutSubmissionTimestamps(business [20]byte, timestamps []uint64) error {
	if len(timestamps) == 0 {
		return m.KVDelete(rateLimitWindowKey(business))
	}
	return m.KVPut(rateLimitWindowKey(business), timestamps)
}
