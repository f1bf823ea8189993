package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

var (
	errNilState = errors.New("rate limiter: state not configured")

	ErrRateLimited   = common.NewError(common.KindLimitExceeded, "rate_limited", "rate limit exceeded")
	ErrZeroMax       = common.NewError(common.KindConfig, "zero_max_submissions", "max submissions must be at least 1")
	ErrZeroWindow    = common.NewError(common.KindConfig, "zero_window", "window must be at least 1 second")
	ErrNotConfigured = common.NewError(common.KindNotFound, "rate_limit_not_configured", "rate limit not configured")
)

// Config bounds how many submissions a business may make per sliding window.
type Config struct {
	MaxSubmissions uint32
	WindowSeconds  uint64
	Enabled        bool
	Version        uint64
}

// Validate rejects zero quotas and zero windows.
func (c Config) Validate() error {
	if c.MaxSubmissions == 0 {
		return ErrZeroMax
	}
	if c.WindowSeconds == 0 {
		return ErrZeroWindow
	}
	return nil
}

type limiterState interface {
	RateLimitConfig() (*Config, bool, error)
	PutRateLimitConfig(*Config) error
	SubmissionTimestamps(business [20]byte) ([]uint64, error)
	PutSubmissionTimestamps(business [20]byte, timestamps []uint64) error
}

// Limiter enforces a per-business sliding window. Check is evaluated before
// any fee is taken; Record runs only after the submission is stored.
type Limiter struct {
	state limiterState
	nowFn func() uint64
}

// NewLimiter creates a limiter that reads the wall clock.
func NewLimiter() *Limiter {
	return &Limiter{nowFn: wallClock}
}

func wallClock() uint64 { return uint64(time.Now().Unix()) }

// SetState configures the state backend used by the limiter.
func (l *Limiter) SetState(state limiterState) { l.state = state }

// SetNowFunc overrides the time source. Passing nil restores the wall clock.
func (l *Limiter) SetNowFunc(now func() uint64) {
	if now == nil {
		l.nowFn = wallClock
		return
	}
	l.nowFn = now
}

func (l *Limiter) now() uint64 {
	if l == nil || l.nowFn == nil {
		return wallClock()
	}
	return l.nowFn()
}

// activeConfig returns the config only when it exists and is enabled.
func (l *Limiter) activeConfig() (*Config, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	cfg, ok, err := l.state.RateLimitConfig()
	if err != nil {
		return nil, fmt.Errorf("rate limiter: load config: %w", err)
	}
	if !ok || cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	return cfg, nil
}

// prune keeps timestamps strictly newer than now-window. While now is still
// smaller than the window the cutoff does not saturate to zero, so every
// stored timestamp is kept, including one recorded at time 0.
func prune(timestamps []uint64, now, window uint64) []uint64 {
	if now < window {
		return timestamps
	}
	cutoff := now - window
	kept := make([]uint64, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}

// Check admits or rejects the next submission of business. Pruned history is
// written back only when entries were dropped.
func (l *Limiter) Check(business [20]byte) error {
	cfg, err := l.activeConfig()
	if err != nil || cfg == nil {
		return err
	}
	history, err := l.state.SubmissionTimestamps(business)
	if err != nil {
		return fmt.Errorf("rate limiter: load history: %w", err)
	}
	active := prune(history, l.now(), cfg.WindowSeconds)
	if len(active) != len(history) {
		if err := l.state.PutSubmissionTimestamps(business, active); err != nil {
			return fmt.Errorf("rate limiter: store history: %w", err)
		}
	}
	if uint64(len(active)) >= uint64(cfg.MaxSubmissions) {
		return fmt.Errorf("%w: %d submissions in the last %ds (max %d)", ErrRateLimited, len(active), cfg.WindowSeconds, cfg.MaxSubmissions)
	}
	return nil
}

// Record appends the current time to the business history.
func (l *Limiter) Record(business [20]byte) error {
	cfg, err := l.activeConfig()
	if err != nil || cfg == nil {
		return err
	}
	history, err := l.state.SubmissionTimestamps(business)
	if err != nil {
		return fmt.Errorf("rate limiter: load history: %w", err)
	}
	now := l.now()
	active := append(prune(history, now, cfg.WindowSeconds), now)
	if err := l.state.PutSubmissionTimestamps(business, active); err != nil {
		return fmt.Errorf("rate limiter: store history: %w", err)
	}
	return nil
}

// ActiveCount returns the number of submissions inside the current window.
// It never writes.
func (l *Limiter) ActiveCount(business [20]byte) (uint32, error) {
	cfg, err := l.activeConfig()
	if err != nil || cfg == nil {
		return 0, err
	}
	history, err := l.state.SubmissionTimestamps(business)
	if err != nil {
		return 0, fmt.Errorf("rate limiter: load history: %w", err)
	}
	return uint32(len(prune(history, l.now(), cfg.WindowSeconds))), nil
}

// Configure replaces the limiter config and bumps its version.
func (l *Limiter) Configure(maxSubmissions uint32, windowSeconds uint64, enabled bool) (*Config, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	cfg := Config{MaxSubmissions: maxSubmissions, WindowSeconds: windowSeconds, Enabled: enabled}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prev, _, err := l.state.RateLimitConfig()
	if err != nil {
		return nil, fmt.Errorf("rate limiter: load config: %w", err)
	}
	cfg.Version = 1
	if prev != nil {
		cfg.Version = prev.Version + 1
	}
	if err := l.state.PutRateLimitConfig(&cfg); err != nil {
		return nil, fmt.Errorf("rate limiter: store config: %w", err)
	}
	return &cfg, nil
}

// Config returns the stored config, if any.
func (l *Limiter) Config() (*Config, bool, error) {
	if l == nil || l.state == nil {
		return nil, false, errNilState
	}
	return l.state.RateLimitConfig()
}
