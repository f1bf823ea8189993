package config

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/genesis"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/fees"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ratelimit"
)

// Schedule is the economics schedule applied once to a fresh state. Amounts
// are decimal strings so values beyond 64 bits survive the YAML round trip.
type Schedule struct {
	Admin          string                 `yaml:"admin"`
	Roles          []ScheduleRole         `yaml:"roles"`
	Fee            *ScheduleFee           `yaml:"fee"`
	FlatFee        *ScheduleFlatFee       `yaml:"flat_fee"`
	TierDiscounts  []ScheduleTierDiscount `yaml:"tier_discounts"`
	BusinessTiers  []ScheduleBusinessTier `yaml:"business_tiers"`
	VolumeBrackets []ScheduleBracket      `yaml:"volume_brackets"`
	RateLimit      *ScheduleRateLimit     `yaml:"rate_limit"`
	Balances       []ScheduleBalance      `yaml:"balances"`
}

type ScheduleRole struct {
	Account string   `yaml:"account"`
	Roles   []string `yaml:"roles"`
}

type ScheduleFee struct {
	Token     string `yaml:"token"`
	Collector string `yaml:"collector"`
	BaseFee   string `yaml:"base_fee"`
	Enabled   bool   `yaml:"enabled"`
}

type ScheduleFlatFee struct {
	Token    string `yaml:"token"`
	Treasury string `yaml:"treasury"`
	Amount   string `yaml:"amount"`
	Enabled  bool   `yaml:"enabled"`
}

type ScheduleTierDiscount struct {
	Tier uint32 `yaml:"tier"`
	Bps  uint32 `yaml:"bps"`
}

type ScheduleBusinessTier struct {
	Business string `yaml:"business"`
	Tier     uint32 `yaml:"tier"`
}

type ScheduleBracket struct {
	Threshold uint64 `yaml:"threshold"`
	Bps       uint32 `yaml:"bps"`
}

type ScheduleRateLimit struct {
	MaxSubmissions uint32 `yaml:"max_submissions"`
	WindowSeconds  uint64 `yaml:"window_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

type ScheduleBalance struct {
	Token   string `yaml:"token"`
	Account string `yaml:"account"`
	Amount  string `yaml:"amount"`
}

// LoadSchedule reads and validates the YAML schedule at path.
func LoadSchedule(path string) (*Schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return ParseSchedule(raw)
}

// ParseSchedule decodes a schedule, rejecting unknown fields.
func ParseSchedule(raw []byte) (*Schedule, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	var s Schedule
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate converts the schedule and checks every value.
func (s *Schedule) Validate() error {
	spec, err := s.Genesis()
	if err != nil {
		return err
	}
	return spec.Validate()
}

// Genesis converts the schedule into the genesis.Spec applied by the node.
func (s *Schedule) Genesis() (*genesis.Spec, error) {
	if s == nil {
		return nil, fmt.Errorf("schedule: nil")
	}
	admin, err := parseAccount("admin", s.Admin)
	if err != nil {
		return nil, err
	}
	spec := &genesis.Spec{Admin: admin}

	for i, entry := range s.Roles {
		account, err := parseAccount(fmt.Sprintf("roles[%d].account", i), entry.Account)
		if err != nil {
			return nil, err
		}
		var mask attestation.Role
		for _, name := range entry.Roles {
			role, err := attestation.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("roles[%d]: %w", i, err)
			}
			mask |= role
		}
		spec.Roles = append(spec.Roles, genesis.RoleGrant{Account: account, Roles: mask})
	}

	if s.Fee != nil {
		collector, err := parseAccount("fee.collector", s.Fee.Collector)
		if err != nil {
			return nil, err
		}
		base, err := parseAmount("fee.base_fee", s.Fee.BaseFee)
		if err != nil {
			return nil, err
		}
		spec.Fee = &genesis.Fee{Token: s.Fee.Token, Collector: collector, BaseFee: base, Enabled: s.Fee.Enabled}
	}
	if s.FlatFee != nil {
		treasury, err := parseAccount("flat_fee.treasury", s.FlatFee.Treasury)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount("flat_fee.amount", s.FlatFee.Amount)
		if err != nil {
			return nil, err
		}
		spec.FlatFee = &genesis.FlatFee{Token: s.FlatFee.Token, Treasury: treasury, Amount: amount, Enabled: s.FlatFee.Enabled}
	}
	for _, td := range s.TierDiscounts {
		spec.TierDiscounts = append(spec.TierDiscounts, genesis.TierDiscount{Tier: td.Tier, Bps: td.Bps})
	}
	for i, bt := range s.BusinessTiers {
		business, err := parseAccount(fmt.Sprintf("business_tiers[%d].business", i), bt.Business)
		if err != nil {
			return nil, err
		}
		spec.BusinessTiers = append(spec.BusinessTiers, genesis.BusinessTier{Business: business, Tier: bt.Tier})
	}
	if len(s.VolumeBrackets) > 0 {
		brackets := &fees.VolumeBrackets{}
		for _, b := range s.VolumeBrackets {
			brackets.Thresholds = append(brackets.Thresholds, b.Threshold)
			brackets.Discounts = append(brackets.Discounts, b.Bps)
		}
		spec.VolumeBrackets = brackets
	}
	if s.RateLimit != nil {
		spec.RateLimit = &ratelimit.Config{
			MaxSubmissions: s.RateLimit.MaxSubmissions,
			WindowSeconds:  s.RateLimit.WindowSeconds,
			Enabled:        s.RateLimit.Enabled,
		}
	}
	for i, bal := range s.Balances {
		holder, err := parseAccount(fmt.Sprintf("balances[%d].account", i), bal.Account)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(fmt.Sprintf("balances[%d].amount", i), bal.Amount)
		if err != nil {
			return nil, err
		}
		spec.Balances = append(spec.Balances, genesis.Balance{Token: bal.Token, Holder: holder, Amount: amount})
	}
	return spec, nil
}

func parseAccount(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("schedule: %s required", field)
	}
	account, err := crypto.ParseAccount(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("schedule: %s: %w", field, err)
	}
	return account, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("schedule: %s: invalid amount %q", field, value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("schedule: %s: amount must be non-negative", field)
	}
	return amount, nil
}
