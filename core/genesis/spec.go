package genesis

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/fees"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ratelimit"
)

// Balance funds a ledger account at genesis.
type Balance struct {
	Token  string
	Holder [20]byte
	Amount *big.Int
}

// RoleGrant assigns roles beyond the bootstrap admin.
type RoleGrant struct {
	Account [20]byte
	Roles   attestation.Role
}

// Fee is the initial dynamic fee layer.
type Fee struct {
	Token     string
	Collector [20]byte
	BaseFee   *big.Int
	Enabled   bool
}

// FlatFee is the initial flat fee layer.
type FlatFee struct {
	Token    string
	Treasury [20]byte
	Amount   *big.Int
	Enabled  bool
}

type TierDiscount struct {
	Tier uint32
	Bps  uint32
}

type BusinessTier struct {
	Business [20]byte
	Tier     uint32
}

// Spec is the economics schedule applied once to a fresh state.
type Spec struct {
	Admin          [20]byte
	Roles          []RoleGrant
	Fee            *Fee
	FlatFee        *FlatFee
	TierDiscounts  []TierDiscount
	BusinessTiers  []BusinessTier
	VolumeBrackets *fees.VolumeBrackets
	RateLimit      *ratelimit.Config
	Balances       []Balance
}

// Validate checks the schedule before any of it is applied.
func (s *Spec) Validate() error {
	if s == nil {
		return errors.New("genesis: spec must not be nil")
	}
	if s.Admin == ([20]byte{}) {
		return errors.New("genesis: admin address required")
	}
	for i, grant := range s.Roles {
		if grant.Roles == 0 || grant.Roles&^attestation.AllRoles != 0 {
			return fmt.Errorf("genesis: role grant %d: %w", i, attestation.ErrUnknownRole)
		}
	}
	if s.Fee != nil {
		if fees.NormalizeToken(s.Fee.Token) == "" {
			return fmt.Errorf("genesis: fee: %w", fees.ErrTokenRequired)
		}
		if s.Fee.BaseFee == nil || s.Fee.BaseFee.Sign() < 0 {
			return fmt.Errorf("genesis: fee: %w", fees.ErrNegativeFee)
		}
	}
	if s.FlatFee != nil {
		if fees.NormalizeToken(s.FlatFee.Token) == "" {
			return fmt.Errorf("genesis: flat fee: %w", fees.ErrTokenRequired)
		}
		if s.FlatFee.Amount == nil || s.FlatFee.Amount.Sign() < 0 {
			return fmt.Errorf("genesis: flat fee: %w", fees.ErrNegativeFee)
		}
	}
	for _, td := range s.TierDiscounts {
		if td.Bps > fees.MaxBps {
			return fmt.Errorf("genesis: tier %d: %w", td.Tier, fees.ErrDiscountTooLarge)
		}
	}
	if s.VolumeBrackets != nil {
		if err := s.VolumeBrackets.Validate(); err != nil {
			return fmt.Errorf("genesis: volume brackets: %w", err)
		}
	}
	if s.RateLimit != nil {
		if err := s.RateLimit.Validate(); err != nil {
			return fmt.Errorf("genesis: rate limit: %w", err)
		}
	}
	for i, bal := range s.Balances {
		if fees.NormalizeToken(bal.Token) == "" {
			return fmt.Errorf("genesis: balance %d: token required", i)
		}
		if bal.Amount == nil || bal.Amount.Sign() <= 0 {
			return fmt.Errorf("genesis: balance %d: amount must be positive", i)
		}
	}
	return nil
}
