package fees

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

// MaxBps is the basis-point denominator. Discounts are clamped to it so a fee
// never turns negative.
const MaxBps uint32 = 10_000

var (
	ErrNegativeFee        = common.NewError(common.KindConfig, "negative_fee", "fee amount must be non-negative")
	ErrDiscountTooLarge   = common.NewError(common.KindConfig, "discount_out_of_range", "discount must not exceed 10000 bps")
	ErrBracketLength      = common.NewError(common.KindConfig, "bracket_length_mismatch", "thresholds and discounts must be the same length")
	ErrBracketOrder       = common.NewError(common.KindConfig, "bracket_not_ascending", "thresholds must be strictly ascending")
	ErrTokenRequired      = common.NewError(common.KindConfig, "token_required", "fee token must be set")
	ErrFeeNotConfigured   = common.NewError(common.KindNotFound, "fee_not_configured", "fee configuration not set")
	ErrPayerNotConfigured = common.NewError(common.KindConfig, "ledger_not_configured", "token ledger not configured")
)

// FeeConfig is the dynamic (discountable) fee layer.
type FeeConfig struct {
	Token     string
	Collector [20]byte
	BaseFee   *big.Int
	Enabled   bool
	Version   uint64
}

// Clone returns a deep copy of the config.
func (c *FeeConfig) Clone() *FeeConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.BaseFee = cloneAmount(c.BaseFee)
	return &clone
}

// FlatFeeConfig is the independent, non-discountable fee layer.
type FlatFeeConfig struct {
	Token    string
	Treasury [20]byte
	Amount   *big.Int
	Enabled  bool
	Version  uint64
}

// Clone returns a deep copy of the config.
func (c *FlatFeeConfig) Clone() *FlatFeeConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Amount = cloneAmount(c.Amount)
	return &clone
}

// VolumeBrackets pairs ascending submission-count thresholds with discounts.
type VolumeBrackets struct {
	Thresholds []uint64
	Discounts  []uint32
}

// Validate enforces equal lengths, strictly ascending thresholds and
// discounts within the bps range.
func (v VolumeBrackets) Validate() error {
	if len(v.Thresholds) != len(v.Discounts) {
		return fmt.Errorf("%w: %d thresholds, %d discounts", ErrBracketLength, len(v.Thresholds), len(v.Discounts))
	}
	for i, threshold := range v.Thresholds {
		if i > 0 && threshold <= v.Thresholds[i-1] {
			return fmt.Errorf("%w: index %d", ErrBracketOrder, i)
		}
		if v.Discounts[i] > MaxBps {
			return fmt.Errorf("%w: bracket %d has %d bps", ErrDiscountTooLarge, i, v.Discounts[i])
		}
	}
	return nil
}

// DiscountFor returns the discount of the greatest threshold not exceeding
// count, or 0 when none qualifies.
func (v VolumeBrackets) DiscountFor(count uint64) uint32 {
	var discount uint32
	for i, threshold := range v.Thresholds {
		if i >= len(v.Discounts) {
			break
		}
		if count >= threshold {
			discount = v.Discounts[i]
		}
	}
	return discount
}

// Breakdown itemises a quote.
type Breakdown struct {
	Token           string
	FlatToken       string
	BaseFee         *big.Int
	TierDiscount    uint32
	VolumeDiscount  uint32
	AppliedDiscount uint32
	Dynamic         *big.Int
	Flat            *big.Int
	Total           *big.Int
	SubmissionCount uint64
}

// QuoteInput is the full pricing context for a single business.
type QuoteInput struct {
	Config          *FeeConfig
	Flat            *FlatFeeConfig
	TierBps         uint32
	Brackets        VolumeBrackets
	SubmissionCount uint64
}

// Compute prices a submission. The effective discount is the larger of the
// tier and volume discounts (they never stack), clamped to MaxBps, and the
// dynamic fee is floor(base * (10000 - discount) / 10000). The flat fee is
// added without any discount.
func Compute(input QuoteInput) Breakdown {
	out := Breakdown{
		BaseFee:         big.NewInt(0),
		Dynamic:         big.NewInt(0),
		Flat:            big.NewInt(0),
		Total:           big.NewInt(0),
		SubmissionCount: input.SubmissionCount,
	}
	if cfg := input.Config; cfg != nil && cfg.Enabled && cfg.BaseFee != nil && cfg.BaseFee.Sign() > 0 {
		out.Token = cfg.Token
		out.BaseFee = new(big.Int).Set(cfg.BaseFee)
		out.TierDiscount = input.TierBps
		out.VolumeDiscount = input.Brackets.DiscountFor(input.SubmissionCount)
		discount := out.TierDiscount
		if out.VolumeDiscount > discount {
			discount = out.VolumeDiscount
		}
		if discount > MaxBps {
			discount = MaxBps
		}
		out.AppliedDiscount = discount
		dynamic := new(big.Int).Mul(cfg.BaseFee, big.NewInt(int64(MaxBps-discount)))
		out.Dynamic = dynamic.Quo(dynamic, big.NewInt(int64(MaxBps)))
	}
	if flat := input.Flat; flat != nil && flat.Enabled && flat.Amount != nil && flat.Amount.Sign() > 0 {
		out.FlatToken = flat.Token
		out.Flat = new(big.Int).Set(flat.Amount)
	}
	out.Total = new(big.Int).Add(out.Dynamic, out.Flat)
	return out
}

// NormalizeToken canonicalises token symbols for storage and transfers.
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
