package fees

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

var (
	errNilState      = errors.New("fees engine: state not configured")
	ErrCountOverflow = common.NewError(common.KindLimitExceeded, "submission_count_overflow", "submission counter overflow")
)

type engineState interface {
	FeeConfig() (*FeeConfig, bool, error)
	PutFeeConfig(*FeeConfig) error
	FlatFeeConfig() (*FlatFeeConfig, bool, error)
	PutFlatFeeConfig(*FlatFeeConfig) error
	TierDiscount(tier uint32) (uint32, bool, error)
	PutTierDiscount(tier uint32, bps uint32) error
	BusinessTier(business [20]byte) (uint32, bool, error)
	PutBusinessTier(business [20]byte, tier uint32) error
	VolumeBrackets() (*VolumeBrackets, bool, error)
	PutVolumeBrackets(*VolumeBrackets) error
	SubmissionCount(business [20]byte) (uint64, error)
	PutSubmissionCount(business [20]byte, count uint64) error
}

// Ledger moves fee tokens between accounts. Transfer failures (for example
// insufficient balance) are returned to the caller unchanged.
type Ledger interface {
	Transfer(token string, from, to [20]byte, amount *big.Int) error
}

// Engine prices and collects submission fees.
type Engine struct {
	state   engineState
	ledger  Ledger
	emitter events.Emitter
}

// NewEngine creates a fee engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the token ledger used to collect fees.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// QuoteBreakdown prices the next submission of business without touching
// state.
func (e *Engine) QuoteBreakdown(business [20]byte) (Breakdown, error) {
	if e == nil || e.state == nil {
		return Breakdown{}, errNilState
	}
	cfg, _, err := e.state.FeeConfig()
	if err != nil {
		return Breakdown{}, fmt.Errorf("fees: load config: %w", err)
	}
	flat, _, err := e.state.FlatFeeConfig()
	if err != nil {
		return Breakdown{}, fmt.Errorf("fees: load flat config: %w", err)
	}
	input := QuoteInput{Config: cfg, Flat: flat}
	if cfg != nil && cfg.Enabled {
		tier, _, err := e.state.BusinessTier(business)
		if err != nil {
			return Breakdown{}, fmt.Errorf("fees: load business tier: %w", err)
		}
		bps, _, err := e.state.TierDiscount(tier)
		if err != nil {
			return Breakdown{}, fmt.Errorf("fees: load tier discount: %w", err)
		}
		input.TierBps = bps
		brackets, ok, err := e.state.VolumeBrackets()
		if err != nil {
			return Breakdown{}, fmt.Errorf("fees: load volume brackets: %w", err)
		}
		if ok && brackets != nil {
			input.Brackets = *brackets
		}
		count, err := e.state.SubmissionCount(business)
		if err != nil {
			return Breakdown{}, fmt.Errorf("fees: load submission count: %w", err)
		}
		input.SubmissionCount = count
	}
	return Compute(input), nil
}

// Quote returns the total fee the next submission of business would pay.
func (e *Engine) Quote(business [20]byte) (*big.Int, error) {
	breakdown, err := e.QuoteBreakdown(business)
	if err != nil {
		return nil, err
	}
	return breakdown.Total, nil
}

// Collect debits the quoted fee from business, routing the dynamic part to
// the collector and the flat part to the treasury. It returns the total paid.
func (e *Engine) Collect(business [20]byte) (*big.Int, error) {
	breakdown, err := e.QuoteBreakdown(business)
	if err != nil {
		return nil, err
	}
	if breakdown.Total.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if e.ledger == nil {
		return nil, ErrPayerNotConfigured
	}
	if breakdown.Dynamic.Sign() > 0 {
		cfg, _, err := e.state.FeeConfig()
		if err != nil {
			return nil, fmt.Errorf("fees: load config: %w", err)
		}
		if err := e.ledger.Transfer(cfg.Token, business, cfg.Collector, breakdown.Dynamic); err != nil {
			return nil, err
		}
	}
	if breakdown.Flat.Sign() > 0 {
		flat, _, err := e.state.FlatFeeConfig()
		if err != nil {
			return nil, fmt.Errorf("fees: load flat config: %w", err)
		}
		if err := e.ledger.Transfer(flat.Token, business, flat.Treasury, breakdown.Flat); err != nil {
			return nil, err
		}
	}
	token := breakdown.Token
	if token == "" {
		token = breakdown.FlatToken
	}
	e.emit(events.FeeCollected{
		Business: business,
		Token:    token,
		Dynamic:  breakdown.Dynamic,
		Flat:     breakdown.Flat,
		Total:    breakdown.Total,
		Discount: breakdown.AppliedDiscount,
	})
	return new(big.Int).Set(breakdown.Total), nil
}

// Configure replaces the dynamic fee config and bumps its version.
func (e *Engine) Configure(token string, collector [20]byte, baseFee *big.Int, enabled bool) (*FeeConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalized := NormalizeToken(token)
	if normalized == "" {
		return nil, ErrTokenRequired
	}
	if baseFee == nil || baseFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: base fee %v", ErrNegativeFee, baseFee)
	}
	prev, _, err := e.state.FeeConfig()
	if err != nil {
		return nil, fmt.Errorf("fees: load config: %w", err)
	}
	cfg := &FeeConfig{
		Token:     normalized,
		Collector: collector,
		BaseFee:   new(big.Int).Set(baseFee),
		Enabled:   enabled,
		Version:   nextVersion(prev),
	}
	if err := e.state.PutFeeConfig(cfg); err != nil {
		return nil, fmt.Errorf("fees: store config: %w", err)
	}
	e.emit(events.FeeConfigChanged{Component: events.FeeComponentDynamic, Token: cfg.Token, Amount: cfg.BaseFee, Enabled: cfg.Enabled, Version: cfg.Version})
	return cfg.Clone(), nil
}

// ConfigureFlat replaces the flat fee config and bumps its version.
func (e *Engine) ConfigureFlat(token string, treasury [20]byte, amount *big.Int, enabled bool) (*FlatFeeConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalized := NormalizeToken(token)
	if normalized == "" {
		return nil, ErrTokenRequired
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: flat fee %v", ErrNegativeFee, amount)
	}
	prev, _, err := e.state.FlatFeeConfig()
	if err != nil {
		return nil, fmt.Errorf("fees: load flat config: %w", err)
	}
	var version uint64 = 1
	if prev != nil {
		version = prev.Version + 1
	}
	cfg := &FlatFeeConfig{
		Token:    normalized,
		Treasury: treasury,
		Amount:   new(big.Int).Set(amount),
		Enabled:  enabled,
		Version:  version,
	}
	if err := e.state.PutFlatFeeConfig(cfg); err != nil {
		return nil, fmt.Errorf("fees: store flat config: %w", err)
	}
	e.emit(events.FeeConfigChanged{Component: events.FeeComponentFlat, Token: cfg.Token, Amount: cfg.Amount, Enabled: cfg.Enabled, Version: cfg.Version})
	return cfg.Clone(), nil
}

// SetEnabled toggles the dynamic fee layer without touching its other fields.
func (e *Engine) SetEnabled(enabled bool) (*FeeConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, ok, err := e.state.FeeConfig()
	if err != nil {
		return nil, fmt.Errorf("fees: load config: %w", err)
	}
	if !ok || cfg == nil {
		return nil, ErrFeeNotConfigured
	}
	cfg.Enabled = enabled
	cfg.Version++
	if err := e.state.PutFeeConfig(cfg); err != nil {
		return nil, fmt.Errorf("fees: store config: %w", err)
	}
	e.emit(events.FeeConfigChanged{Component: events.FeeComponentEnabled, Enabled: enabled, Version: cfg.Version})
	return cfg.Clone(), nil
}

// SetTierDiscount assigns a discount to a tier.
func (e *Engine) SetTierDiscount(tier uint32, bps uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if bps > MaxBps {
		return fmt.Errorf("%w: tier %d has %d bps", ErrDiscountTooLarge, tier, bps)
	}
	if err := e.state.PutTierDiscount(tier, bps); err != nil {
		return fmt.Errorf("fees: store tier discount: %w", err)
	}
	e.emit(events.FeeConfigChanged{Component: events.FeeComponentTier, Tier: tier, Bps: bps})
	return nil
}

// SetBusinessTier assigns business to tier. Unassigned businesses use tier 0.
func (e *Engine) SetBusinessTier(business [20]byte, tier uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.state.PutBusinessTier(business, tier); err != nil {
		return fmt.Errorf("fees: store business tier: %w", err)
	}
	e.emit(events.FeeConfigChanged{Component: events.FeeComponentBusinessTier, Business: business, Tier: tier})
	return nil
}

// SetVolumeBrackets replaces the volume discount table.
func (e *Engine) SetVolumeBrackets(thresholds []uint64, discounts []uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	brackets := VolumeBrackets{
		Thresholds: append([]uint64(nil), thresholds...),
		Discounts:  append([]uint32(nil), discounts...),
	}
	if err := brackets.Validate(); err != nil {
		return err
	}
	if err := e.state.PutVolumeBrackets(&brackets); err != nil {
		return fmt.Errorf("fees: store volume brackets: %w", err)
	}
	e.emit(events.FeeConfigChanged{Component: events.FeeComponentBrackets, Brackets: len(brackets.Thresholds)})
	return nil
}

// Config returns the dynamic fee config, if any.
func (e *Engine) Config() (*FeeConfig, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.FeeConfig()
}

// FlatConfig returns the flat fee config, if any.
func (e *Engine) FlatConfig() (*FlatFeeConfig, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.FlatFeeConfig()
}

// BusinessTier returns the tier assigned to business (0 when unset).
func (e *Engine) BusinessTier(business [20]byte) (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	tier, _, err := e.state.BusinessTier(business)
	return tier, err
}

// TierDiscount returns the discount configured for tier (0 when unset).
func (e *Engine) TierDiscount(tier uint32) (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	bps, _, err := e.state.TierDiscount(tier)
	return bps, err
}

// VolumeBrackets returns the configured volume discount table.
func (e *Engine) VolumeBrackets() (VolumeBrackets, error) {
	if e == nil || e.state == nil {
		return VolumeBrackets{}, errNilState
	}
	brackets, ok, err := e.state.VolumeBrackets()
	if err != nil || !ok || brackets == nil {
		return VolumeBrackets{}, err
	}
	return *brackets, nil
}

// SubmissionCount returns the lifetime submission counter for business.
func (e *Engine) SubmissionCount(business [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.SubmissionCount(business)
}

// IncrementSubmissionCount bumps the lifetime counter read by the volume
// bracket lookup of later submissions.
func (e *Engine) IncrementSubmissionCount(business [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	count, err := e.state.SubmissionCount(business)
	if err != nil {
		return 0, fmt.Errorf("fees: load submission count: %w", err)
	}
	if count == math.MaxUint64 {
		return 0, ErrCountOverflow
	}
	count++
	if err := e.state.PutSubmissionCount(business, count); err != nil {
		return 0, fmt.Errorf("fees: store submission count: %w", err)
	}
	return count, nil
}

func nextVersion(prev *FeeConfig) uint64 {
	if prev == nil {
		return 1
	}
	return prev.Version + 1
}
