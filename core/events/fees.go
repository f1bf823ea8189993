package events

import (
	"math/big"
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/types"
)

const (
	// TypeFeeConfigChanged marks an update to any fee table or config record.
	TypeFeeConfigChanged = "fees.config_changed"
	// TypeFeeCollected marks a fee debit taken during a submission.
	TypeFeeCollected = "fees.collected"
)

// Fee configuration components reported by FeeConfigChanged.
const (
	FeeComponentDynamic      = "dynamic"
	FeeComponentFlat         = "flat"
	FeeComponentEnabled      = "enabled"
	FeeComponentTier         = "tier"
	FeeComponentBusinessTier = "business_tier"
	FeeComponentBrackets     = "volume_brackets"
)

// FeeConfigChanged reports which part of the pricing schedule moved.
type FeeConfigChanged struct {
	Component string
	Token     string
	Amount    *big.Int
	Enabled   bool
	Version   uint64
	Tier      uint32
	Bps       uint32
	Business  [20]byte
	Brackets  int
}

// EventType satisfies the events.Event interface.
func (FeeConfigChanged) EventType() string { return TypeFeeConfigChanged }

// Event converts the structured payload into a broadcastable event.
func (e FeeConfigChanged) Event() *types.Event {
	attrs := map[string]string{"component": e.Component}
	switch e.Component {
	case FeeComponentDynamic, FeeComponentFlat:
		attrs["token"] = strings.ToUpper(strings.TrimSpace(e.Token))
		attrs["amount"] = amount(e.Amount)
		attrs["enabled"] = boolString(e.Enabled)
		attrs["version"] = u64(e.Version)
	case FeeComponentEnabled:
		attrs["enabled"] = boolString(e.Enabled)
		attrs["version"] = u64(e.Version)
	case FeeComponentTier:
		attrs["tier"] = u32(e.Tier)
		attrs["bps"] = u32(e.Bps)
	case FeeComponentBusinessTier:
		attrs["business"] = account(e.Business)
		attrs["tier"] = u32(e.Tier)
	case FeeComponentBrackets:
		attrs["brackets"] = u64(uint64(e.Brackets))
	}
	return &types.Event{Type: TypeFeeConfigChanged, Attributes: attrs}
}

// FeeCollected records the split of a collected fee.
type FeeCollected struct {
	Business [20]byte
	Token    string
	Dynamic  *big.Int
	Flat     *big.Int
	Total    *big.Int
	Discount uint32
}

// EventType satisfies the events.Event interface.
func (FeeCollected) EventType() string { return TypeFeeCollected }

// Event converts the structured payload into a broadcastable event.
func (e FeeCollected) Event() *types.Event {
	attrs := map[string]string{
		"business": account(e.Business),
		"dynamic":  amount(e.Dynamic),
		"flat":     amount(e.Flat),
		"total":    amount(e.Total),
	}
	if token := strings.TrimSpace(e.Token); token != "" {
		attrs["token"] = strings.ToUpper(token)
	}
	if e.Discount > 0 {
		attrs["discountBps"] = u32(e.Discount)
	}
	return &types.Event{Type: TypeFeeCollected, Attributes: attrs}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
