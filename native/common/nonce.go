package common

import (
	"fmt"
	"math"
)

var (
	ErrNonceMismatch = NewError(KindState, "nonce_mismatch", "nonce mismatch for actor/channel pair")
	ErrNonceOverflow = NewError(KindLimitExceeded, "nonce_overflow", "nonce overflow")
)

// Nonce channels separate independent replay streams for the same actor.
const (
	NonceChannelAdmin uint32 = 1
	NonceChannelFees  uint32 = 2
)

// NonceState persists the per-(actor, channel) counters.
type NonceState interface {
	Nonce(actor [20]byte, channel uint32) (uint64, error)
	PutNonce(actor [20]byte, channel uint32, value uint64) error
}

// NonceTracker enforces strictly sequential nonces. The first valid nonce for
// a pair is 0; a successful call advances the counter by one.
type NonceTracker struct {
	state NonceState
}

func NewNonceTracker(state NonceState) *NonceTracker {
	return &NonceTracker{state: state}
}

// Current returns the nonce the actor must supply next on the channel.
func (n *NonceTracker) Current(actor [20]byte, channel uint32) (uint64, error) {
	if n == nil || n.state == nil {
		return 0, fmt.Errorf("nonce tracker: state not configured")
	}
	return n.state.Nonce(actor, channel)
}

// VerifyAndIncrement checks provided against the stored counter and advances
// it. Nothing is written on mismatch.
func (n *NonceTracker) VerifyAndIncrement(actor [20]byte, channel uint32, provided uint64) error {
	current, err := n.Current(actor, channel)
	if err != nil {
		return err
	}
	if provided != current {
		return fmt.Errorf("%w: expected %d, got %d", ErrNonceMismatch, current, provided)
	}
	if current == math.MaxUint64 {
		return ErrNonceOverflow
	}
	return n.state.PutNonce(actor, channel, current+1)
}
