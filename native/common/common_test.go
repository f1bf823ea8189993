package common

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

type nonceKey struct {
	actor   [20]byte
	channel uint32
}

type memNonces map[nonceKey]uint64

func (m memNonces) Nonce(actor [20]byte, channel uint32) (uint64, error) {
	return m[nonceKey{actor, channel}], nil
}

func (m memNonces) PutNonce(actor [20]byte, channel uint32, value uint64) error {
	m[nonceKey{actor, channel}] = value
	return nil
}

type pauses map[string]bool

func (p pauses) IsPaused(module string) bool { return p[module] }

func TestNonceSequence(t *testing.T) {
	state := memNonces{}
	tracker := NewNonceTracker(state)
	actor := [20]byte{1}

	for i := uint64(0); i < 3; i++ {
		if err := tracker.VerifyAndIncrement(actor, NonceChannelAdmin, i); err != nil {
			t.Fatalf("nonce %d: %v", i, err)
		}
	}
	if err := tracker.VerifyAndIncrement(actor, NonceChannelAdmin, 1); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("expected replay rejection, got %v", err)
	}
	if err := tracker.VerifyAndIncrement(actor, NonceChannelAdmin, 5); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("expected skip rejection, got %v", err)
	}
	// channels are independent
	if err := tracker.VerifyAndIncrement(actor, NonceChannelFees, 0); err != nil {
		t.Fatalf("fees channel: %v", err)
	}
	current, _ := tracker.Current(actor, NonceChannelAdmin)
	if current != 3 {
		t.Fatalf("expected admin nonce 3, got %d", current)
	}
}

func TestNonceOverflow(t *testing.T) {
	state := memNonces{}
	actor := [20]byte{2}
	state[nonceKey{actor, NonceChannelAdmin}] = math.MaxUint64
	err := NewNonceTracker(state).VerifyAndIncrement(actor, NonceChannelAdmin, math.MaxUint64)
	if !errors.Is(err, ErrNonceOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if KindOf(err) != KindLimitExceeded {
		t.Fatalf("unexpected kind %s", KindOf(err))
	}
}

func TestGuard(t *testing.T) {
	if err := Guard(nil, ModuleAttestation); err != nil {
		t.Fatalf("nil view should not block: %v", err)
	}
	view := pauses{ModuleAttestation: true}
	if err := Guard(view, ModuleAttestation); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	if err := Guard(view, "other"); err != nil {
		t.Fatalf("unexpected pause for other module: %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	sentinel := NewError(KindNotFound, "missing", "thing missing")
	wrapped := fmt.Errorf("%w: id 7", sentinel)
	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("wrapped error lost identity")
	}
	if KindOf(wrapped) != KindNotFound || CodeOf(wrapped) != "missing" {
		t.Fatalf("unexpected classification %s/%s", KindOf(wrapped), CodeOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain errors must be unknown")
	}

	cause := errors.New("insufficient balance")
	tagged := Wrap(KindResource, "transfer_failed", cause)
	if !errors.Is(tagged, cause) || KindOf(tagged) != KindResource {
		t.Fatalf("wrap must keep cause and add kind: %v", tagged)
	}
	if Wrap(KindResource, "x", sentinel) != sentinel {
		t.Fatalf("typed errors must pass through unchanged")
	}
}
