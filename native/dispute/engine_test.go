package dispute

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

type attKey struct {
	business [20]byte
	period   string
}

type mockState struct {
	attestations map[attKey]bool
	counter      uint64
	disputes     map[uint64]*Dispute
	byAtt        map[attKey][]uint64
	byChallenger map[[20]byte][]uint64
}

func newMockState() *mockState {
	return &mockState{
		attestations: make(map[attKey]bool),
		disputes:     make(map[uint64]*Dispute),
		byAtt:        make(map[attKey][]uint64),
		byChallenger: make(map[[20]byte][]uint64),
	}
}

func (m *mockState) AttestationExists(business [20]byte, period string) (bool, error) {
	return m.attestations[attKey{business, period}], nil
}

func (m *mockState) DisputeCounter() (uint64, error) { return m.counter, nil }

func (m *mockState) SetDisputeCounter(v uint64) error {
	m.counter = v
	return nil
}

func (m *mockState) DisputePut(d *Dispute) error {
	m.disputes[d.ID] = d.Clone()
	return nil
}

func (m *mockState) DisputeGet(id uint64) (*Dispute, bool, error) {
	d, ok := m.disputes[id]
	return d.Clone(), ok, nil
}

func (m *mockState) DisputeIndexAppend(business [20]byte, period string, id uint64) error {
	key := attKey{business, period}
	m.byAtt[key] = append(m.byAtt[key], id)
	return nil
}

func (m *mockState) DisputeIndex(business [20]byte, period string) ([]uint64, error) {
	return append([]uint64(nil), m.byAtt[attKey{business, period}]...), nil
}

func (m *mockState) ChallengerIndexAppend(challenger [20]byte, id uint64) error {
	m.byChallenger[challenger] = append(m.byChallenger[challenger], id)
	return nil
}

func (m *mockState) ChallengerIndex(challenger [20]byte) ([]uint64, error) {
	return append([]uint64(nil), m.byChallenger[challenger]...), nil
}

type capture struct{ events []events.Event }

func (c *capture) Emit(evt events.Event) { c.events = append(c.events, evt) }

var (
	business   = [20]byte{0xB0}
	challenger = [20]byte{0xC1}
	arbiter    = [20]byte{0xA2}
)

func newTestEngine(t *testing.T) (*Engine, *mockState, *capture) {
	t.Helper()
	state := newMockState()
	state.attestations[attKey{business, "2026-Q1"}] = true
	sink := &capture{}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetEmitter(sink)
	engine.SetNowFunc(func() uint64 { return 1_700_000_000 })
	return engine, state, sink
}

func TestDisputeLifecycle(t *testing.T) {
	engine, _, sink := newTestEngine(t)

	id, err := engine.Open(challenger, business, "2026-Q1", TypeRevenueMismatch, "totals differ from bank statement")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first id 1, got %d", id)
	}
	if _, err := engine.Open(challenger, business, "2026-Q1", TypeOther, "again"); !errors.Is(err, ErrDuplicateDispute) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := engine.Close(arbiter, id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("close before resolve must fail, got %v", err)
	}
	resolved, err := engine.Resolve(arbiter, id, OutcomeUpheld, "confirmed")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != StatusResolved || !resolved.HasResolution || resolved.Resolution.Resolver != arbiter {
		t.Fatalf("unexpected resolution %+v", resolved)
	}
	if _, err := engine.Resolve(arbiter, id, OutcomeRejected, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second resolve must fail, got %v", err)
	}
	closed, err := engine.Close(arbiter, id)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != StatusClosed {
		t.Fatalf("expected closed, got %s", closed.Status)
	}
	for _, op := range []func() error{
		func() error { _, err := engine.Resolve(arbiter, id, OutcomeSettled, ""); return err },
		func() error { _, err := engine.Close(arbiter, id); return err },
	} {
		if err := op(); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("closed dispute must stay closed, got %v", err)
		}
	}
	wantTypes := []string{events.TypeDisputeOpened, events.TypeDisputeResolved, events.TypeDisputeClosed}
	if len(sink.events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d", len(wantTypes), len(sink.events))
	}
	for i, want := range wantTypes {
		if sink.events[i].EventType() != want {
			t.Fatalf("event %d: want %s got %s", i, want, sink.events[i].EventType())
		}
	}
}

func TestOpenRequiresAttestation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.Open(challenger, business, "2030-Q4", TypeDataIntegrity, "missing")
	if !errors.Is(err, ErrNoSuchAttestation) || common.KindOf(err) != common.KindNotFound {
		t.Fatalf("expected no such attestation, got %v", err)
	}
	if _, err := engine.Open(challenger, business, "2026-Q1", Type(9), "x"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected invalid type, got %v", err)
	}
}

func TestOpenNormalizesPeriodLabel(t *testing.T) {
	engine, state, sink := newTestEngine(t)
	id, err := engine.Open(challenger, business, "  2026-Q1\t", TypeRevenueMismatch, "padded label")
	if err != nil {
		t.Fatalf("open with padded period: %v", err)
	}
	if got := state.byAtt[attKey{business, "2026-Q1"}]; len(got) != 1 || got[0] != id {
		t.Fatalf("dispute indexed under %v", state.byAtt)
	}
	d, ok, _ := engine.Get(id)
	if !ok || d.Period != "2026-Q1" {
		t.Fatalf("unexpected stored period %+v", d)
	}
	opened, ok := sink.events[0].(events.DisputeOpened)
	if !ok || opened.Period != "2026-Q1" {
		t.Fatalf("unexpected event %+v", sink.events[0])
	}
	padded, err := engine.ByAttestation(business, " 2026-Q1 ")
	if err != nil || len(padded) != 1 {
		t.Fatalf("by padded attestation: %d %v", len(padded), err)
	}
	for _, label := range []string{"", "   ", strings.Repeat("q", 65)} {
		if _, err := engine.Open(challenger, business, label, TypeOther, "x"); !errors.Is(err, ErrNoSuchAttestation) {
			t.Fatalf("label %q: expected no such attestation, got %v", label, err)
		}
		list, err := engine.ByAttestation(business, label)
		if err != nil || len(list) != 0 {
			t.Fatalf("label %q: expected empty list, got %d %v", label, len(list), err)
		}
	}
}

func TestClosedDisputeAllowsNewChallenge(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	id, _ := engine.Open(challenger, business, "2026-Q1", TypeOther, "first")
	_, _ = engine.Resolve(arbiter, id, OutcomeRejected, "")
	_, _ = engine.Close(arbiter, id)
	second, err := engine.Open(challenger, business, "2026-Q1", TypeOther, "second")
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	if second != 2 {
		t.Fatalf("expected id 2, got %d", second)
	}
	// a resolved but unclosed dispute still blocks
	_, _ = engine.Resolve(arbiter, second, OutcomeSettled, "")
	if _, err := engine.Open(challenger, business, "2026-Q1", TypeOther, "third"); !errors.Is(err, ErrDuplicateDispute) {
		t.Fatalf("resolved dispute must block, got %v", err)
	}
}

func TestIndices(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	state.attestations[attKey{business, "2026-Q2"}] = true
	other := [20]byte{0xC2}
	_, _ = engine.Open(challenger, business, "2026-Q1", TypeOther, "a")
	_, _ = engine.Open(other, business, "2026-Q1", TypeOther, "b")
	_, _ = engine.Open(challenger, business, "2026-Q2", TypeOther, "c")

	byAtt, err := engine.ByAttestation(business, "2026-Q1")
	if err != nil || len(byAtt) != 2 {
		t.Fatalf("by attestation: %d %v", len(byAtt), err)
	}
	mine, err := engine.ByChallenger(challenger)
	if err != nil || len(mine) != 2 {
		t.Fatalf("by challenger: %d %v", len(mine), err)
	}
	if mine[0].ID != 1 || mine[1].ID != 3 {
		t.Fatalf("unexpected order %d,%d", mine[0].ID, mine[1].ID)
	}
	if _, ok, _ := engine.Get(42); ok {
		t.Fatalf("unknown id must be absent")
	}
	if _, err := engine.Resolve(arbiter, 42, OutcomeUpheld, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestParseLabels(t *testing.T) {
	for _, kind := range []Type{TypeRevenueMismatch, TypeDataIntegrity, TypeOther} {
		parsed, err := ParseType(kind.String())
		if err != nil || parsed != kind {
			t.Fatalf("type %s: %v", kind, err)
		}
	}
	for _, outcome := range []Outcome{OutcomeUpheld, OutcomeRejected, OutcomeSettled} {
		parsed, err := ParseOutcome(fmt.Sprintf(" %s ", outcome))
		if err != nil || parsed != outcome {
			t.Fatalf("outcome %s: %v", outcome, err)
		}
	}
	if _, err := ParseOutcome("maybe"); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected invalid outcome, got %v", err)
	}
}
