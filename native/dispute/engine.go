package dispute

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

var (
	errNilState = errors.New("dispute engine: state not configured")

	ErrNoSuchAttestation = common.NewError(common.KindNotFound, "no_such_attestation", "attestation not found")
	ErrDuplicateDispute  = common.NewError(common.KindState, "duplicate_dispute", "challenger already has an active dispute on this attestation")
	ErrNotFound          = common.NewError(common.KindNotFound, "dispute_not_found", "dispute not found")
	ErrInvalidState      = common.NewError(common.KindState, "invalid_dispute_state", "dispute is not in the required state")
	ErrInvalidType       = common.NewError(common.KindConfig, "invalid_dispute_type", "unknown dispute type")
	ErrInvalidOutcome    = common.NewError(common.KindConfig, "invalid_outcome", "unknown dispute outcome")
	ErrIDOverflow        = common.NewError(common.KindLimitExceeded, "dispute_id_overflow", "dispute id counter overflow")
)

// MaxEvidenceLength bounds the free-text evidence and notes fields.
const MaxEvidenceLength = 2048

// maxPeriodLength matches the attestation engine's label bound.
const maxPeriodLength = 64

type engineState interface {
	AttestationExists(business [20]byte, period string) (bool, error)
	DisputeCounter() (uint64, error)
	SetDisputeCounter(value uint64) error
	DisputePut(d *Dispute) error
	DisputeGet(id uint64) (*Dispute, bool, error)
	DisputeIndexAppend(business [20]byte, period string, id uint64) error
	DisputeIndex(business [20]byte, period string) ([]uint64, error)
	ChallengerIndexAppend(challenger [20]byte, id uint64) error
	ChallengerIndex(challenger [20]byte) ([]uint64, error)
}

// Engine enforces the dispute state machine. Who may resolve or close a
// dispute is decided by the caller.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates a dispute engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetNowFunc overrides the time source used by the engine.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

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
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// Open files a challenge against a stored attestation and returns its id.
func (e *Engine) Open(challenger, business [20]byte, period string, kind Type, evidence string) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if kind < TypeRevenueMismatch || kind > TypeOther {
		return 0, fmt.Errorf("%w: %d", ErrInvalidType, kind)
	}
	evidence = strings.TrimSpace(evidence)
	if len(evidence) > MaxEvidenceLength {
		evidence = evidence[:MaxEvidenceLength]
	}
	label, ok := normalizePeriod(period)
	if !ok {
		return 0, fmt.Errorf("%w: period %q", ErrNoSuchAttestation, period)
	}
	period = label
	exists, err := e.state.AttestationExists(business, period)
	if err != nil {
		return 0, fmt.Errorf("dispute: check attestation: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: period %q", ErrNoSuchAttestation, period)
	}
	// One active dispute per challenger per attestation.
	ids, err := e.state.ChallengerIndex(challenger)
	if err != nil {
		return 0, fmt.Errorf("dispute: load challenger index: %w", err)
	}
	for _, id := range ids {
		existing, ok, err := e.state.DisputeGet(id)
		if err != nil {
			return 0, fmt.Errorf("dispute: load %d: %w", id, err)
		}
		if !ok || existing.Business != business || existing.Period != period {
			continue
		}
		if existing.Status != StatusClosed {
			return 0, fmt.Errorf("%w: dispute %d", ErrDuplicateDispute, existing.ID)
		}
	}
	counter, err := e.state.DisputeCounter()
	if err != nil {
		return 0, fmt.Errorf("dispute: load counter: %w", err)
	}
	if counter == math.MaxUint64 {
		return 0, ErrIDOverflow
	}
	id := counter + 1
	d := &Dispute{
		ID:         id,
		Challenger: challenger,
		Business:   business,
		Period:     period,
		Status:     StatusOpen,
		Type:       kind,
		Evidence:   evidence,
		Timestamp:  e.now(),
	}
	if err := e.state.DisputePut(d); err != nil {
		return 0, fmt.Errorf("dispute: store: %w", err)
	}
	if err := e.state.SetDisputeCounter(id); err != nil {
		return 0, fmt.Errorf("dispute: store counter: %w", err)
	}
	if err := e.state.DisputeIndexAppend(business, period, id); err != nil {
		return 0, fmt.Errorf("dispute: index attestation: %w", err)
	}
	if err := e.state.ChallengerIndexAppend(challenger, id); err != nil {
		return 0, fmt.Errorf("dispute: index challenger: %w", err)
	}
	e.emit(events.DisputeOpened{ID: id, Challenger: challenger, Business: business, Period: period, Type: kind.String()})
	return id, nil
}

func (e *Engine) load(id uint64) (*Dispute, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	d, ok, err := e.state.DisputeGet(id)
	if err != nil {
		return nil, fmt.Errorf("dispute: load %d: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return d, nil
}

// Resolve moves an Open dispute to Resolved and stamps the resolution.
func (e *Engine) Resolve(resolver [20]byte, id uint64, outcome Outcome, notes string) (*Dispute, error) {
	if outcome < OutcomeUpheld || outcome > OutcomeSettled {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutcome, outcome)
	}
	d, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusOpen {
		return nil, fmt.Errorf("%w: dispute %d is %s, want open", ErrInvalidState, id, d.Status)
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > MaxEvidenceLength {
		notes = notes[:MaxEvidenceLength]
	}
	d.Status = StatusResolved
	d.HasResolution = true
	d.Resolution = Resolution{Resolver: resolver, Outcome: outcome, Timestamp: e.now(), Notes: notes}
	if err := e.state.DisputePut(d); err != nil {
		return nil, fmt.Errorf("dispute: store: %w", err)
	}
	e.emit(events.DisputeResolved{ID: id, Resolver: resolver, Outcome: outcome.String(), Notes: notes})
	return d.Clone(), nil
}

// Close moves a Resolved dispute to the terminal Closed state.
func (e *Engine) Close(closer [20]byte, id uint64) (*Dispute, error) {
	d, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusResolved {
		return nil, fmt.Errorf("%w: dispute %d is %s, want resolved", ErrInvalidState, id, d.Status)
	}
	d.Status = StatusClosed
	if err := e.state.DisputePut(d); err != nil {
		return nil, fmt.Errorf("dispute: store: %w", err)
	}
	e.emit(events.DisputeClosed{ID: id, Closer: closer})
	return d.Clone(), nil
}

// Get returns the dispute with id, if any.
func (e *Engine) Get(id uint64) (*Dispute, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	return e.state.DisputeGet(id)
}

// ByAttestation lists disputes filed against (business, period) in filing order.
func (e *Engine) ByAttestation(business [20]byte, period string) ([]*Dispute, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	period, ok := normalizePeriod(period)
	if !ok {
		return []*Dispute{}, nil
	}
	ids, err := e.state.DisputeIndex(business, period)
	if err != nil {
		return nil, fmt.Errorf("dispute: load attestation index: %w", err)
	}
	return e.resolveIDs(ids)
}

// ByChallenger lists disputes filed by challenger in filing order.
func (e *Engine) ByChallenger(challenger [20]byte) ([]*Dispute, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ids, err := e.state.ChallengerIndex(challenger)
	if err != nil {
		return nil, fmt.Errorf("dispute: load challenger index: %w", err)
	}
	return e.resolveIDs(ids)
}

// normalizePeriod trims a period label the way attestations are keyed. A
// label no attestation can carry reports false.
func normalizePeriod(period string) (string, bool) {
	trimmed := strings.TrimSpace(period)
	if trimmed == "" || len(trimmed) > maxPeriodLength {
		return "", false
	}
	return trimmed, true
}

func (e *Engine) resolveIDs(ids []uint64) ([]*Dispute, error) {
	out := make([]*Dispute, 0, len(ids))
	for _, id := range ids {
		d, ok, err := e.state.DisputeGet(id)
		if err != nil {
			return nil, fmt.Errorf("dispute: load %d: %w", id, err)
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}
