package attestation

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
)

var (
	errNilState = errors.New("attestation engine: state not configured")

	ErrInvalidPeriod       = common.NewError(common.KindConfig, "invalid_period", "period label must be 1-64 bytes")
	ErrInvalidMetadata     = common.NewError(common.KindConfig, "invalid_metadata", "invalid attestation metadata")
	ErrAlreadyExists       = common.NewError(common.KindState, "attestation_exists", "attestation already exists for business and period")
	ErrNotFound            = common.NewError(common.KindNotFound, "attestation_not_found", "attestation not found")
	ErrAlreadyRevoked      = common.NewError(common.KindState, "attestation_revoked", "attestation already revoked")
	ErrVersionNotIncreased = common.NewError(common.KindState, "version_not_increased", "new version must be greater than the stored version")
)

type engineState interface {
	AttestationGet(business [20]byte, period string) (*Attestation, bool, error)
	AttestationPut(a *Attestation) error
	AttestationExists(business [20]byte, period string) (bool, error)
	AppendBusinessPeriod(business [20]byte, period string) error
	BusinessPeriodCount(business [20]byte) (uint64, error)
	BusinessPeriodAt(business [20]byte, index uint64) (string, bool, error)
}

// Authorizer answers role and pause questions for the write paths.
type Authorizer interface {
	HasAnyRole(account [20]byte, mask Role) bool
	IsPaused(module string) bool
}

// FeeCollector prices and debits submissions and tracks the lifetime counter
// the volume discount reads.
type FeeCollector interface {
	Collect(business [20]byte) (*big.Int, error)
	IncrementSubmissionCount(business [20]byte) (uint64, error)
}

// RateLimiter is the two-phase sliding window gate.
type RateLimiter interface {
	Check(business [20]byte) error
	Record(business [20]byte) error
}

// RangeStore persists multi-period ranges.
type RangeStore interface {
	CheckSubmittable(business [20]byte, start, end uint32) error
	Submit(business [20]byte, start, end uint32, root [32]byte, timestamp uint64, version uint32, feePaid *big.Int) (*ranges.Range, error)
	FindCovering(business [20]byte, period uint32) (*ranges.Range, bool, error)
	Verify(business [20]byte, period uint32, root [32]byte) (bool, error)
	RevokeByRoot(business [20]byte, root [32]byte) (int, error)
	List(business [20]byte) ([]*ranges.Range, error)
}

// Engine sequences every attestation write: pause check, rate-limit check,
// fee collection, duplicate or overlap check, persist, counter increment,
// rate-limit record, event. It relies on the host to discard all writes when
// any step fails.
type Engine struct {
	state   engineState
	auth    Authorizer
	fees    FeeCollector
	limiter RateLimiter
	ranges  RangeStore
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates an orchestrator with a no-op emitter and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the attestation store.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAuthorizer configures the role and pause registry.
func (e *Engine) SetAuthorizer(auth Authorizer) { e.auth = auth }

// SetFees configures the fee engine.
func (e *Engine) SetFees(fees FeeCollector) { e.fees = fees }

// SetLimiter configures the rate limiter.
func (e *Engine) SetLimiter(limiter RateLimiter) { e.limiter = limiter }

// SetRanges configures the multi-period range store.
func (e *Engine) SetRanges(store RangeStore) { e.ranges = store }

// SetNowFunc overrides the ledger clock used for expiry and revocation stamps.
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

func (e *Engine) guard() error {
	if e.auth == nil {
		return nil
	}
	return common.Guard(e.auth, common.ModuleAttestation)
}

func (e *Engine) hasRole(account [20]byte, mask Role) bool {
	return e.auth != nil && e.auth.HasAnyRole(account, mask)
}

// requireSubmitter admits the business itself or an attestor/admin acting
// on its behalf.
func (e *Engine) requireSubmitter(caller, business [20]byte) error {
	if caller == business || e.hasRole(caller, RoleAttestor|RoleAdmin) {
		return nil
	}
	return fmt.Errorf("%w: caller must be the business or hold the attestor role", ErrUnauthorized)
}

func (e *Engine) requireAdmin(caller [20]byte) error {
	if e.hasRole(caller, RoleAdmin) {
		return nil
	}
	return fmt.Errorf("%w: requires admin", ErrUnauthorized)
}

func (e *Engine) checkRate(business [20]byte) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Check(business)
}

func (e *Engine) recordRate(business [20]byte) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Record(business)
}

func (e *Engine) collect(business [20]byte) (*big.Int, error) {
	if e.fees == nil {
		return big.NewInt(0), nil
	}
	return e.fees.Collect(business)
}

func (e *Engine) incrementCount(business [20]byte) error {
	if e.fees == nil {
		return nil
	}
	_, err := e.fees.IncrementSubmissionCount(business)
	return err
}

// Submit stores a single-period attestation.
func (e *Engine) Submit(caller [20]byte, req SubmitRequest) (*Attestation, error) {
	return e.submit(caller, req, nil, events.SubmissionSingle)
}

// SubmitWithMetadata stores a single-period attestation with currency and
// revenue basis metadata.
func (e *Engine) SubmitWithMetadata(caller [20]byte, req SubmitRequest, currency string, isNet bool) (*Attestation, error) {
	meta, err := ValidateMetadata(currency, isNet)
	if err != nil {
		return nil, err
	}
	return e.submit(caller, req, &meta, events.SubmissionMetadata)
}

func (e *Engine) submit(caller [20]byte, req SubmitRequest, meta *Metadata, kind string) (*Attestation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	period, err := normalizePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	req.Period = period
	if err := e.guard(); err != nil {
		return nil, err
	}
	if err := e.requireSubmitter(caller, req.Business); err != nil {
		return nil, err
	}
	if err := e.checkRate(req.Business); err != nil {
		return nil, err
	}
	fee, err := e.collect(req.Business)
	if err != nil {
		return nil, err
	}
	record, err := e.store(req, fee, meta)
	if err != nil {
		return nil, err
	}
	if err := e.incrementCount(req.Business); err != nil {
		return nil, err
	}
	if err := e.recordRate(req.Business); err != nil {
		return nil, err
	}
	e.emitSubmitted(caller, record, kind)
	return record, nil
}

// store runs the duplicate check and persists the record.
func (e *Engine) store(req SubmitRequest, fee *big.Int, meta *Metadata) (*Attestation, error) {
	exists, err := e.state.AttestationExists(req.Business, req.Period)
	if err != nil {
		return nil, fmt.Errorf("attestation: check existing: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: period %q", ErrAlreadyExists, req.Period)
	}
	record := &Attestation{
		Business:   req.Business,
		Period:     req.Period,
		MerkleRoot: req.MerkleRoot,
		Timestamp:  req.Timestamp,
		Version:    req.Version,
		FeePaid:    new(big.Int).Set(fee),
		HasExpiry:  req.HasExpiry,
		Expiry:     req.Expiry,
	}
	if meta != nil {
		record.HasMetadata = true
		record.Metadata = *meta
	}
	if err := e.state.AttestationPut(record); err != nil {
		return nil, fmt.Errorf("attestation: store: %w", err)
	}
	if err := e.state.AppendBusinessPeriod(req.Business, req.Period); err != nil {
		return nil, fmt.Errorf("attestation: index period: %w", err)
	}
	return record.Clone(), nil
}

func (e *Engine) emitSubmitted(caller [20]byte, record *Attestation, kind string) {
	e.emit(events.AttestationSubmitted{
		Business:   record.Business,
		Period:     record.Period,
		MerkleRoot: record.MerkleRoot,
		Timestamp:  record.Timestamp,
		Version:    record.Version,
		FeePaid:    record.FeePaid,
		Kind:       kind,
		Submitter:  caller,
	})
}

// SubmitMultiPeriod stores a range attestation covering
// [req.StartPeriod, req.EndPeriod].
func (e *Engine) SubmitMultiPeriod(caller [20]byte, req MultiPeriodRequest) (*ranges.Range, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.ranges == nil {
		return nil, errors.New("attestation engine: range store not configured")
	}
	if req.StartPeriod > req.EndPeriod {
		return nil, fmt.Errorf("%w: [%d, %d]", ranges.ErrInvalidRange, req.StartPeriod, req.EndPeriod)
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if err := e.requireSubmitter(caller, req.Business); err != nil {
		return nil, err
	}
	if err := e.checkRate(req.Business); err != nil {
		return nil, err
	}
	fee, err := e.collect(req.Business)
	if err != nil {
		return nil, err
	}
	stored, err := e.ranges.Submit(req.Business, req.StartPeriod, req.EndPeriod, req.MerkleRoot, req.Timestamp, req.Version, fee)
	if err != nil {
		return nil, err
	}
	if err := e.incrementCount(req.Business); err != nil {
		return nil, err
	}
	if err := e.recordRate(req.Business); err != nil {
		return nil, err
	}
	e.emit(events.MultiPeriodIssued{
		Business:    req.Business,
		StartPeriod: stored.StartPeriod,
		EndPeriod:   stored.EndPeriod,
		MerkleRoot:  stored.MerkleRoot,
		FeePaid:     stored.FeePaid,
	})
	return stored, nil
}
