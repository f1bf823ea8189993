package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/state"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/bank"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/dispute"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/fees"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ratelimit"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/observability"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/storage"
)

// Options tunes a Node. The zero value logs to slog.Default and reads the
// wall clock.
type Options struct {
	Logger        *slog.Logger
	Now           func() uint64
	StreamHistory int
	Disputes      DisputePolicy
	// AllowStateMigrate permits opening a database stamped with an older
	// schema version.
	AllowStateMigrate bool
}

// Node is the central controller, wiring all engines over one journaled
// state and serialising every entry point.
type Node struct {
	db     storage.Database
	state  *state.Manager
	logger *slog.Logger
	nowFn  func() uint64
	mu     sync.Mutex

	buffer *events.Buffer
	sinks  events.Multi
	stream *eventStream

	access   *attestation.Access
	fees     *fees.Engine
	limiter  *ratelimit.Limiter
	ranges   *ranges.Manager
	disputes *dispute.Engine
	attest   *attestation.Engine
	ledger   *bank.Ledger
	nonces   *common.NonceTracker
	policy   DisputePolicy
}

// NewNode wires the engines over db. The state schema version is checked
// first; a fresh database is stamped with the current version.
func NewNode(db storage.Database, opts Options) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: database must not be nil")
	}
	if err := state.EnsureStateVersion(db, opts.AllowStateMigrate); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = func() uint64 { return uint64(time.Now().Unix()) }
	}
	policy := opts.Disputes
	if policy.isZero() {
		policy = DefaultDisputePolicy()
	}

	manager := state.NewManager(db)
	buffer := &events.Buffer{}
	n := &Node{
		db:     db,
		state:  manager,
		logger: logger.With(slog.String("component", "node")),
		nowFn:  nowFn,
		buffer: buffer,
		stream: newEventStream(opts.StreamHistory),
		policy: policy,
	}

	n.ledger = bank.NewLedger(manager)
	n.nonces = common.NewNonceTracker(manager)

	n.access = attestation.NewAccess()
	n.access.SetState(manager)
	n.access.SetEmitter(buffer)

	n.fees = fees.NewEngine()
	n.fees.SetState(manager)
	n.fees.SetLedger(n.ledger)
	n.fees.SetEmitter(buffer)

	n.limiter = ratelimit.NewLimiter()
	n.limiter.SetState(manager)
	n.limiter.SetNowFunc(nowFn)

	n.ranges = ranges.NewManager()
	n.ranges.SetState(manager)

	n.disputes = dispute.NewEngine()
	n.disputes.SetState(manager)
	n.disputes.SetEmitter(buffer)
	n.disputes.SetNowFunc(nowFn)

	n.attest = attestation.NewEngine()
	n.attest.SetState(manager)
	n.attest.SetAuthorizer(n.access)
	n.attest.SetFees(n.fees)
	n.attest.SetLimiter(n.limiter)
	n.attest.SetRanges(n.ranges)
	n.attest.SetEmitter(buffer)
	n.attest.SetNowFunc(nowFn)

	return n, nil
}

// AddSink registers an emitter that receives every committed event, in
// commit order. Sinks run under the node lock and must not block.
func (n *Node) AddSink(sink events.Emitter) {
	if sink == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = append(n.sinks, sink)
}

// Now returns the ledger clock.
func (n *Node) Now() uint64 { return n.nowFn() }

// execute runs fn inside a state transaction. Every write and buffered event
// is discarded when fn fails; on success the journal is committed and the
// events are published.
func (n *Node) execute(op string, fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.state.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		n.state.Rollback()
		n.buffer.Reset()
		n.logger.Debug("operation rejected", slog.String("op", op), slog.String("error", err.Error()))
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.buffer.Reset()
		n.logger.Error("commit failed", slog.String("op", op), slog.String("error", err.Error()))
		return err
	}
	n.publish(n.buffer.Drain())
	return nil
}

// read runs a query under the node lock.
func (n *Node) read(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}

func (n *Node) publish(committed []events.Event) {
	metrics := observability.Attestation()
	eventMetrics := observability.Events()
	for _, evt := range committed {
		switch payload := evt.(type) {
		case events.FeeCollected:
			metrics.RecordFee(payload.Token, payload.Total)
		case events.RangeRevoked:
			metrics.RecordRangesRevoked(payload.Count)
		case events.DisputeOpened:
			metrics.RecordDispute("opened")
		case events.DisputeResolved:
			metrics.RecordDispute("resolved")
		case events.DisputeClosed:
			metrics.RecordDispute("closed")
		}
		eventMetrics.RecordPublished(evt.EventType())
		n.sinks.Emit(evt)
		n.stream.publish(events.ToTypes(evt))
	}
}

// verifyNonce consumes the admin replay-protection nonce of caller.
func (n *Node) verifyNonce(caller [20]byte, channel uint32, nonce uint64) error {
	return n.nonces.VerifyAndIncrement(caller, channel, nonce)
}

func (n *Node) requireAdmin(caller [20]byte) error {
	return n.access.Require(caller, attestation.RoleAdmin)
}

// Nonce returns the next expected admin nonce of caller on channel.
func (n *Node) Nonce(caller [20]byte, channel uint32) (uint64, error) {
	var out uint64
	err := n.read(func() error {
		var err error
		out, err = n.nonces.Current(caller, channel)
		return err
	})
	return out, err
}

func recordSubmission(kind string, err error) {
	metrics := observability.Attestation()
	metrics.RecordSubmission(kind, err)
	if errors.Is(err, ratelimit.ErrRateLimited) {
		metrics.RecordRateLimited()
	}
}
