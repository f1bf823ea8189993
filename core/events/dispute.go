package events

import (
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/types"
)

const (
	TypeDisputeOpened   = "dispute.opened"
	TypeDisputeResolved = "dispute.resolved"
	TypeDisputeClosed   = "dispute.closed"
)

// DisputeOpened records a new challenge against a stored attestation.
type DisputeOpened struct {
	ID         uint64
	Challenger [20]byte
	Business   [20]byte
	Period     string
	Type       string
}

func (DisputeOpened) EventType() string { return TypeDisputeOpened }

func (e DisputeOpened) Event() *types.Event {
	return &types.Event{Type: TypeDisputeOpened, Attributes: map[string]string{
		"id":         u64(e.ID),
		"challenger": account(e.Challenger),
		"business":   account(e.Business),
		"period":     e.Period,
		"type":       e.Type,
	}}
}

// DisputeResolved records the arbitration outcome.
type DisputeResolved struct {
	ID       uint64
	Resolver [20]byte
	Outcome  string
	Notes    string
}

func (DisputeResolved) EventType() string { return TypeDisputeResolved }

func (e DisputeResolved) Event() *types.Event {
	attrs := map[string]string{
		"id":       u64(e.ID),
		"resolver": account(e.Resolver),
		"outcome":  e.Outcome,
	}
	if notes := strings.TrimSpace(e.Notes); notes != "" {
		attrs["notes"] = notes
	}
	return &types.Event{Type: TypeDisputeResolved, Attributes: attrs}
}

// DisputeClosed marks the terminal transition.
type DisputeClosed struct {
	ID     uint64
	Closer [20]byte
}

func (DisputeClosed) EventType() string { return TypeDisputeClosed }

func (e DisputeClosed) Event() *types.Event {
	attrs := map[string]string{"id": u64(e.ID)}
	if !zeroBytes(e.Closer[:]) {
		attrs["closedBy"] = account(e.Closer)
	}
	return &types.Event{Type: TypeDisputeClosed, Attributes: attrs}
}
