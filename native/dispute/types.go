package dispute

import (
	"fmt"
	"strings"
)

// Status is the lifecycle position of a dispute. Transitions only move
// forward: Open -> Resolved -> Closed.
type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusResolved
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusResolved:
		return "resolved"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Type classifies the challenge.
type Type uint8

const (
	TypeRevenueMismatch Type = iota + 1
	TypeDataIntegrity
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeRevenueMismatch:
		return "revenue_mismatch"
	case TypeDataIntegrity:
		return "data_integrity"
	case TypeOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseType maps the wire label to a Type.
func ParseType(label string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "revenue_mismatch", "revenuemismatch":
		return TypeRevenueMismatch, nil
	case "data_integrity", "dataintegrity":
		return TypeDataIntegrity, nil
	case "other":
		return TypeOther, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidType, label)
	}
}

// Outcome is the arbitration result recorded on resolution.
type Outcome uint8

const (
	OutcomeUpheld Outcome = iota + 1
	OutcomeRejected
	OutcomeSettled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpheld:
		return "upheld"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// ParseOutcome maps the wire label to an Outcome.
func ParseOutcome(label string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "upheld":
		return OutcomeUpheld, nil
	case "rejected":
		return OutcomeRejected, nil
	case "settled":
		return OutcomeSettled, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, label)
	}
}

// Resolution records who resolved a dispute and how.
type Resolution struct {
	Resolver  [20]byte
	Outcome   Outcome
	Timestamp uint64
	Notes     string
}

// Dispute is a challenge against the attestation stored at
// (Business, Period).
type Dispute struct {
	ID            uint64
	Challenger    [20]byte
	Business      [20]byte
	Period        string
	Status        Status
	Type          Type
	Evidence      string
	Timestamp     uint64
	HasResolution bool
	Resolution    Resolution
}

// Clone returns a copy of the dispute.
func (d *Dispute) Clone() *Dispute {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}
