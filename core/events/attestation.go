package events

import (
	"math/big"
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/types"
)

const (
	// TypeAttestationSubmitted is emitted for every stored single-period attestation.
	TypeAttestationSubmitted = "attestation.submitted"
	// TypeAttestationRevoked is emitted when a single-period attestation is revoked.
	TypeAttestationRevoked = "attestation.revoked"
	// TypeAttestationMigrated is emitted when an attestation receives a new root and version.
	TypeAttestationMigrated = "attestation.migrated"
	// TypeMultiPeriodIssued is emitted when a multi-period range is stored.
	TypeMultiPeriodIssued = "attestation.multi_period_issued"
	// TypeRangeRevoked is emitted when ranges matching a root are revoked.
	TypeRangeRevoked = "attestation.range_revoked"
)

// Submission kinds carried by AttestationSubmitted.
const (
	SubmissionSingle   = "single"
	SubmissionMetadata = "metadata"
	SubmissionBatch    = "batch"
)

// AttestationSubmitted records a newly stored single-period attestation.
type AttestationSubmitted struct {
	Business   [20]byte
	Period     string
	MerkleRoot [32]byte
	Timestamp  uint64
	Version    uint32
	FeePaid    *big.Int
	Kind       string
	Submitter  [20]byte
}

// EventType satisfies the events.Event interface.
func (AttestationSubmitted) EventType() string { return TypeAttestationSubmitted }

// Event converts the payload into a broadcastable event.
func (e AttestationSubmitted) Event() *types.Event {
	attrs := map[string]string{
		"business":   account(e.Business),
		"period":     e.Period,
		"merkleRoot": rootHex(e.MerkleRoot),
		"timestamp":  u64(e.Timestamp),
		"version":    u32(e.Version),
		"feePaid":    amount(e.FeePaid),
	}
	if kind := strings.TrimSpace(e.Kind); kind != "" {
		attrs["kind"] = kind
	}
	if !zeroBytes(e.Submitter[:]) && e.Submitter != e.Business {
		attrs["submitter"] = account(e.Submitter)
	}
	return &types.Event{Type: TypeAttestationSubmitted, Attributes: attrs}
}

// AttestationRevoked records a logical revocation.
type AttestationRevoked struct {
	Business  [20]byte
	Period    string
	RevokedBy [20]byte
	Reason    string
	At        uint64
}

// EventType satisfies the events.Event interface.
func (AttestationRevoked) EventType() string { return TypeAttestationRevoked }

// Event converts the payload into a broadcastable event.
func (e AttestationRevoked) Event() *types.Event {
	attrs := map[string]string{
		"business":  account(e.Business),
		"period":    e.Period,
		"revokedBy": account(e.RevokedBy),
		"revokedAt": u64(e.At),
	}
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		attrs["reason"] = reason
	}
	return &types.Event{Type: TypeAttestationRevoked, Attributes: attrs}
}

// AttestationMigrated records a root/version replacement performed by an admin.
type AttestationMigrated struct {
	Business   [20]byte
	Period     string
	OldRoot    [32]byte
	NewRoot    [32]byte
	OldVersion uint32
	NewVersion uint32
	MigratedBy [20]byte
}

// EventType satisfies the events.Event interface.
func (AttestationMigrated) EventType() string { return TypeAttestationMigrated }

// Event converts the payload into a broadcastable event.
func (e AttestationMigrated) Event() *types.Event {
	return &types.Event{Type: TypeAttestationMigrated, Attributes: map[string]string{
		"business":   account(e.Business),
		"period":     e.Period,
		"oldRoot":    rootHex(e.OldRoot),
		"newRoot":    rootHex(e.NewRoot),
		"oldVersion": u32(e.OldVersion),
		"newVersion": u32(e.NewVersion),
		"migratedBy": account(e.MigratedBy),
	}}
}

// MultiPeriodIssued is the public stream payload for stored ranges.
type MultiPeriodIssued struct {
	Business    [20]byte
	StartPeriod uint32
	EndPeriod   uint32
	MerkleRoot  [32]byte
	FeePaid     *big.Int
}

// EventType satisfies the events.Event interface.
func (MultiPeriodIssued) EventType() string { return TypeMultiPeriodIssued }

// Event converts the payload into a broadcastable event.
func (e MultiPeriodIssued) Event() *types.Event {
	return &types.Event{Type: TypeMultiPeriodIssued, Attributes: map[string]string{
		"kind":         "multi_period_issued",
		"business":     account(e.Business),
		"start_period": u32(e.StartPeriod),
		"end_period":   u32(e.EndPeriod),
		"merkle_root":  rootHex(e.MerkleRoot),
		"feePaid":      amount(e.FeePaid),
	}}
}

// RangeRevoked records the revocation of every unrevoked range carrying a root.
type RangeRevoked struct {
	Business   [20]byte
	MerkleRoot [32]byte
	Count      int
}

// EventType satisfies the events.Event interface.
func (RangeRevoked) EventType() string { return TypeRangeRevoked }

// Event converts the payload into a broadcastable event.
func (e RangeRevoked) Event() *types.Event {
	return &types.Event{Type: TypeRangeRevoked, Attributes: map[string]string{
		"business":    account(e.Business),
		"merkle_root": rootHex(e.MerkleRoot),
		"count":       u64(uint64(e.Count)),
	}}
}
