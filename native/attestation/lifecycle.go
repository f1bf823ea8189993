package attestation

import (
	"fmt"
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
)

// MaxReasonLength bounds the free-text revocation reason.
const MaxReasonLength = 512

func (e *Engine) load(business [20]byte, period string) (*Attestation, error) {
	normalized, err := normalizePeriod(period)
	if err != nil {
		return nil, err
	}
	record, ok, err := e.state.AttestationGet(business, normalized)
	if err != nil {
		return nil, fmt.Errorf("attestation: load: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: period %q", ErrNotFound, normalized)
	}
	return record, nil
}

// Revoke marks an attestation invalid without deleting it. Admins and the
// business itself may revoke.
func (e *Engine) Revoke(caller, business [20]byte, period, reason string) (*Attestation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if caller != business && !e.hasRole(caller, RoleAdmin) {
		return nil, fmt.Errorf("%w: caller must be admin or the business", ErrUnauthorized)
	}
	record, err := e.load(business, period)
	if err != nil {
		return nil, err
	}
	if record.Revoked {
		return nil, fmt.Errorf("%w: period %q", ErrAlreadyRevoked, record.Period)
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxReasonLength {
		reason = reason[:MaxReasonLength]
	}
	record.Revoked = true
	record.Revocation = Revocation{By: caller, At: e.now(), Reason: reason}
	if err := e.state.AttestationPut(record); err != nil {
		return nil, fmt.Errorf("attestation: store: %w", err)
	}
	e.emit(events.AttestationRevoked{
		Business:  business,
		Period:    record.Period,
		RevokedBy: caller,
		Reason:    reason,
		At:        record.Revocation.At,
	})
	return record.Clone(), nil
}

// Migrate replaces the root of an existing attestation. The version must
// strictly increase; timestamp, fee paid and expiry are kept. Admin only.
func (e *Engine) Migrate(caller, business [20]byte, period string, newRoot [32]byte, newVersion uint32) (*Attestation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	record, err := e.load(business, period)
	if err != nil {
		return nil, err
	}
	if newVersion <= record.Version {
		return nil, fmt.Errorf("%w: have %d, got %d", ErrVersionNotIncreased, record.Version, newVersion)
	}
	oldRoot, oldVersion := record.MerkleRoot, record.Version
	record.MerkleRoot = newRoot
	record.Version = newVersion
	if err := e.state.AttestationPut(record); err != nil {
		return nil, fmt.Errorf("attestation: store: %w", err)
	}
	e.emit(events.AttestationMigrated{
		Business:   business,
		Period:     record.Period,
		OldRoot:    oldRoot,
		NewRoot:    newRoot,
		OldVersion: oldVersion,
		NewVersion: newVersion,
		MigratedBy: caller,
	})
	return record.Clone(), nil
}

// RevokeRange revokes every active range of business carrying root. Admins
// and the business itself may revoke.
func (e *Engine) RevokeRange(caller, business [20]byte, root [32]byte) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if e.ranges == nil {
		return 0, fmt.Errorf("attestation engine: range store not configured")
	}
	if err := e.guard(); err != nil {
		return 0, err
	}
	if caller != business && !e.hasRole(caller, RoleAdmin) {
		return 0, fmt.Errorf("%w: caller must be admin or the business", ErrUnauthorized)
	}
	count, err := e.ranges.RevokeByRoot(business, root)
	if err != nil {
		return 0, err
	}
	e.emit(events.RangeRevoked{Business: business, MerkleRoot: root, Count: count})
	return count, nil
}
