package state

import (
	"fmt"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/dispute"
)

// DisputeCounter returns the last assigned dispute id.
func (m *Manager) DisputeCounter() (uint64, error) {
	var counter uint64
	if _, err := m.KVGet(disputeCounterKeyBytes, &counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// SetDisputeCounter records the last assigned dispute id.
func (m *Manager) SetDisputeCounter(value uint64) error {
	return m.KVPut(disputeCounterKeyBytes, value)
}

// DisputePut stores a dispute under its id.
func (m *Manager) DisputePut(d *dispute.Dispute) error {
	if d == nil {
		return fmt.Errorf("state: dispute must not be nil")
	}
	return m.KVPut(disputeRecordKey(d.ID), d)
}

// DisputeGet loads the dispute with id.
func (m *Manager) DisputeGet(id uint64) (*dispute.Dispute, bool, error) {
	d := new(dispute.Dispute)
	ok, err := m.KVGet(disputeRecordKey(id), d)
	if err != nil || !ok {
		return nil, false, err
	}
	return d, true, nil
}

// DisputeIndexAppend appends id to the disputes filed against
// (business, period).
func (m *Manager) DisputeIndexAppend(business [20]byte, period string, id uint64) error {
	return m.appendID(disputeAttestationKey(business, period), id)
}

// DisputeIndex returns the dispute ids filed against (business, period).
func (m *Manager) DisputeIndex(business [20]byte, period string) ([]uint64, error) {
	var ids []uint64
	if err := m.KVGetList(disputeAttestationKey(business, period), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ChallengerIndexAppend appends id to the disputes opened by challenger.
func (m *Manager) ChallengerIndexAppend(challenger [20]byte, id uint64) error {
	return m.appendID(disputeChallengerKey(challenger), id)
}

// ChallengerIndex returns the dispute ids opened by challenger.
func (m *Manager) ChallengerIndex(challenger [20]byte) ([]uint64, error) {
	var ids []uint64
	if err := m.KVGetList(disputeChallengerKey(challenger), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Manager) appendID(key []byte, id uint64) error {
	var ids []uint64
	if err := m.KVGetList(key, &ids); err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return m.KVPut(key, append(ids, id))
}
