package state

import (
	"fmt"
	"math/big"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
)

type storedRange struct {
	StartPeriod uint32
	EndPeriod   uint32
	MerkleRoot  [32]byte
	Timestamp   uint64
	Version     uint32
	FeePaid     *big.Int
	Revoked     bool
}

// RangeCount returns how many ranges business has ever stored.
func (m *Manager) RangeCount(business [20]byte) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(rangeCountKey(business), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// SetRangeCount records the arena length for business.
func (m *Manager) SetRangeCount(business [20]byte, count uint64) error {
	return m.KVPut(rangeCountKey(business), count)
}

// RangeAt loads the range at index of business's arena.
func (m *Manager) RangeAt(business [20]byte, index uint64) (*ranges.Range, bool, error) {
	var stored storedRange
	ok, err := m.KVGet(rangeEntryKey(business, index), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	fee := big.NewInt(0)
	if stored.FeePaid != nil {
		fee = new(big.Int).Set(stored.FeePaid)
	}
	return &ranges.Range{
		StartPeriod: stored.StartPeriod,
		EndPeriod:   stored.EndPeriod,
		MerkleRoot:  stored.MerkleRoot,
		Timestamp:   stored.Timestamp,
		Version:     stored.Version,
		FeePaid:     fee,
		Revoked:     stored.Revoked,
	}, true, nil
}

// PutRangeAt writes the range at index of business's arena.
func (m *Manager) PutRangeAt(business [20]byte, index uint64, r *ranges.Range) error {
	if r == nil {
		return fmt.Errorf("state: range must not be nil")
	}
	fee := big.NewInt(0)
	if r.FeePaid != nil {
		fee = new(big.Int).Set(r.FeePaid)
	}
	return m.KVPut(rangeEntryKey(business, index), &storedRange{
		StartPeriod: r.StartPeriod,
		EndPeriod:   r.EndPeriod,
		MerkleRoot:  r.MerkleRoot,
		Timestamp:   r.Timestamp,
		Version:     r.Version,
		FeePaid:     fee,
		Revoked:     r.Revoked,
	})
}
