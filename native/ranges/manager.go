package ranges

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

var (
	errNilState = errors.New("range manager: state not configured")

	ErrInvalidRange     = common.NewError(common.KindConfig, "invalid_range", "start period must not exceed end period")
	ErrOverlappingRange = common.NewError(common.KindState, "overlapping_range", "range overlaps an active range")
	ErrRootNotFound     = common.NewError(common.KindNotFound, "root_not_found", "no range carries the merkle root")
	ErrAlreadyRevoked   = common.NewError(common.KindState, "range_already_revoked", "every range with the merkle root is already revoked")
)

// Range is a multi-period attestation over the inclusive period interval
// [StartPeriod, EndPeriod].
type Range struct {
	StartPeriod uint32
	EndPeriod   uint32
	MerkleRoot  [32]byte
	Timestamp   uint64
	Version     uint32
	FeePaid     *big.Int
	Revoked     bool
}

// Clone returns a deep copy of the range.
func (r *Range) Clone() *Range {
	if r == nil {
		return nil
	}
	clone := *r
	if r.FeePaid != nil {
		clone.FeePaid = new(big.Int).Set(r.FeePaid)
	} else {
		clone.FeePaid = big.NewInt(0)
	}
	return &clone
}

// Contains reports whether period lies inside the range.
func (r *Range) Contains(period uint32) bool {
	return r != nil && r.StartPeriod <= period && period <= r.EndPeriod
}

// Overlaps applies the closed-interval overlap test.
func (r *Range) Overlaps(start, end uint32) bool {
	return r != nil && start <= r.EndPeriod && end >= r.StartPeriod
}

// rangeState stores each business's ranges as an append-only arena addressed
// by index. Lookups are linear in RangeCount; per-business counts stay small
// because they are bounded by submission cadence and the rate limiter.
type rangeState interface {
	RangeCount(business [20]byte) (uint64, error)
	RangeAt(business [20]byte, index uint64) (*Range, bool, error)
	PutRangeAt(business [20]byte, index uint64, r *Range) error
	SetRangeCount(business [20]byte, count uint64) error
}

// Manager keeps each business's unrevoked ranges pairwise non-overlapping.
type Manager struct {
	state rangeState
}

// NewManager creates a range manager.
func NewManager() *Manager { return &Manager{} }

// SetState configures the state backend used by the manager.
func (m *Manager) SetState(state rangeState) { m.state = state }

// List returns every range ever stored for business in insertion order.
func (m *Manager) List(business [20]byte) ([]*Range, error) {
	if m == nil || m.state == nil {
		return nil, errNilState
	}
	count, err := m.state.RangeCount(business)
	if err != nil {
		return nil, fmt.Errorf("ranges: load count: %w", err)
	}
	out := make([]*Range, 0, count)
	for i := uint64(0); i < count; i++ {
		r, ok, err := m.state.RangeAt(business, i)
		if err != nil {
			return nil, fmt.Errorf("ranges: load range %d: %w", i, err)
		}
		if !ok {
			return nil, fmt.Errorf("ranges: range %d missing from arena", i)
		}
		out = append(out, r)
	}
	return out, nil
}

// CheckSubmittable validates [start, end] against the stored ranges without
// writing anything.
func (m *Manager) CheckSubmittable(business [20]byte, start, end uint32) error {
	if start > end {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, start, end)
	}
	existing, err := m.List(business)
	if err != nil {
		return err
	}
	for _, r := range existing {
		if r.Revoked {
			continue
		}
		if r.Overlaps(start, end) {
			return fmt.Errorf("%w: [%d, %d] overlaps [%d, %d]", ErrOverlappingRange, start, end, r.StartPeriod, r.EndPeriod)
		}
	}
	return nil
}

// Submit validates and appends a new range. Ranges are never reordered or
// merged.
func (m *Manager) Submit(business [20]byte, start, end uint32, root [32]byte, timestamp uint64, version uint32, feePaid *big.Int) (*Range, error) {
	if err := m.CheckSubmittable(business, start, end); err != nil {
		return nil, err
	}
	count, err := m.state.RangeCount(business)
	if err != nil {
		return nil, fmt.Errorf("ranges: load count: %w", err)
	}
	r := &Range{
		StartPeriod: start,
		EndPeriod:   end,
		MerkleRoot:  root,
		Timestamp:   timestamp,
		Version:     version,
		FeePaid:     big.NewInt(0),
	}
	if feePaid != nil {
		r.FeePaid = new(big.Int).Set(feePaid)
	}
	if err := m.state.PutRangeAt(business, count, r); err != nil {
		return nil, fmt.Errorf("ranges: store range: %w", err)
	}
	if err := m.state.SetRangeCount(business, count+1); err != nil {
		return nil, fmt.Errorf("ranges: store count: %w", err)
	}
	return r.Clone(), nil
}

// FindCovering returns the unrevoked range containing period. Because active
// ranges never overlap there is at most one.
func (m *Manager) FindCovering(business [20]byte, period uint32) (*Range, bool, error) {
	existing, err := m.List(business)
	if err != nil {
		return nil, false, err
	}
	for _, r := range existing {
		if !r.Revoked && r.Contains(period) {
			return r, true, nil
		}
	}
	return nil, false, nil
}

// Verify reports whether an active range covers period with the given root.
func (m *Manager) Verify(business [20]byte, period uint32, root [32]byte) (bool, error) {
	r, ok, err := m.FindCovering(business, period)
	if err != nil || !ok {
		return false, err
	}
	return r.MerkleRoot == root, nil
}

// RevokeByRoot revokes every unrevoked range carrying root and returns how
// many flipped. A root seen only on already revoked ranges yields
// ErrAlreadyRevoked so a retried revocation is reported rather than silently
// accepted.
func (m *Manager) RevokeByRoot(business [20]byte, root [32]byte) (int, error) {
	if m == nil || m.state == nil {
		return 0, errNilState
	}
	count, err := m.state.RangeCount(business)
	if err != nil {
		return 0, fmt.Errorf("ranges: load count: %w", err)
	}
	matched, revoked := 0, 0
	for i := uint64(0); i < count; i++ {
		r, ok, err := m.state.RangeAt(business, i)
		if err != nil {
			return 0, fmt.Errorf("ranges: load range %d: %w", i, err)
		}
		if !ok || r.MerkleRoot != root {
			continue
		}
		matched++
		if r.Revoked {
			continue
		}
		r.Revoked = true
		if err := m.state.PutRangeAt(business, i, r); err != nil {
			return 0, fmt.Errorf("ranges: store range %d: %w", i, err)
		}
		revoked++
	}
	switch {
	case matched == 0:
		return 0, ErrRootNotFound
	case revoked == 0:
		return 0, ErrAlreadyRevoked
	}
	return revoked, nil
}
