package ranges

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

type mockState struct {
	arenas map[[20]byte][]*Range
}

func newMockState() *mockState {
	return &mockState{arenas: make(map[[20]byte][]*Range)}
}

func (m *mockState) RangeCount(business [20]byte) (uint64, error) {
	return uint64(len(m.arenas[business])), nil
}

func (m *mockState) RangeAt(business [20]byte, index uint64) (*Range, bool, error) {
	arena := m.arenas[business]
	if index >= uint64(len(arena)) || arena[index] == nil {
		return nil, false, nil
	}
	return arena[index].Clone(), true, nil
}

func (m *mockState) PutRangeAt(business [20]byte, index uint64, r *Range) error {
	arena := m.arenas[business]
	for uint64(len(arena)) <= index {
		arena = append(arena, nil)
	}
	arena[index] = r.Clone()
	m.arenas[business] = arena
	return nil
}

func (m *mockState) SetRangeCount(business [20]byte, count uint64) error {
	arena := m.arenas[business]
	if uint64(len(arena)) > count {
		m.arenas[business] = arena[:count]
	}
	return nil
}

func newTestManager() (*Manager, *mockState) {
	state := newMockState()
	mgr := NewManager()
	mgr.SetState(state)
	return mgr, state
}

func root(b byte) [32]byte { return [32]byte{b} }

func TestAdjacentRangesAndOverlap(t *testing.T) {
	mgr, _ := newTestManager()
	business := [20]byte{1}
	if _, err := mgr.Submit(business, 1, 3, root(1), 10, 1, big.NewInt(0)); err != nil {
		t.Fatalf("submit [1,3]: %v", err)
	}
	if _, err := mgr.Submit(business, 4, 6, root(2), 11, 1, nil); err != nil {
		t.Fatalf("submit [4,6]: %v", err)
	}
	_, err := mgr.Submit(business, 2, 5, root(3), 12, 1, nil)
	if !errors.Is(err, ErrOverlappingRange) || common.KindOf(err) != common.KindState {
		t.Fatalf("expected overlap, got %v", err)
	}
	list, _ := mgr.List(business)
	if len(list) != 2 {
		t.Fatalf("rejected range must not be stored, have %d", len(list))
	}
}

func TestInvalidRange(t *testing.T) {
	mgr, _ := newTestManager()
	if _, err := mgr.Submit([20]byte{1}, 5, 4, root(1), 0, 1, nil); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if _, err := mgr.Submit([20]byte{1}, 7, 7, root(1), 0, 1, nil); err != nil {
		t.Fatalf("single-period range must be accepted: %v", err)
	}
}

func TestFindCoveringAndVerify(t *testing.T) {
	mgr, _ := newTestManager()
	business := [20]byte{2}
	_, _ = mgr.Submit(business, 202601, 202603, root(1), 0, 1, nil)
	_, _ = mgr.Submit(business, 202604, 202606, root(2), 0, 1, nil)

	r, ok, err := mgr.FindCovering(business, 202605)
	if err != nil || !ok {
		t.Fatalf("expected covering range, ok=%v err=%v", ok, err)
	}
	if r.MerkleRoot != root(2) {
		t.Fatalf("wrong range returned")
	}
	if _, ok, _ := mgr.FindCovering(business, 202607); ok {
		t.Fatalf("uncovered period matched")
	}
	if ok, _ := mgr.Verify(business, 202602, root(1)); !ok {
		t.Fatalf("expected verification")
	}
	if ok, _ := mgr.Verify(business, 202602, root(2)); ok {
		t.Fatalf("wrong root verified")
	}
}

func TestRevokeByRoot(t *testing.T) {
	mgr, _ := newTestManager()
	business := [20]byte{3}
	_, _ = mgr.Submit(business, 1, 3, root(9), 0, 1, nil)

	if _, err := mgr.RevokeByRoot(business, root(8)); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected root not found, got %v", err)
	}
	n, err := mgr.RevokeByRoot(business, root(9))
	if err != nil || n != 1 {
		t.Fatalf("revoke: n=%d err=%v", n, err)
	}
	if _, ok, _ := mgr.FindCovering(business, 2); ok {
		t.Fatalf("revoked range still covers")
	}
	if _, err := mgr.RevokeByRoot(business, root(9)); !errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("expected already revoked, got %v", err)
	}
	// revoked intervals free up the axis
	if _, err := mgr.Submit(business, 2, 5, root(9), 0, 2, nil); err != nil {
		t.Fatalf("resubmit over revoked interval: %v", err)
	}
	n, err = mgr.RevokeByRoot(business, root(9))
	if err != nil || n != 1 {
		t.Fatalf("expected only the new range revoked, n=%d err=%v", n, err)
	}
	list, _ := mgr.List(business)
	if len(list) != 2 || !list[0].Revoked || !list[1].Revoked {
		t.Fatalf("history must be kept: %+v", list)
	}
}

func TestNonOverlapProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		mgr, _ := newTestManager()
		business := [20]byte{byte(run)}
		for step := 0; step < 80; step++ {
			if rng.Intn(6) == 0 {
				list, _ := mgr.List(business)
				if len(list) > 0 {
					target := list[rng.Intn(len(list))]
					_, _ = mgr.RevokeByRoot(business, target.MerkleRoot)
				}
				continue
			}
			start := uint32(rng.Intn(100))
			end := start + uint32(rng.Intn(8))
			if rng.Intn(10) == 0 {
				start, end = end+1, start
			}
			var r [32]byte
			rng.Read(r[:])
			_, _ = mgr.Submit(business, start, end, r, uint64(step), 1, nil)

			list, err := mgr.List(business)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			for i := 0; i < len(list); i++ {
				if list[i].StartPeriod > list[i].EndPeriod {
					t.Fatalf("stored inverted range %+v", list[i])
				}
				for j := i + 1; j < len(list); j++ {
					if list[i].Revoked || list[j].Revoked {
						continue
					}
					if list[i].Overlaps(list[j].StartPeriod, list[j].EndPeriod) {
						t.Fatalf("run %d step %d: active ranges overlap: %+v %+v", run, step, list[i], list[j])
					}
				}
			}
		}
	}
}
