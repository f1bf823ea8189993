package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/dispute"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/fees"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ratelimit"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db), db
}

func TestKVRoundTripOutsideTx(t *testing.T) {
	mgr, db := newTestManager(t)
	if err := mgr.KVPut([]byte("k"), uint64(7)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if len(db.Keys()) != 1 {
		t.Fatalf("expected direct write, got %d keys", len(db.Keys()))
	}
	var got uint64
	ok, err := mgr.KVGet([]byte("k"), &got)
	if err != nil || !ok || got != 7 {
		t.Fatalf("get: ok=%v err=%v value=%d", ok, err, got)
	}
	if err := mgr.KVDelete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := mgr.KVGet([]byte("k"), nil); ok {
		t.Fatalf("expected key removed")
	}
	var list []uint64
	if err := mgr.KVGetList([]byte("missing"), &list); err != nil || list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v err=%v", list, err)
	}
	if err := mgr.KVPut(nil, 1); err == nil {
		t.Fatalf("expected empty key rejection")
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	mgr, db := newTestManager(t)
	if err := mgr.KVPut([]byte("keep"), "before"); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := mgr.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := mgr.Begin(); !errors.Is(err, ErrTxActive) {
		t.Fatalf("expected ErrTxActive, got %v", err)
	}
	_ = mgr.KVPut([]byte("keep"), "during")
	_ = mgr.KVPut([]byte("new"), "value")
	var seen string
	if _, err := mgr.KVGet([]byte("keep"), &seen); err != nil || seen != "during" {
		t.Fatalf("transaction must read its own writes, got %q", seen)
	}
	if len(db.Keys()) != 1 {
		t.Fatalf("writes leaked to the database before commit")
	}
	mgr.Rollback()
	if _, err := mgr.KVGet([]byte("keep"), &seen); err != nil || seen != "before" {
		t.Fatalf("rollback did not restore value, got %q", seen)
	}
	if ok, _ := mgr.KVGet([]byte("new"), nil); ok {
		t.Fatalf("rolled back key still visible")
	}

	_ = mgr.Begin()
	_ = mgr.KVPut([]byte("new"), "value")
	_ = mgr.KVDelete([]byte("keep"))
	if mgr.Pending() != 2 {
		t.Fatalf("expected 2 pending keys, got %d", mgr.Pending())
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if mgr.InTx() {
		t.Fatalf("transaction still open after commit")
	}
	if ok, _ := mgr.KVGet([]byte("keep"), nil); ok {
		t.Fatalf("delete not committed")
	}
	if ok, _ := mgr.KVGet([]byte("new"), nil); !ok {
		t.Fatalf("put not committed")
	}
	if err := mgr.Commit(); !errors.Is(err, ErrNoTx) {
		t.Fatalf("expected ErrNoTx, got %v", err)
	}
}

func TestEnsureStateVersion(t *testing.T) {
	db := storage.NewMemDB()
	if err := EnsureStateVersion(db, false); err != nil {
		t.Fatalf("fresh database: %v", err)
	}
	mgr := NewManager(db)
	if v, ok, _ := mgr.StateVersion(); !ok || v != StateVersion {
		t.Fatalf("expected stamped version, got %d ok=%v", v, ok)
	}
	_ = mgr.SetStateVersion(StateVersion + 1)
	if err := EnsureStateVersion(db, false); !errors.Is(err, ErrStateVersionMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := EnsureStateVersion(db, true); err != nil {
		t.Fatalf("allow migrate: %v", err)
	}
}

func TestAttestationStorage(t *testing.T) {
	mgr, _ := newTestManager(t)
	biz := [20]byte{0x01}
	rec := &attestation.Attestation{
		Business:    biz,
		Period:      "2026-Q1",
		MerkleRoot:  [32]byte{0xAA},
		Timestamp:   10,
		Version:     1,
		FeePaid:     big.NewInt(800),
		HasExpiry:   true,
		Expiry:      99,
		HasMetadata: true,
		Metadata:    attestation.Metadata{CurrencyCode: "USD", IsNet: true},
	}
	if err := mgr.AttestationPut(rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.AppendBusinessPeriod(biz, rec.Period); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, ok, err := mgr.AttestationGet(biz, "2026-Q1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.FeePaid.Int64() != 800 || got.Expiry != 99 || got.Metadata.CurrencyCode != "USD" || !got.Metadata.IsNet {
		t.Fatalf("unexpected record %+v", got)
	}
	if ok, _ := mgr.AttestationExists(biz, "2026-Q2"); ok {
		t.Fatalf("unexpected record for other period")
	}
	if n, _ := mgr.BusinessPeriodCount(biz); n != 1 {
		t.Fatalf("expected 1 period, got %d", n)
	}
	if p, ok, _ := mgr.BusinessPeriodAt(biz, 0); !ok || p != "2026-Q1" {
		t.Fatalf("unexpected period %q", p)
	}
}

func TestEnginesOverManager(t *testing.T) {
	mgr, _ := newTestManager(t)
	biz := [20]byte{0x02}

	feeEngine := fees.NewEngine()
	feeEngine.SetState(mgr)
	if _, err := feeEngine.Configure("usdc", [20]byte{0xC0}, big.NewInt(1000), true); err != nil {
		t.Fatalf("configure fees: %v", err)
	}
	if err := feeEngine.SetVolumeBrackets([]uint64{3}, []uint32{1500}); err != nil {
		t.Fatalf("brackets: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := feeEngine.IncrementSubmissionCount(biz); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	quote, err := feeEngine.Quote(biz)
	if err != nil || quote.Int64() != 850 {
		t.Fatalf("quote: %v err=%v", quote, err)
	}

	limiter := ratelimit.NewLimiter()
	limiter.SetState(mgr)
	limiter.SetNowFunc(func() uint64 { return 100 })
	if _, err := limiter.Configure(1, 60, true); err != nil {
		t.Fatalf("configure limiter: %v", err)
	}
	if err := limiter.Record(biz); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := limiter.Check(biz); !errors.Is(err, ratelimit.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	rangeMgr := ranges.NewManager()
	rangeMgr.SetState(mgr)
	if _, err := rangeMgr.Submit(biz, 1, 3, [32]byte{1}, 0, 1, big.NewInt(5)); err != nil {
		t.Fatalf("range submit: %v", err)
	}
	if _, err := rangeMgr.Submit(biz, 3, 4, [32]byte{2}, 0, 1, nil); !errors.Is(err, ranges.ErrOverlappingRange) {
		t.Fatalf("expected overlap, got %v", err)
	}
	if r, ok, _ := rangeMgr.FindCovering(biz, 2); !ok || r.FeePaid.Int64() != 5 {
		t.Fatalf("unexpected covering range %+v", r)
	}

	_ = mgr.AttestationPut(&attestation.Attestation{Business: biz, Period: "P1", FeePaid: big.NewInt(0)})
	disputes := dispute.NewEngine()
	disputes.SetState(mgr)
	id, err := disputes.Open([20]byte{0xCC}, biz, "P1", dispute.TypeOther, "evidence")
	if err != nil || id != 1 {
		t.Fatalf("open: id=%d err=%v", id, err)
	}
	if _, err := disputes.Resolve([20]byte{0xAB}, id, dispute.OutcomeSettled, "ok"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	loaded, ok, err := disputes.Get(id)
	if err != nil || !ok || loaded.Status != dispute.StatusResolved || loaded.Resolution.Outcome != dispute.OutcomeSettled {
		t.Fatalf("unexpected dispute %+v err=%v", loaded, err)
	}
	byChallenger, _ := disputes.ByChallenger([20]byte{0xCC})
	if len(byChallenger) != 1 {
		t.Fatalf("expected challenger index entry")
	}
}

func TestAccessAndBalances(t *testing.T) {
	mgr, _ := newTestManager(t)
	a, b := [20]byte{0x09}, [20]byte{0x01}
	_ = mgr.AddRoleHolder(a)
	_ = mgr.AddRoleHolder(b)
	_ = mgr.AddRoleHolder(a)
	holders, _ := mgr.RoleHolders()
	if len(holders) != 2 || holders[0] != b {
		t.Fatalf("holders not sorted and deduplicated: %v", holders)
	}
	if mgr.IsPaused("attestation") {
		t.Fatalf("fresh state must not be paused")
	}
	_ = mgr.SetPaused("Attestation", true)
	if !mgr.IsPaused("attestation") {
		t.Fatalf("pause flag not stored")
	}

	if bal, _ := mgr.TokenBalance("usdc", a); bal.Sign() != 0 {
		t.Fatalf("expected zero balance")
	}
	_ = mgr.PutTokenBalance("usdc", a, big.NewInt(42))
	if bal, _ := mgr.TokenBalance("USDC", a); bal.Int64() != 42 {
		t.Fatalf("unexpected balance %s", bal)
	}
	if err := mgr.PutTokenBalance("usdc", a, big.NewInt(-1)); err == nil {
		t.Fatalf("expected negative balance rejection")
	}
	_ = mgr.PutNonce(a, 1, 3)
	if n, _ := mgr.Nonce(a, 1); n != 3 {
		t.Fatalf("unexpected nonce %d", n)
	}
	if n, _ := mgr.Nonce(a, 2); n != 0 {
		t.Fatalf("channels must be independent")
	}
}
