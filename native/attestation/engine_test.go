package attestation

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
)

type attKey struct {
	business [20]byte
	period   string
}

type mockState struct {
	records map[attKey]*Attestation
	periods map[[20]byte][]string
	roles   map[[20]byte]uint32
	holders [][20]byte
	paused  map[string]bool
	arenas  map[[20]byte][]*ranges.Range
}

func newMockState() *mockState {
	return &mockState{
		records: make(map[attKey]*Attestation),
		periods: make(map[[20]byte][]string),
		roles:   make(map[[20]byte]uint32),
		paused:  make(map[string]bool),
		arenas:  make(map[[20]byte][]*ranges.Range),
	}
}

func (m *mockState) AttestationGet(business [20]byte, period string) (*Attestation, bool, error) {
	rec, ok := m.records[attKey{business, period}]
	return rec.Clone(), ok, nil
}

func (m *mockState) AttestationPut(a *Attestation) error {
	m.records[attKey{a.Business, a.Period}] = a.Clone()
	return nil
}

func (m *mockState) AttestationExists(business [20]byte, period string) (bool, error) {
	_, ok := m.records[attKey{business, period}]
	return ok, nil
}

func (m *mockState) AppendBusinessPeriod(business [20]byte, period string) error {
	m.periods[business] = append(m.periods[business], period)
	return nil
}

func (m *mockState) BusinessPeriodCount(business [20]byte) (uint64, error) {
	return uint64(len(m.periods[business])), nil
}

func (m *mockState) BusinessPeriodAt(business [20]byte, index uint64) (string, bool, error) {
	list := m.periods[business]
	if index >= uint64(len(list)) {
		return "", false, nil
	}
	return list[index], true, nil
}

func (m *mockState) Roles(account [20]byte) (uint32, error) { return m.roles[account], nil }

func (m *mockState) PutRoles(account [20]byte, roles uint32) error {
	m.roles[account] = roles
	return nil
}

func (m *mockState) RoleHolders() ([][20]byte, error) { return m.holders, nil }

func (m *mockState) AddRoleHolder(account [20]byte) error {
	for _, h := range m.holders {
		if h == account {
			return nil
		}
	}
	m.holders = append(m.holders, account)
	return nil
}

func (m *mockState) IsPaused(module string) bool { return m.paused[module] }

func (m *mockState) SetPaused(module string, paused bool) error {
	m.paused[module] = paused
	return nil
}

func (m *mockState) RangeCount(business [20]byte) (uint64, error) {
	return uint64(len(m.arenas[business])), nil
}

func (m *mockState) RangeAt(business [20]byte, index uint64) (*ranges.Range, bool, error) {
	arena := m.arenas[business]
	if index >= uint64(len(arena)) {
		return nil, false, nil
	}
	return arena[index].Clone(), true, nil
}

func (m *mockState) PutRangeAt(business [20]byte, index uint64, r *ranges.Range) error {
	arena := m.arenas[business]
	if index == uint64(len(arena)) {
		arena = append(arena, nil)
	}
	arena[index] = r.Clone()
	m.arenas[business] = arena
	return nil
}

func (m *mockState) SetRangeCount([20]byte, uint64) error { return nil }

// fakeFees charges base*(count+1) so tests can observe which counter value
// each submission was priced on.
type fakeFees struct {
	base    int64
	counts  map[[20]byte]uint64
	collect int
	fail    error
}

func (f *fakeFees) Collect(business [20]byte) (*big.Int, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.collect++
	return big.NewInt(f.base * int64(f.counts[business]+1)), nil
}

func (f *fakeFees) IncrementSubmissionCount(business [20]byte) (uint64, error) {
	f.counts[business]++
	return f.counts[business], nil
}

type fakeLimiter struct {
	checks, records int
	reject          error
}

func (l *fakeLimiter) Check([20]byte) error {
	l.checks++
	return l.reject
}

func (l *fakeLimiter) Record([20]byte) error {
	l.records++
	return nil
}

type capture struct{ events []events.Event }

func (c *capture) Emit(evt events.Event) { c.events = append(c.events, evt) }

type fixture struct {
	engine  *Engine
	state   *mockState
	access  *Access
	fees    *fakeFees
	limiter *fakeLimiter
	sink    *capture
	now     uint64
}

var (
	admin    = [20]byte{0xAD}
	attestor = [20]byte{0xA7}
	business = [20]byte{0xB1}
	stranger = [20]byte{0x55}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		state:   newMockState(),
		fees:    &fakeFees{base: 100, counts: make(map[[20]byte]uint64)},
		limiter: &fakeLimiter{},
		sink:    &capture{},
		now:     1_000,
	}
	f.access = NewAccess()
	f.access.SetState(f.state)
	if err := f.access.Bootstrap(admin); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := f.access.Grant(admin, attestor, RoleAttestor); err != nil {
		t.Fatalf("grant: %v", err)
	}
	rangeMgr := ranges.NewManager()
	rangeMgr.SetState(f.state)

	f.engine = NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetAuthorizer(f.access)
	f.engine.SetFees(f.fees)
	f.engine.SetLimiter(f.limiter)
	f.engine.SetRanges(rangeMgr)
	f.engine.SetEmitter(f.sink)
	f.engine.SetNowFunc(func() uint64 { return f.now })
	return f
}

func request(period string) SubmitRequest {
	return SubmitRequest{Business: business, Period: period, MerkleRoot: [32]byte{0x01}, Timestamp: 1_700_000_000, Version: 1}
}

func TestSubmitStoresRecord(t *testing.T) {
	f := newFixture(t)
	rec, err := f.engine.Submit(business, request("2026-Q1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.FeePaid.Int64() != 100 {
		t.Fatalf("expected fee 100, got %s", rec.FeePaid)
	}
	if f.fees.counts[business] != 1 || f.limiter.checks != 1 || f.limiter.records != 1 {
		t.Fatalf("unexpected side effects: count=%d checks=%d records=%d", f.fees.counts[business], f.limiter.checks, f.limiter.records)
	}
	ok, err := f.engine.Verify(business, "2026-Q1", [32]byte{0x01})
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}
	if len(f.sink.events) != 1 || f.sink.events[0].EventType() != events.TypeAttestationSubmitted {
		t.Fatalf("unexpected events %+v", f.sink.events)
	}
	// second submission is priced on the incremented counter
	rec, err = f.engine.Submit(attestor, request("2026-Q2"))
	if err != nil {
		t.Fatalf("attestor submit: %v", err)
	}
	if rec.FeePaid.Int64() != 200 {
		t.Fatalf("expected fee 200, got %s", rec.FeePaid)
	}
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Submit(business, request("2026-Q1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err := f.engine.Submit(business, request("2026-Q1"))
	if !errors.Is(err, ErrAlreadyExists) || common.KindOf(err) != common.KindState {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := f.engine.Submit(stranger, request("2026-Q3")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.engine.Submit(business, request("  ")); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}

	f.limiter.reject = common.NewError(common.KindLimitExceeded, "rate_limited", "rate limited")
	collected := f.fees.collect
	if _, err := f.engine.Submit(business, request("2026-Q4")); common.KindOf(err) != common.KindLimitExceeded {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if f.fees.collect != collected {
		t.Fatalf("rate-limited submission must not pay a fee")
	}
	f.limiter.reject = nil

	if err := f.access.Pause(admin); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.engine.Submit(business, request("2026-Q4")); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if err := f.access.Unpause(admin); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := f.engine.Submit(business, request("2026-Q4")); err != nil {
		t.Fatalf("submit after unpause: %v", err)
	}
}

func TestFeeFailureStopsSubmission(t *testing.T) {
	f := newFixture(t)
	f.fees.fail = common.NewError(common.KindResource, "insufficient_balance", "insufficient balance")
	_, err := f.engine.Submit(business, request("2026-Q1"))
	if common.KindOf(err) != common.KindResource {
		t.Fatalf("expected resource error, got %v", err)
	}
	if ok, _ := f.state.AttestationExists(business, "2026-Q1"); ok {
		t.Fatalf("record stored despite fee failure")
	}
	if f.limiter.records != 0 {
		t.Fatalf("rate limiter recorded a failed submission")
	}
}

func TestSubmitWithMetadata(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.SubmitWithMetadata(business, request("2026-Q1"), "usd", true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	meta, ok, err := f.engine.Metadata(business, "2026-Q1")
	if err != nil || !ok {
		t.Fatalf("metadata: ok=%v err=%v", ok, err)
	}
	if meta.CurrencyCode != "USD" || meta.Basis() != "net" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	for _, code := range []string{"", "EURO", "U$D"} {
		if _, err := f.engine.SubmitWithMetadata(business, request("2026-Q2"), code, false); !errors.Is(err, ErrInvalidMetadata) {
			t.Fatalf("code %q: expected invalid metadata, got %v", code, err)
		}
	}
	if _, ok, _ := f.engine.Metadata(business, "missing"); ok {
		t.Fatalf("missing attestation reported metadata")
	}
}

func TestSubmitBatch(t *testing.T) {
	f := newFixture(t)
	other := [20]byte{0xB2}
	items := []SubmitRequest{request("2026-01"), request("2026-02"), {Business: other, Period: "2026-01", Version: 1}}

	if _, err := f.engine.SubmitBatch(attestor, append(items, request("2026-01"))); !errors.Is(err, ErrBatchDuplicate) {
		t.Fatalf("expected batch duplicate, got %v", err)
	}
	if f.fees.collect != 0 {
		t.Fatalf("invalid batch must not collect fees")
	}
	if _, err := f.engine.SubmitBatch(business, items); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("business cannot submit for another business, got %v", err)
	}
	if _, err := f.engine.SubmitBatch(attestor, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected empty batch error, got %v", err)
	}

	out, err := f.engine.SubmitBatch(attestor, items)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	fees := []int64{100, 200, 100}
	for i, rec := range out {
		if rec.FeePaid.Int64() != fees[i] {
			t.Fatalf("item %d: expected fee %d, got %s", i, fees[i], rec.FeePaid)
		}
	}
	if len(f.sink.events) < 3 {
		t.Fatalf("expected one event per item")
	}
	if _, err := f.engine.SubmitBatch(attestor, []SubmitRequest{request("2026-03"), request("2026-02")}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected stored duplicate rejection, got %v", err)
	}
}

func TestSubmitMultiPeriod(t *testing.T) {
	f := newFixture(t)
	submit := func(start, end uint32) error {
		_, err := f.engine.SubmitMultiPeriod(business, MultiPeriodRequest{Business: business, StartPeriod: start, EndPeriod: end, MerkleRoot: [32]byte{byte(start)}, Version: 1})
		return err
	}
	if err := submit(1, 3); err != nil {
		t.Fatalf("[1,3]: %v", err)
	}
	if err := submit(4, 6); err != nil {
		t.Fatalf("[4,6]: %v", err)
	}
	if err := submit(2, 5); !errors.Is(err, ranges.ErrOverlappingRange) {
		t.Fatalf("expected overlap, got %v", err)
	}
	if err := submit(9, 8); !errors.Is(err, ranges.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	var issued int
	for _, evt := range f.sink.events {
		if evt.EventType() == events.TypeMultiPeriodIssued {
			issued++
		}
	}
	if issued != 2 {
		t.Fatalf("expected 2 issued events, got %d", issued)
	}
	r, ok, err := f.engine.ForPeriod(business, 5)
	if err != nil || !ok || r.StartPeriod != 4 {
		t.Fatalf("for period: %+v ok=%v err=%v", r, ok, err)
	}
	if ok, _ := f.engine.VerifyMultiPeriod(business, 2, [32]byte{1}); !ok {
		t.Fatalf("expected multi-period verification")
	}
	if _, err := f.engine.RevokeRange(stranger, business, [32]byte{1}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized range revoke, got %v", err)
	}
	if n, err := f.engine.RevokeRange(admin, business, [32]byte{1}); err != nil || n != 1 {
		t.Fatalf("revoke range: n=%d err=%v", n, err)
	}
	if ok, _ := f.engine.VerifyMultiPeriod(business, 2, [32]byte{1}); ok {
		t.Fatalf("revoked range still verifies")
	}
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	_, _ = f.engine.Submit(business, request("2026-Q1"))
	_, _ = f.engine.Submit(business, request("2026-Q2"))

	if _, err := f.engine.Revoke(stranger, business, "2026-Q1", "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.engine.Revoke(business, business, "2026-Q9", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	f.now = 5_000
	rec, err := f.engine.Revoke(business, business, "2026-Q1", "restated")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !rec.Revoked || rec.Revocation.At != 5_000 || rec.Revocation.Reason != "restated" {
		t.Fatalf("unexpected revocation %+v", rec.Revocation)
	}
	if _, err := f.engine.Revoke(admin, business, "2026-Q1", "again"); !errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("expected already revoked, got %v", err)
	}
	if _, err := f.engine.Revoke(admin, business, "2026-Q2", "admin"); err != nil {
		t.Fatalf("admin revoke: %v", err)
	}
	if ok, _ := f.engine.Verify(business, "2026-Q1", [32]byte{0x01}); ok {
		t.Fatalf("revoked attestation verified")
	}
	info, ok, _ := f.engine.RevocationInfo(business, "2026-Q2")
	if !ok || info.By != admin {
		t.Fatalf("unexpected revocation info %+v", info)
	}
}

func TestMigratePreservesExpiry(t *testing.T) {
	f := newFixture(t)
	req := request("2026-Q1")
	req.HasExpiry, req.Expiry = true, 9_000
	orig, err := f.engine.Submit(business, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.engine.Migrate(business, business, "2026-Q1", [32]byte{2}, 2); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("business cannot migrate, got %v", err)
	}
	if _, err := f.engine.Migrate(admin, business, "2026-Q1", [32]byte{2}, 1); !errors.Is(err, ErrVersionNotIncreased) {
		t.Fatalf("expected version error, got %v", err)
	}
	migrated, err := f.engine.Migrate(admin, business, "2026-Q1", [32]byte{2}, 2)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if migrated.Version != 2 || migrated.MerkleRoot != ([32]byte{2}) {
		t.Fatalf("root/version not replaced: %+v", migrated)
	}
	if !migrated.HasExpiry || migrated.Expiry != 9_000 || migrated.Timestamp != orig.Timestamp || migrated.FeePaid.Cmp(orig.FeePaid) != 0 {
		t.Fatalf("migration lost preserved fields: %+v", migrated)
	}
	if expired, _ := f.engine.IsExpired(business, "2026-Q1"); expired {
		t.Fatalf("not yet expired")
	}
	f.now = 9_000
	if expired, _ := f.engine.IsExpired(business, "2026-Q1"); !expired {
		t.Fatalf("expected expiry at boundary")
	}
	if _, ok, _ := f.engine.Get(business, "2026-Q1"); !ok {
		t.Fatalf("expired attestation must stay queryable")
	}
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 5; i++ {
		if _, err := f.engine.Submit(business, request(fmt.Sprintf("2026-0%d", i))); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	_, _ = f.engine.Revoke(business, business, "2026-03", "")

	page, err := f.engine.List(business, PageQuery{Status: StatusAll, Limit: 2})
	if err != nil || len(page.Items) != 2 || page.NextCursor != 2 || page.Done {
		t.Fatalf("page 1: %+v err=%v", page, err)
	}
	page, _ = f.engine.List(business, PageQuery{Status: StatusAll, Limit: 2, Cursor: page.NextCursor})
	if len(page.Items) != 2 || page.Items[0].Period != "2026-03" {
		t.Fatalf("page 2: %+v", page)
	}
	page, _ = f.engine.List(business, PageQuery{Status: StatusAll, Limit: 2, Cursor: page.NextCursor})
	if len(page.Items) != 1 || !page.Done {
		t.Fatalf("page 3: %+v", page)
	}

	active, _ := f.engine.List(business, PageQuery{Status: StatusActive})
	revoked, _ := f.engine.List(business, PageQuery{Status: StatusRevoked})
	if len(active.Items) != 4 || len(revoked.Items) != 1 {
		t.Fatalf("status filters: active=%d revoked=%d", len(active.Items), len(revoked.Items))
	}
	ranged, _ := f.engine.List(business, PageQuery{Status: StatusAll, PeriodStart: "2026-02", PeriodEnd: "2026-04"})
	if len(ranged.Items) != 3 {
		t.Fatalf("period range filter: %d", len(ranged.Items))
	}
	past, _ := f.engine.List(business, PageQuery{Cursor: 99})
	if len(past.Items) != 0 || past.NextCursor != 99 || !past.Done {
		t.Fatalf("cursor past end: %+v", past)
	}
}

func TestAccessRoles(t *testing.T) {
	f := newFixture(t)
	if err := f.access.Bootstrap(stranger); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected already initialised, got %v", err)
	}
	if err := f.access.Grant(stranger, stranger, RoleAdmin); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized grant, got %v", err)
	}
	if err := f.access.Grant(admin, stranger, RoleOperator); err != nil {
		t.Fatalf("grant operator: %v", err)
	}
	if err := f.access.Pause(stranger); err != nil {
		t.Fatalf("operator pause: %v", err)
	}
	if err := f.access.Unpause(stranger); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("operator must not unpause, got %v", err)
	}
	if err := f.access.Revoke(admin, stranger, RoleOperator); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if f.access.IsAllowed(stranger, RoleOperator) {
		t.Fatalf("role still present after revoke")
	}
	if err := f.access.Grant(admin, stranger, Role(1<<10)); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected unknown role, got %v", err)
	}
	role, err := ParseRole(" Arbiter ")
	if err != nil || role != RoleArbiter {
		t.Fatalf("parse role: %v %v", role, err)
	}
	if (RoleAdmin | RoleOperator).String() != "admin|operator" {
		t.Fatalf("unexpected role string %q", (RoleAdmin | RoleOperator).String())
	}
}
