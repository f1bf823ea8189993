package attestation

import (
	"fmt"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
)

// QueryLimitMax caps the page size of ListAttestations.
const QueryLimitMax = 30

// StatusFilter selects attestations by revocation state.
type StatusFilter uint32

const (
	StatusActive StatusFilter = iota
	StatusRevoked
	StatusAll
)

// PageQuery filters a business's attestations. The cursor indexes the
// business's period list in submission order.
type PageQuery struct {
	PeriodStart string
	PeriodEnd   string
	Status      StatusFilter
	HasVersion  bool
	Version     uint32
	Limit       uint32
	Cursor      uint64
}

// Page is one slice of results. NextCursor is the cursor plus the number of
// periods scanned, not the number of results.
type Page struct {
	Items      []*Attestation
	NextCursor uint64
	Done       bool
}

func (q PageQuery) matches(a *Attestation) bool {
	if q.PeriodStart != "" && a.Period < q.PeriodStart {
		return false
	}
	if q.PeriodEnd != "" && a.Period > q.PeriodEnd {
		return false
	}
	switch q.Status {
	case StatusActive:
		if a.Revoked {
			return false
		}
	case StatusRevoked:
		if !a.Revoked {
			return false
		}
	}
	return !q.HasVersion || a.Version == q.Version
}

// Get returns the attestation at (business, period), if any.
func (e *Engine) Get(business [20]byte, period string) (*Attestation, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	normalized, err := normalizePeriod(period)
	if err != nil {
		return nil, false, nil
	}
	return e.state.AttestationGet(business, normalized)
}

// Verify reports whether the attestation exists, is not revoked and carries
// root.
func (e *Engine) Verify(business [20]byte, period string, root [32]byte) (bool, error) {
	record, ok, err := e.Get(business, period)
	if err != nil || !ok {
		return false, err
	}
	return !record.Revoked && record.MerkleRoot == root, nil
}

// IsRevoked reports whether the attestation exists and is revoked.
func (e *Engine) IsRevoked(business [20]byte, period string) (bool, error) {
	record, ok, err := e.Get(business, period)
	if err != nil || !ok {
		return false, err
	}
	return record.Revoked, nil
}

// IsExpired reports whether the attestation has an expiry that the ledger
// clock has reached.
func (e *Engine) IsExpired(business [20]byte, period string) (bool, error) {
	record, ok, err := e.Get(business, period)
	if err != nil || !ok {
		return false, err
	}
	return record.ExpiredAt(e.now()), nil
}

// RevocationInfo returns revocation details when the attestation is revoked.
func (e *Engine) RevocationInfo(business [20]byte, period string) (*Revocation, bool, error) {
	record, ok, err := e.Get(business, period)
	if err != nil || !ok || !record.Revoked {
		return nil, false, err
	}
	info := record.Revocation
	return &info, true, nil
}

// Metadata returns the extended metadata, if the attestation carries any.
func (e *Engine) Metadata(business [20]byte, period string) (*Metadata, bool, error) {
	record, ok, err := e.Get(business, period)
	if err != nil || !ok || !record.HasMetadata {
		return nil, false, err
	}
	meta := record.Metadata
	return &meta, true, nil
}

// ForPeriod returns the active range covering period.
func (e *Engine) ForPeriod(business [20]byte, period uint32) (*ranges.Range, bool, error) {
	if e.ranges == nil {
		return nil, false, nil
	}
	return e.ranges.FindCovering(business, period)
}

// VerifyMultiPeriod reports whether an active range covering period carries
// root.
func (e *Engine) VerifyMultiPeriod(business [20]byte, period uint32, root [32]byte) (bool, error) {
	if e.ranges == nil {
		return false, nil
	}
	return e.ranges.Verify(business, period, root)
}

// ListRanges returns every range of business, revoked ones included.
func (e *Engine) ListRanges(business [20]byte) ([]*ranges.Range, error) {
	if e.ranges == nil {
		return nil, nil
	}
	return e.ranges.List(business)
}

// List pages through a business's attestations. A zero limit or one above
// QueryLimitMax is treated as QueryLimitMax.
func (e *Engine) List(business [20]byte, q PageQuery) (Page, error) {
	if err := e.ready(); err != nil {
		return Page{}, err
	}
	limit := q.Limit
	if limit == 0 || limit > QueryLimitMax {
		limit = QueryLimitMax
	}
	total, err := e.state.BusinessPeriodCount(business)
	if err != nil {
		return Page{}, fmt.Errorf("attestation: load period count: %w", err)
	}
	page := Page{Items: []*Attestation{}, NextCursor: q.Cursor}
	i := q.Cursor
	for ; i < total && uint32(len(page.Items)) < limit; i++ {
		period, ok, err := e.state.BusinessPeriodAt(business, i)
		if err != nil {
			return Page{}, fmt.Errorf("attestation: load period %d: %w", i, err)
		}
		if !ok {
			continue
		}
		record, ok, err := e.state.AttestationGet(business, period)
		if err != nil {
			return Page{}, fmt.Errorf("attestation: load %q: %w", period, err)
		}
		if ok && q.matches(record) {
			page.Items = append(page.Items, record)
		}
	}
	if i > q.Cursor {
		page.NextCursor = i
	}
	page.Done = page.NextCursor >= total
	return page, nil
}
