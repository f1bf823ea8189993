package attestation

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// MaxPeriodLength bounds the opaque period label.
const MaxPeriodLength = 64

// CurrencyCodeMaxLen is the longest accepted ISO-style currency code.
const CurrencyCodeMaxLen = 3

// Revocation records who revoked an attestation, when and why.
type Revocation struct {
	By     [20]byte
	At     uint64
	Reason string
}

// Metadata describes the revenue figures committed to by the root.
type Metadata struct {
	CurrencyCode string
	IsNet        bool
}

// Basis renders IsNet as the revenue basis label.
func (m Metadata) Basis() string {
	if m.IsNet {
		return "net"
	}
	return "gross"
}

// Attestation is the single-period record keyed by (Business, Period).
// Optional fields carry explicit presence flags.
type Attestation struct {
	Business    [20]byte
	Period      string
	MerkleRoot  [32]byte
	Timestamp   uint64
	Version     uint32
	FeePaid     *big.Int
	HasExpiry   bool
	Expiry      uint64
	Revoked     bool
	Revocation  Revocation
	HasMetadata bool
	Metadata    Metadata
}

// Clone returns a deep copy of the record.
func (a *Attestation) Clone() *Attestation {
	if a == nil {
		return nil
	}
	clone := *a
	if a.FeePaid != nil {
		clone.FeePaid = new(big.Int).Set(a.FeePaid)
	} else {
		clone.FeePaid = big.NewInt(0)
	}
	return &clone
}

// ExpiredAt reports whether the attestation is stale at ledger time now.
// Expired attestations stay queryable.
func (a *Attestation) ExpiredAt(now uint64) bool {
	return a != nil && a.HasExpiry && now >= a.Expiry
}

// SubmitRequest is a single-period submission.
type SubmitRequest struct {
	Business   [20]byte
	Period     string
	MerkleRoot [32]byte
	Timestamp  uint64
	Version    uint32
	HasExpiry  bool
	Expiry     uint64
}

// MultiPeriodRequest is a submission covering [StartPeriod, EndPeriod].
type MultiPeriodRequest struct {
	Business    [20]byte
	StartPeriod uint32
	EndPeriod   uint32
	MerkleRoot  [32]byte
	Timestamp   uint64
	Version     uint32
}

func normalizePeriod(period string) (string, error) {
	trimmed := strings.TrimSpace(period)
	if trimmed == "" {
		return "", ErrInvalidPeriod
	}
	if len(trimmed) > MaxPeriodLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidPeriod, MaxPeriodLength)
	}
	return trimmed, nil
}

// ValidateMetadata checks the currency code is 1-3 ASCII letters or digits
// and returns the canonical upper-case form.
func ValidateMetadata(currency string, isNet bool) (Metadata, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		return Metadata{}, fmt.Errorf("%w: empty currency code", ErrInvalidMetadata)
	}
	if len(code) > CurrencyCodeMaxLen {
		return Metadata{}, fmt.Errorf("%w: currency code longer than %d characters", ErrInvalidMetadata, CurrencyCodeMaxLen)
	}
	for _, r := range code {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return Metadata{}, fmt.Errorf("%w: currency code %q must be alphanumeric", ErrInvalidMetadata, code)
		}
	}
	return Metadata{CurrencyCode: code, IsNet: isNet}, nil
}
