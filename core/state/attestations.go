package state

import (
	"fmt"
	"math/big"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
)

type storedAttestation struct {
	Business     [20]byte
	Period       string
	MerkleRoot   [32]byte
	Timestamp    uint64
	Version      uint32
	FeePaid      *big.Int
	HasExpiry    bool
	Expiry       uint64
	Revoked      bool
	RevokedBy    [20]byte
	RevokedAt    uint64
	RevokeReason string
	HasMetadata  bool
	CurrencyCode string
	IsNet        bool
}

func newStoredAttestation(a *attestation.Attestation) *storedAttestation {
	fee := big.NewInt(0)
	if a.FeePaid != nil {
		fee = new(big.Int).Set(a.FeePaid)
	}
	return &storedAttestation{
		Business:     a.Business,
		Period:       a.Period,
		MerkleRoot:   a.MerkleRoot,
		Timestamp:    a.Timestamp,
		Version:      a.Version,
		FeePaid:      fee,
		HasExpiry:    a.HasExpiry,
		Expiry:       a.Expiry,
		Revoked:      a.Revoked,
		RevokedBy:    a.Revocation.By,
		RevokedAt:    a.Revocation.At,
		RevokeReason: a.Revocation.Reason,
		HasMetadata:  a.HasMetadata,
		CurrencyCode: a.Metadata.CurrencyCode,
		IsNet:        a.Metadata.IsNet,
	}
}

func (s *storedAttestation) toAttestation() *attestation.Attestation {
	fee := big.NewInt(0)
	if s.FeePaid != nil {
		fee = new(big.Int).Set(s.FeePaid)
	}
	return &attestation.Attestation{
		Business:    s.Business,
		Period:      s.Period,
		MerkleRoot:  s.MerkleRoot,
		Timestamp:   s.Timestamp,
		Version:     s.Version,
		FeePaid:     fee,
		HasExpiry:   s.HasExpiry,
		Expiry:      s.Expiry,
		Revoked:     s.Revoked,
		Revocation:  attestation.Revocation{By: s.RevokedBy, At: s.RevokedAt, Reason: s.RevokeReason},
		HasMetadata: s.HasMetadata,
		Metadata:    attestation.Metadata{CurrencyCode: s.CurrencyCode, IsNet: s.IsNet},
	}
}

// AttestationGet loads the record for (business, period).
func (m *Manager) AttestationGet(business [20]byte, period string) (*attestation.Attestation, bool, error) {
	var stored storedAttestation
	ok, err := m.KVGet(AttestationKey(business, period), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toAttestation(), true, nil
}

// AttestationPut stores a record, overwriting any previous value.
func (m *Manager) AttestationPut(a *attestation.Attestation) error {
	if a == nil {
		return fmt.Errorf("state: attestation must not be nil")
	}
	return m.KVPut(AttestationKey(a.Business, a.Period), newStoredAttestation(a))
}

// AttestationExists reports whether a record exists for (business, period).
func (m *Manager) AttestationExists(business [20]byte, period string) (bool, error) {
	return m.KVGet(AttestationKey(business, period), nil)
}

// AppendBusinessPeriod adds period to the end of business's period list.
func (m *Manager) AppendBusinessPeriod(business [20]byte, period string) error {
	count, err := m.BusinessPeriodCount(business)
	if err != nil {
		return err
	}
	if err := m.KVPut(AttestationPeriodKey(business, count), period); err != nil {
		return err
	}
	return m.KVPut(AttestationPeriodCountKey(business), count+1)
}

// BusinessPeriodCount returns the length of business's period list.
func (m *Manager) BusinessPeriodCount(business [20]byte) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(AttestationPeriodCountKey(business), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// BusinessPeriodAt returns the period stored at index of business's list.
func (m *Manager) BusinessPeriodAt(business [20]byte, index uint64) (string, bool, error) {
	var period string
	ok, err := m.KVGet(AttestationPeriodKey(business, index), &period)
	if err != nil || !ok {
		return "", false, err
	}
	return period, true, nil
}
