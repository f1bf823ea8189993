package core

import (
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
)

// SubmitAttestation stores a single-period attestation on behalf of caller.
func (n *Node) SubmitAttestation(caller [20]byte, req attestation.SubmitRequest) (*attestation.Attestation, error) {
	var out *attestation.Attestation
	err := n.execute("attestation.submit", func() error {
		var err error
		out, err = n.attest.Submit(caller, req)
		return err
	})
	recordSubmission(events.SubmissionSingle, err)
	return out, err
}

// SubmitAttestationWithMetadata stores a single-period attestation carrying
// currency and revenue-basis metadata.
func (n *Node) SubmitAttestationWithMetadata(caller [20]byte, req attestation.SubmitRequest, currency string, isNet bool) (*attestation.Attestation, error) {
	var out *attestation.Attestation
	err := n.execute("attestation.submit_metadata", func() error {
		var err error
		out, err = n.attest.SubmitWithMetadata(caller, req, currency, isNet)
		return err
	})
	recordSubmission(events.SubmissionMetadata, err)
	return out, err
}

// SubmitAttestationBatch stores every item or none of them.
func (n *Node) SubmitAttestationBatch(caller [20]byte, items []attestation.SubmitRequest) ([]*attestation.Attestation, error) {
	var out []*attestation.Attestation
	err := n.execute("attestation.submit_batch", func() error {
		var err error
		out, err = n.attest.SubmitBatch(caller, items)
		return err
	})
	recordSubmission(events.SubmissionBatch, err)
	return out, err
}

// SubmitMultiPeriodAttestation stores a range attestation.
func (n *Node) SubmitMultiPeriodAttestation(caller [20]byte, req attestation.MultiPeriodRequest) (*ranges.Range, error) {
	var out *ranges.Range
	err := n.execute("attestation.submit_multi_period", func() error {
		var err error
		out, err = n.attest.SubmitMultiPeriod(caller, req)
		return err
	})
	recordSubmission("multi_period", err)
	return out, err
}

// RevokeAttestation revokes a single-period attestation.
func (n *Node) RevokeAttestation(caller, business [20]byte, period, reason string) (*attestation.Attestation, error) {
	var out *attestation.Attestation
	err := n.execute("attestation.revoke", func() error {
		var err error
		out, err = n.attest.Revoke(caller, business, period, reason)
		return err
	})
	return out, err
}

// MigrateAttestation replaces the root and version of an attestation.
func (n *Node) MigrateAttestation(caller, business [20]byte, period string, newRoot [32]byte, newVersion uint32) (*attestation.Attestation, error) {
	var out *attestation.Attestation
	err := n.execute("attestation.migrate", func() error {
		var err error
		out, err = n.attest.Migrate(caller, business, period, newRoot, newVersion)
		return err
	})
	return out, err
}

// RevokeMultiPeriodAttestation revokes every active range of business with
// root and returns how many were revoked.
func (n *Node) RevokeMultiPeriodAttestation(caller, business [20]byte, root [32]byte) (int, error) {
	var count int
	err := n.execute("attestation.revoke_range", func() error {
		var err error
		count, err = n.attest.RevokeRange(caller, business, root)
		return err
	})
	return count, err
}

func (n *Node) GetAttestation(business [20]byte, period string) (*attestation.Attestation, bool, error) {
	var (
		out *attestation.Attestation
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.attest.Get(business, period)
		return err
	})
	return out, ok, err
}

func (n *Node) VerifyAttestation(business [20]byte, period string, root [32]byte) (bool, error) {
	var ok bool
	err := n.read(func() error {
		var err error
		ok, err = n.attest.Verify(business, period, root)
		return err
	})
	return ok, err
}

func (n *Node) IsRevoked(business [20]byte, period string) (bool, error) {
	var ok bool
	err := n.read(func() error {
		var err error
		ok, err = n.attest.IsRevoked(business, period)
		return err
	})
	return ok, err
}

func (n *Node) IsExpired(business [20]byte, period string) (bool, error) {
	var ok bool
	err := n.read(func() error {
		var err error
		ok, err = n.attest.IsExpired(business, period)
		return err
	})
	return ok, err
}

func (n *Node) RevocationInfo(business [20]byte, period string) (*attestation.Revocation, bool, error) {
	var (
		out *attestation.Revocation
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.attest.RevocationInfo(business, period)
		return err
	})
	return out, ok, err
}

func (n *Node) Metadata(business [20]byte, period string) (*attestation.Metadata, bool, error) {
	var (
		out *attestation.Metadata
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.attest.Metadata(business, period)
		return err
	})
	return out, ok, err
}

func (n *Node) GetAttestationForPeriod(business [20]byte, period uint32) (*ranges.Range, bool, error) {
	var (
		out *ranges.Range
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.attest.ForPeriod(business, period)
		return err
	})
	return out, ok, err
}

func (n *Node) VerifyMultiPeriodAttestation(business [20]byte, period uint32, root [32]byte) (bool, error) {
	var ok bool
	err := n.read(func() error {
		var err error
		ok, err = n.attest.VerifyMultiPeriod(business, period, root)
		return err
	})
	return ok, err
}

func (n *Node) ListRanges(business [20]byte) ([]*ranges.Range, error) {
	var out []*ranges.Range
	err := n.read(func() error {
		var err error
		out, err = n.attest.ListRanges(business)
		return err
	})
	return out, err
}

// ListAttestations pages through business's attestations.
func (n *Node) ListAttestations(business [20]byte, q attestation.PageQuery) (attestation.Page, error) {
	var out attestation.Page
	err := n.read(func() error {
		var err error
		out, err = n.attest.List(business, q)
		return err
	})
	return out, err
}
