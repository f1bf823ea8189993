package core

import (
	"fmt"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/dispute"
)

// DisputePolicy decides who may move a dispute forward. Anyone may open a
// dispute against a stored attestation.
type DisputePolicy struct {
	Resolvers attestation.Role
	Closers   attestation.Role
	// ChallengerMayClose lets the challenger close their own resolved dispute.
	ChallengerMayClose bool
}

// DefaultDisputePolicy admits admins, operators and arbiters to resolve and
// close, and lets the challenger close once resolved.
func DefaultDisputePolicy() DisputePolicy {
	adjudicators := attestation.RoleAdmin | attestation.RoleOperator | attestation.RoleArbiter
	return DisputePolicy{Resolvers: adjudicators, Closers: adjudicators, ChallengerMayClose: true}
}

func (p DisputePolicy) isZero() bool {
	return p.Resolvers == 0 && p.Closers == 0 && !p.ChallengerMayClose
}

// OpenDispute files a challenge against a stored attestation.
func (n *Node) OpenDispute(challenger, business [20]byte, period string, kind dispute.Type, evidence string) (uint64, error) {
	var id uint64
	err := n.execute("dispute.open", func() error {
		var err error
		id, err = n.disputes.Open(challenger, business, period, kind, evidence)
		return err
	})
	return id, err
}

// ResolveDispute records the outcome of an open dispute.
func (n *Node) ResolveDispute(resolver [20]byte, id uint64, outcome dispute.Outcome, notes string) (*dispute.Dispute, error) {
	var out *dispute.Dispute
	err := n.execute("dispute.resolve", func() error {
		if err := n.access.Require(resolver, n.policy.Resolvers); err != nil {
			return err
		}
		var err error
		out, err = n.disputes.Resolve(resolver, id, outcome, notes)
		return err
	})
	return out, err
}

// CloseDispute closes a resolved dispute, subject to the dispute policy.
func (n *Node) CloseDispute(closer [20]byte, id uint64) (*dispute.Dispute, error) {
	var out *dispute.Dispute
	err := n.execute("dispute.close", func() error {
		if !n.access.HasAnyRole(closer, n.policy.Closers) {
			existing, ok, err := n.disputes.Get(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %d", dispute.ErrNotFound, id)
			}
			if !n.policy.ChallengerMayClose || existing.Challenger != closer {
				return fmt.Errorf("%w: caller may not close dispute %d", attestation.ErrUnauthorized, id)
			}
		}
		var err error
		out, err = n.disputes.Close(closer, id)
		return err
	})
	return out, err
}

// GetDispute returns the dispute with id, if any.
func (n *Node) GetDispute(id uint64) (*dispute.Dispute, bool, error) {
	var (
		out *dispute.Dispute
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.disputes.Get(id)
		return err
	})
	return out, ok, err
}

// DisputesByAttestation lists disputes filed against (business, period).
func (n *Node) DisputesByAttestation(business [20]byte, period string) ([]*dispute.Dispute, error) {
	var out []*dispute.Dispute
	err := n.read(func() error {
		var err error
		out, err = n.disputes.ByAttestation(business, period)
		return err
	})
	return out, err
}

// DisputesByChallenger lists disputes filed by challenger.
func (n *Node) DisputesByChallenger(challenger [20]byte) ([]*dispute.Dispute, error) {
	var out []*dispute.Dispute
	err := n.read(func() error {
		var err error
		out, err = n.disputes.ByChallenger(challenger)
		return err
	})
	return out, err
}
