package core

import (
	"math/big"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/fees"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ratelimit"
)

// adminCall runs fn for an admin after consuming caller's nonce on channel.
func (n *Node) adminCall(op string, caller [20]byte, channel uint32, nonce uint64, fn func() error) error {
	return n.execute(op, func() error {
		if err := n.requireAdmin(caller); err != nil {
			return err
		}
		if err := n.verifyNonce(caller, channel, nonce); err != nil {
			return err
		}
		return fn()
	})
}

// Bootstrap grants the first admin. It fails once any role has been granted.
func (n *Node) Bootstrap(admin [20]byte) error {
	return n.execute("access.bootstrap", func() error {
		return n.access.Bootstrap(admin)
	})
}

func (n *Node) GrantRole(caller [20]byte, nonce uint64, account [20]byte, role attestation.Role) error {
	return n.adminCall("access.grant", caller, common.NonceChannelAdmin, nonce, func() error {
		return n.access.Grant(caller, account, role)
	})
}

func (n *Node) RevokeRole(caller [20]byte, nonce uint64, account [20]byte, role attestation.Role) error {
	return n.adminCall("access.revoke", caller, common.NonceChannelAdmin, nonce, func() error {
		return n.access.Revoke(caller, account, role)
	})
}

// Pause suspends every attestation write. Admins and operators may pause.
func (n *Node) Pause(caller [20]byte, nonce uint64) error {
	return n.execute("access.pause", func() error {
		if err := n.access.Require(caller, attestation.RoleAdmin|attestation.RoleOperator); err != nil {
			return err
		}
		if err := n.verifyNonce(caller, common.NonceChannelAdmin, nonce); err != nil {
			return err
		}
		return n.access.Pause(caller)
	})
}

func (n *Node) Unpause(caller [20]byte, nonce uint64) error {
	return n.adminCall("access.unpause", caller, common.NonceChannelAdmin, nonce, func() error {
		return n.access.Unpause(caller)
	})
}

func (n *Node) Roles(account [20]byte) (attestation.Role, error) {
	var out attestation.Role
	err := n.read(func() error {
		var err error
		out, err = n.access.Roles(account)
		return err
	})
	return out, err
}

func (n *Node) RoleHolders() ([][20]byte, error) {
	var out [][20]byte
	err := n.read(func() error {
		var err error
		out, err = n.access.RoleHolders()
		return err
	})
	return out, err
}

func (n *Node) IsPaused() bool {
	var paused bool
	_ = n.read(func() error {
		paused = n.access.IsPaused(common.ModuleAttestation)
		return nil
	})
	return paused
}

func (n *Node) ConfigureFees(caller [20]byte, nonce uint64, token string, collector [20]byte, baseFee *big.Int, enabled bool) (*fees.FeeConfig, error) {
	var out *fees.FeeConfig
	err := n.adminCall("fees.configure", caller, common.NonceChannelFees, nonce, func() error {
		var err error
		out, err = n.fees.Configure(token, collector, baseFee, enabled)
		return err
	})
	return out, err
}

func (n *Node) ConfigureFlatFee(caller [20]byte, nonce uint64, token string, treasury [20]byte, amount *big.Int, enabled bool) (*fees.FlatFeeConfig, error) {
	var out *fees.FlatFeeConfig
	err := n.adminCall("fees.configure_flat", caller, common.NonceChannelFees, nonce, func() error {
		var err error
		out, err = n.fees.ConfigureFlat(token, treasury, amount, enabled)
		return err
	})
	return out, err
}

func (n *Node) SetFeesEnabled(caller [20]byte, nonce uint64, enabled bool) (*fees.FeeConfig, error) {
	var out *fees.FeeConfig
	err := n.adminCall("fees.set_enabled", caller, common.NonceChannelFees, nonce, func() error {
		var err error
		out, err = n.fees.SetEnabled(enabled)
		return err
	})
	return out, err
}

func (n *Node) SetTierDiscount(caller [20]byte, nonce uint64, tier, bps uint32) error {
	return n.adminCall("fees.set_tier_discount", caller, common.NonceChannelFees, nonce, func() error {
		return n.fees.SetTierDiscount(tier, bps)
	})
}

func (n *Node) SetBusinessTier(caller [20]byte, nonce uint64, business [20]byte, tier uint32) error {
	return n.adminCall("fees.set_business_tier", caller, common.NonceChannelFees, nonce, func() error {
		return n.fees.SetBusinessTier(business, tier)
	})
}

func (n *Node) SetVolumeBrackets(caller [20]byte, nonce uint64, thresholds []uint64, discounts []uint32) error {
	return n.adminCall("fees.set_volume_brackets", caller, common.NonceChannelFees, nonce, func() error {
		return n.fees.SetVolumeBrackets(thresholds, discounts)
	})
}

func (n *Node) ConfigureRateLimit(caller [20]byte, nonce uint64, maxSubmissions uint32, windowSeconds uint64, enabled bool) (*ratelimit.Config, error) {
	var out *ratelimit.Config
	err := n.adminCall("ratelimit.configure", caller, common.NonceChannelAdmin, nonce, func() error {
		var err error
		out, err = n.limiter.Configure(maxSubmissions, windowSeconds, enabled)
		return err
	})
	return out, err
}

func (n *Node) QuoteFee(business [20]byte) (*big.Int, error) {
	var out *big.Int
	err := n.read(func() error {
		var err error
		out, err = n.fees.Quote(business)
		return err
	})
	return out, err
}

func (n *Node) FeeBreakdown(business [20]byte) (fees.Breakdown, error) {
	var out fees.Breakdown
	err := n.read(func() error {
		var err error
		out, err = n.fees.QuoteBreakdown(business)
		return err
	})
	return out, err
}

func (n *Node) FeeConfig() (*fees.FeeConfig, bool, error) {
	var (
		out *fees.FeeConfig
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.fees.Config()
		return err
	})
	return out, ok, err
}

func (n *Node) FlatFeeConfig() (*fees.FlatFeeConfig, bool, error) {
	var (
		out *fees.FlatFeeConfig
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.fees.FlatConfig()
		return err
	})
	return out, ok, err
}

func (n *Node) BusinessTier(business [20]byte) (uint32, error) {
	var out uint32
	err := n.read(func() error {
		var err error
		out, err = n.fees.BusinessTier(business)
		return err
	})
	return out, err
}

func (n *Node) TierDiscount(tier uint32) (uint32, error) {
	var out uint32
	err := n.read(func() error {
		var err error
		out, err = n.fees.TierDiscount(tier)
		return err
	})
	return out, err
}

func (n *Node) VolumeBrackets() (fees.VolumeBrackets, error) {
	var out fees.VolumeBrackets
	err := n.read(func() error {
		var err error
		out, err = n.fees.VolumeBrackets()
		return err
	})
	return out, err
}

func (n *Node) SubmissionCount(business [20]byte) (uint64, error) {
	var out uint64
	err := n.read(func() error {
		var err error
		out, err = n.fees.SubmissionCount(business)
		return err
	})
	return out, err
}

func (n *Node) RateLimitConfig() (*ratelimit.Config, bool, error) {
	var (
		out *ratelimit.Config
		ok  bool
	)
	err := n.read(func() error {
		var err error
		out, ok, err = n.limiter.Config()
		return err
	})
	return out, ok, err
}

func (n *Node) ActiveSubmissionCount(business [20]byte) (uint32, error) {
	var out uint32
	err := n.read(func() error {
		var err error
		out, err = n.limiter.ActiveCount(business)
		return err
	})
	return out, err
}

// Balance returns holder's balance of token on the internal ledger.
func (n *Node) Balance(token string, holder [20]byte) (*big.Int, error) {
	var out *big.Int
	err := n.read(func() error {
		var err error
		out, err = n.ledger.Balance(token, holder)
		return err
	})
	return out, err
}

// Transfer moves tokens between ledger accounts on behalf of from.
func (n *Node) Transfer(token string, from, to [20]byte, amount *big.Int) error {
	return n.execute("bank.transfer", func() error {
		return n.ledger.Transfer(token, from, to, amount)
	})
}
