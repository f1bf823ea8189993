package core

import (
	"fmt"
	"log/slog"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/genesis"
)

// ApplyGenesis bootstraps a fresh state from spec in one transaction. It
// returns false without touching state when any role has already been
// granted.
func (n *Node) ApplyGenesis(spec *genesis.Spec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, err
	}
	applied := false
	err := n.execute("genesis.apply", func() error {
		holders, err := n.access.RoleHolders()
		if err != nil {
			return err
		}
		if len(holders) > 0 {
			return nil
		}
		if err := n.access.Bootstrap(spec.Admin); err != nil {
			return err
		}
		for _, grant := range spec.Roles {
			if err := n.access.Grant(spec.Admin, grant.Account, grant.Roles); err != nil {
				return fmt.Errorf("genesis: grant: %w", err)
			}
		}
		if fee := spec.Fee; fee != nil {
			if _, err := n.fees.Configure(fee.Token, fee.Collector, fee.BaseFee, fee.Enabled); err != nil {
				return fmt.Errorf("genesis: fee: %w", err)
			}
		}
		if flat := spec.FlatFee; flat != nil {
			if _, err := n.fees.ConfigureFlat(flat.Token, flat.Treasury, flat.Amount, flat.Enabled); err != nil {
				return fmt.Errorf("genesis: flat fee: %w", err)
			}
		}
		for _, td := range spec.TierDiscounts {
			if err := n.fees.SetTierDiscount(td.Tier, td.Bps); err != nil {
				return fmt.Errorf("genesis: tier discount: %w", err)
			}
		}
		for _, bt := range spec.BusinessTiers {
			if err := n.fees.SetBusinessTier(bt.Business, bt.Tier); err != nil {
				return fmt.Errorf("genesis: business tier: %w", err)
			}
		}
		if vb := spec.VolumeBrackets; vb != nil {
			if err := n.fees.SetVolumeBrackets(vb.Thresholds, vb.Discounts); err != nil {
				return fmt.Errorf("genesis: volume brackets: %w", err)
			}
		}
		if rl := spec.RateLimit; rl != nil {
			if _, err := n.limiter.Configure(rl.MaxSubmissions, rl.WindowSeconds, rl.Enabled); err != nil {
				return fmt.Errorf("genesis: rate limit: %w", err)
			}
		}
		for _, bal := range spec.Balances {
			if err := n.ledger.Mint(bal.Token, bal.Holder, bal.Amount); err != nil {
				return fmt.Errorf("genesis: fund account: %w", err)
			}
		}
		applied = true
		return nil
	})
	if err == nil && applied {
		n.logger.Info("genesis applied", slog.Int("roles", len(spec.Roles)+1), slog.Int("balances", len(spec.Balances)))
	}
	return applied, err
}
