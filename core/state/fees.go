package state

import (
	"fmt"
	"math/big"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/fees"
)

type storedFeeConfig struct {
	Token     string
	Collector [20]byte
	BaseFee   *big.Int
	Enabled   bool
	Version   uint64
}

type storedFlatFeeConfig struct {
	Token    string
	Treasury [20]byte
	Amount   *big.Int
	Enabled  bool
	Version  uint64
}

type storedBrackets struct {
	Thresholds []uint64
	Discounts  []uint32
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// FeeConfig loads the dynamic fee configuration.
func (m *Manager) FeeConfig() (*fees.FeeConfig, bool, error) {
	var stored storedFeeConfig
	ok, err := m.KVGet(feeConfigKeyBytes, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &fees.FeeConfig{
		Token:     stored.Token,
		Collector: stored.Collector,
		BaseFee:   nonNil(stored.BaseFee),
		Enabled:   stored.Enabled,
		Version:   stored.Version,
	}, true, nil
}

// PutFeeConfig stores the dynamic fee configuration.
func (m *Manager) PutFeeConfig(cfg *fees.FeeConfig) error {
	if cfg == nil {
		return fmt.Errorf("state: fee config must not be nil")
	}
	return m.KVPut(feeConfigKeyBytes, &storedFeeConfig{
		Token:     cfg.Token,
		Collector: cfg.Collector,
		BaseFee:   nonNil(cfg.BaseFee),
		Enabled:   cfg.Enabled,
		Version:   cfg.Version,
	})
}

// FlatFeeConfig loads the flat fee configuration.
func (m *Manager) FlatFeeConfig() (*fees.FlatFeeConfig, bool, error) {
	var stored storedFlatFeeConfig
	ok, err := m.KVGet(flatFeeConfigKeyBytes, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &fees.FlatFeeConfig{
		Token:    stored.Token,
		Treasury: stored.Treasury,
		Amount:   nonNil(stored.Amount),
		Enabled:  stored.Enabled,
		Version:  stored.Version,
	}, true, nil
}

// PutFlatFeeConfig stores the flat fee configuration.
func (m *Manager) PutFlatFeeConfig(cfg *fees.FlatFeeConfig) error {
	if cfg == nil {
		return fmt.Errorf("state: flat fee config must not be nil")
	}
	return m.KVPut(flatFeeConfigKeyBytes, &storedFlatFeeConfig{
		Token:    cfg.Token,
		Treasury: cfg.Treasury,
		Amount:   nonNil(cfg.Amount),
		Enabled:  cfg.Enabled,
		Version:  cfg.Version,
	})
}

// TierDiscount loads the discount configured for tier.
func (m *Manager) TierDiscount(tier uint32) (uint32, bool, error) {
	var bps uint32
	ok, err := m.KVGet(tierDiscountKey(tier), &bps)
	return bps, ok, err
}

// PutTierDiscount stores the discount for tier.
func (m *Manager) PutTierDiscount(tier uint32, bps uint32) error {
	return m.KVPut(tierDiscountKey(tier), bps)
}

// BusinessTier loads the tier assigned to business.
func (m *Manager) BusinessTier(business [20]byte) (uint32, bool, error) {
	var tier uint32
	ok, err := m.KVGet(businessTierKey(business), &tier)
	return tier, ok, err
}

// PutBusinessTier assigns tier to business.
func (m *Manager) PutBusinessTier(business [20]byte, tier uint32) error {
	return m.KVPut(businessTierKey(business), tier)
}

// VolumeBrackets loads the volume discount schedule.
func (m *Manager) VolumeBrackets() (*fees.VolumeBrackets, bool, error) {
	var stored storedBrackets
	ok, err := m.KVGet(volumeBracketsKeyBytes, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &fees.VolumeBrackets{
		Thresholds: append([]uint64(nil), stored.Thresholds...),
		Discounts:  append([]uint32(nil), stored.Discounts...),
	}, true, nil
}

// PutVolumeBrackets stores the volume discount schedule.
func (m *Manager) PutVolumeBrackets(brackets *fees.VolumeBrackets) error {
	if brackets == nil {
		return fmt.Errorf("state: volume brackets must not be nil")
	}
	return m.KVPut(volumeBracketsKeyBytes, &storedBrackets{
		Thresholds: append([]uint64{}, brackets.Thresholds...),
		Discounts:  append([]uint32{}, brackets.Discounts...),
	})
}

// SubmissionCount returns business's lifetime submission counter.
func (m *Manager) SubmissionCount(business [20]byte) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(submissionCountKey(business), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// PutSubmissionCount stores business's lifetime submission counter.
func (m *Manager) PutSubmissionCount(business [20]byte, count uint64) error {
	return m.KVPut(submissionCountKey(business), count)
}
