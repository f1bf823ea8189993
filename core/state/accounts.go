package state

import (
	"fmt"
	"math/big"
)

// Nonce returns the next expected nonce of (actor, channel).
func (m *Manager) Nonce(actor [20]byte, channel uint32) (uint64, error) {
	var value uint64
	if _, err := m.KVGet(nonceKey(actor, channel), &value); err != nil {
		return 0, err
	}
	return value, nil
}

// PutNonce stores the next expected nonce of (actor, channel).
func (m *Manager) PutNonce(actor [20]byte, channel uint32, value uint64) error {
	return m.KVPut(nonceKey(actor, channel), value)
}

// TokenBalance returns holder's balance of token. Missing balances are zero.
func (m *Manager) TokenBalance(token string, holder [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.KVGet(balanceKey(token, holder), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// PutTokenBalance stores holder's balance of token.
func (m *Manager) PutTokenBalance(token string, holder [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative balance not allowed")
	}
	if amount.Sign() == 0 {
		return m.KVDelete(balanceKey(token, holder))
	}
	return m.KVPut(balanceKey(token, holder), amount)
}
