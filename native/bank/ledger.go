package bank

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

var (
	errNilState = errors.New("bank: state not configured")

	ErrInsufficientBalance = common.NewError(common.KindResource, "insufficient_balance", "insufficient balance")
	ErrInvalidAmount       = common.NewError(common.KindConfig, "invalid_amount", "amount must be non-negative")
	ErrTokenRequired       = common.NewError(common.KindConfig, "token_required", "token symbol required")
)

type ledgerState interface {
	TokenBalance(token string, holder [20]byte) (*big.Int, error)
	PutTokenBalance(token string, holder [20]byte, amount *big.Int) error
}

// Ledger is the fungible token service fees are paid through. Transfers are
// applied to the same journaled state as the rest of a submission, so a
// failure later in the call undoes them.
type Ledger struct {
	state ledgerState
}

// NewLedger creates a ledger over state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

func normalizeToken(token string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if normalized == "" {
		return "", ErrTokenRequired
	}
	return normalized, nil
}

func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}

// Balance returns the holder's balance of token.
func (l *Ledger) Balance(token string, holder [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	normalized, err := normalizeToken(token)
	if err != nil {
		return nil, err
	}
	balance, err := l.state.TokenBalance(normalized, holder)
	if err != nil {
		return nil, fmt.Errorf("bank: load balance: %w", err)
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// Transfer moves amount of token from one holder to another.
func (l *Ledger) Transfer(token string, from, to [20]byte, amount *big.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	normalized, err := normalizeToken(token)
	if err != nil {
		return err
	}
	fromBalance, err := l.Balance(normalized, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s %s, need %s", ErrInsufficientBalance, fromBalance, normalized, amount)
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	toBalance, err := l.Balance(normalized, to)
	if err != nil {
		return err
	}
	if err := l.state.PutTokenBalance(normalized, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return fmt.Errorf("bank: debit: %w", err)
	}
	if err := l.state.PutTokenBalance(normalized, to, new(big.Int).Add(toBalance, amount)); err != nil {
		return fmt.Errorf("bank: credit: %w", err)
	}
	return nil
}

// Mint credits holder with new supply. Used for genesis funding.
func (l *Ledger) Mint(token string, holder [20]byte, amount *big.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	balance, err := l.Balance(token, holder)
	if err != nil {
		return err
	}
	normalized, _ := normalizeToken(token)
	if err := l.state.PutTokenBalance(normalized, holder, new(big.Int).Add(balance, amount)); err != nil {
		return fmt.Errorf("bank: mint: %w", err)
	}
	return nil
}
