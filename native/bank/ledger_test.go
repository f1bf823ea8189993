package bank

import (
	"errors"
	"math/big"
	"testing"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

type balanceKey struct {
	token  string
	holder [20]byte
}

type mockState map[balanceKey]*big.Int

func (m mockState) TokenBalance(token string, holder [20]byte) (*big.Int, error) {
	if v, ok := m[balanceKey{token, holder}]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (m mockState) PutTokenBalance(token string, holder [20]byte, amount *big.Int) error {
	m[balanceKey{token, holder}] = new(big.Int).Set(amount)
	return nil
}

func TestTransfer(t *testing.T) {
	state := mockState{}
	ledger := NewLedger(state)
	alice, bob := [20]byte{1}, [20]byte{2}
	if err := ledger.Mint("vrt", alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer("VRT", alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	a, _ := ledger.Balance("VRT", alice)
	b, _ := ledger.Balance("vrt", bob)
	if a.Int64() != 600 || b.Int64() != 400 {
		t.Fatalf("unexpected balances %s/%s", a, b)
	}
}

func TestTransferInsufficient(t *testing.T) {
	ledger := NewLedger(mockState{})
	err := ledger.Transfer("VRT", [20]byte{1}, [20]byte{2}, big.NewInt(1))
	if !errors.Is(err, ErrInsufficientBalance) || common.KindOf(err) != common.KindResource {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := ledger.Transfer("VRT", [20]byte{1}, [20]byte{2}, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := ledger.Transfer(" ", [20]byte{1}, [20]byte{2}, big.NewInt(0)); !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected token error, got %v", err)
	}
}
