package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
)

func zeroBytes(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func account(addr [20]byte) string {
	return crypto.FromRaw(addr).String()
}

func rootHex(root [32]byte) string {
	return hex.EncodeToString(root[:])
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
