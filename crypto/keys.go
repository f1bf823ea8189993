package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix is the human-readable part of a bech32 account address.
type AddressPrefix string

// VeritasorPrefix is used for every account identity (businesses, admins,
// challengers, collectors).
const VeritasorPrefix AddressPrefix = "vrt"

// AddressLength is the raw byte length of an account identity.
const AddressLength = 20

// Address represents a 20-byte account identity with a bech32 prefix.
type Address struct {
	prefix AddressPrefix
	bytes  [AddressLength]byte
}

// NewAddress builds an address from raw bytes. The slice must hold exactly 20
// bytes.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("address must be %d bytes long, got %d", AddressLength, len(b))
	}
	var out Address
	out.prefix = prefix
	copy(out.bytes[:], b)
	return out, nil
}

// FromRaw wraps a fixed-size identity with the Veritasor prefix.
func FromRaw(raw [AddressLength]byte) Address {
	return Address{prefix: VeritasorPrefix, bytes: raw}
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		return ""
	}
	prefix := a.prefix
	if prefix == "" {
		prefix = VeritasorPrefix
	}
	encoded, err := bech32.Encode(string(prefix), conv)
	if err != nil {
		return ""
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes[:]...)
}

// Raw returns the fixed-size identity used by the engines.
func (a Address) Raw() [AddressLength]byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// IsZero reports whether the address is the all-zero identity.
func (a Address) IsZero() bool {
	return bytes.Equal(a.bytes[:], make([]byte, AddressLength))
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(strings.TrimSpace(addrStr))
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// ParseAccount decodes a bech32 address and insists on the Veritasor prefix.
func ParseAccount(addrStr string) ([AddressLength]byte, error) {
	addr, err := DecodeAddress(addrStr)
	if err != nil {
		return [AddressLength]byte{}, err
	}
	if addr.Prefix() != VeritasorPrefix {
		return [AddressLength]byte{}, fmt.Errorf("unexpected address prefix %q", addr.Prefix())
	}
	return addr.Raw(), nil
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the account identity from the secp256k1 public key.
func (k *PublicKey) Address() Address {
	return FromRaw([AddressLength]byte(crypto.PubkeyToAddress(*k.PublicKey)))
}

// HashRoot returns the Keccak-256 digest of data. The CLI uses it to derive a
// Merkle root placeholder from a revenue report file.
func HashRoot(data []byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(data))
	return out
}
