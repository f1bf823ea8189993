package state

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

var (
	attestationPrefix       = []byte("attest/record/")
	attestationPeriodPrefix = []byte("attest/periods/")
	rangeCountPrefix        = []byte("ranges/count/")
	rangeEntryPrefix        = []byte("ranges/entry/")
	feeConfigKeyBytes       = []byte("fees/config")
	flatFeeConfigKeyBytes   = []byte("fees/flat")
	tierDiscountPrefix      = []byte("fees/tier/")
	businessTierPrefix      = []byte("fees/business-tier/")
	volumeBracketsKeyBytes  = []byte("fees/brackets")
	submissionCountPrefix   = []byte("fees/count/")
	rateLimitConfigKeyBytes = []byte("ratelimit/config")
	rateLimitWindowPrefix   = []byte("ratelimit/window/")
	disputeCounterKeyBytes  = []byte("dispute/counter")
	disputeRecordPrefix     = []byte("dispute/record/")
	disputeAttestPrefix     = []byte("dispute/by-attestation/")
	disputeChallengerPrefix = []byte("dispute/by-challenger/")
	accessRolesPrefix       = []byte("access/roles/")
	accessHoldersKeyBytes   = []byte("access/holders")
	accessPausedPrefix      = []byte("access/paused/")
	noncePrefix             = []byte("nonce/")
	balancePrefix           = []byte("balance/")
)

func join(prefix []byte, parts ...string) []byte {
	buf := make([]byte, 0, len(prefix)+32*len(parts))
	buf = append(buf, prefix...)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, '/')
		}
		buf = append(buf, part...)
	}
	return buf
}

func addrHex(addr [20]byte) string { return hex.EncodeToString(addr[:]) }

func u64Hex(v uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return hex.EncodeToString(buf[:])
}

// AttestationKey addresses the record for (business, period).
func AttestationKey(business [20]byte, period string) []byte {
	return join(attestationPrefix, addrHex(business), period)
}

// AttestationPeriodKey addresses entry index of business's period list.
func AttestationPeriodKey(business [20]byte, index uint64) []byte {
	return join(attestationPeriodPrefix, addrHex(business), u64Hex(index))
}

// AttestationPeriodCountKey addresses the length of business's period list.
func AttestationPeriodCountKey(business [20]byte) []byte {
	return join(attestationPeriodPrefix, addrHex(business), "count")
}

func rangeCountKey(business [20]byte) []byte {
	return join(rangeCountPrefix, addrHex(business))
}

func rangeEntryKey(business [20]byte, index uint64) []byte {
	return join(rangeEntryPrefix, addrHex(business), u64Hex(index))
}

func tierDiscountKey(tier uint32) []byte {
	return join(tierDiscountPrefix, u64Hex(uint64(tier)))
}

func businessTierKey(business [20]byte) []byte {
	return join(businessTierPrefix, addrHex(business))
}

func submissionCountKey(business [20]byte) []byte {
	return join(submissionCountPrefix, addrHex(business))
}

func rateLimitWindowKey(business [20]byte) []byte {
	return join(rateLimitWindowPrefix, addrHex(business))
}

func disputeRecordKey(id uint64) []byte {
	return join(disputeRecordPrefix, u64Hex(id))
}

func disputeAttestationKey(business [20]byte, period string) []byte {
	return join(disputeAttestPrefix, addrHex(business), period)
}

func disputeChallengerKey(challenger [20]byte) []byte {
	return join(disputeChallengerPrefix, addrHex(challenger))
}

func accessRolesKey(account [20]byte) []byte {
	return join(accessRolesPrefix, addrHex(account))
}

func accessPausedKey(module string) []byte {
	return join(accessPausedPrefix, strings.ToLower(strings.TrimSpace(module)))
}

func nonceKey(actor [20]byte, channel uint32) []byte {
	return join(noncePrefix, addrHex(actor), u64Hex(uint64(channel)))
}

func balanceKey(token string, holder [20]byte) []byte {
	return join(balancePrefix, strings.ToUpper(strings.TrimSpace(token)), addrHex(holder))
}
