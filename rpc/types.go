package rpc

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/attestation"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/dispute"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/fees"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ranges"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/ratelimit"
)

// Wire formats: addresses are bech32 strings, roots 0x-prefixed hex and
// token amounts base-10 strings.

func formatAddress(addr [20]byte) string {
	return crypto.FromRaw(addr).String()
}

func parseAddress(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("%s required", field)
	}
	addr, err := crypto.ParseAccount(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return addr, nil
}

func formatRoot(root [32]byte) string {
	return hexutil.Encode(root[:])
}

func parseRoot(field, value string) ([32]byte, error) {
	var root [32]byte
	raw, err := hexutil.Decode(strings.TrimSpace(value))
	if err != nil {
		return root, fmt.Errorf("invalid %s: %w", field, err)
	}
	if len(raw) != len(root) {
		return root, fmt.Errorf("invalid %s: want 32 bytes, got %d", field, len(raw))
	}
	copy(root[:], raw)
	return root, nil
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", field, value)
	}
	return amount, nil
}

type SubmitAttestationRequest struct {
	Business   string  `json:"business"`
	Period     string  `json:"period"`
	MerkleRoot string  `json:"merkleRoot"`
	Timestamp  uint64  `json:"timestamp"`
	Version    uint32  `json:"version"`
	Expiry     *uint64 `json:"expiry,omitempty"`
	Currency   string  `json:"currency,omitempty"`
	IsNet      bool    `json:"isNet,omitempty"`
}

func (r SubmitAttestationRequest) toDomain() (attestation.SubmitRequest, error) {
	business, err := parseAddress("business", r.Business)
	if err != nil {
		return attestation.SubmitRequest{}, err
	}
	root, err := parseRoot("merkleRoot", r.MerkleRoot)
	if err != nil {
		return attestation.SubmitRequest{}, err
	}
	req := attestation.SubmitRequest{
		Business:   business,
		Period:     r.Period,
		MerkleRoot: root,
		Timestamp:  r.Timestamp,
		Version:    r.Version,
	}
	if r.Expiry != nil {
		req.HasExpiry = true
		req.Expiry = *r.Expiry
	}
	return req, nil
}

type BatchRequest struct {
	Items []SubmitAttestationRequest `json:"items"`
}

type MultiPeriodRequest struct {
	Business    string `json:"business"`
	StartPeriod uint32 `json:"startPeriod"`
	EndPeriod   uint32 `json:"endPeriod"`
	MerkleRoot  string `json:"merkleRoot"`
	Timestamp   uint64 `json:"timestamp"`
	Version     uint32 `json:"version"`
}

type RevokeRequest struct {
	Reason string `json:"reason"`
}

type MigrateRequest struct {
	MerkleRoot string `json:"merkleRoot"`
	Version    uint32 `json:"version"`
}

type RevokeRangeRequest struct {
	Business   string `json:"business"`
	MerkleRoot string `json:"merkleRoot"`
}

type AttestationResult struct {
	Business   string  `json:"business"`
	Period     string  `json:"period"`
	MerkleRoot string  `json:"merkleRoot"`
	Timestamp  uint64  `json:"timestamp"`
	Version    uint32  `json:"version"`
	FeePaid    string  `json:"feePaid"`
	Expiry     *uint64 `json:"expiry,omitempty"`
	Revoked    bool    `json:"revoked"`
	RevokedBy  string  `json:"revokedBy,omitempty"`
	RevokedAt  uint64  `json:"revokedAt,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Currency   string  `json:"currency,omitempty"`
	Basis      string  `json:"basis,omitempty"`
}

func attestationResultFrom(a *attestation.Attestation) AttestationResult {
	out := AttestationResult{
		Business:   formatAddress(a.Business),
		Period:     a.Period,
		MerkleRoot: formatRoot(a.MerkleRoot),
		Timestamp:  a.Timestamp,
		Version:    a.Version,
		FeePaid:    formatAmount(a.FeePaid),
		Revoked:    a.Revoked,
	}
	if a.HasExpiry {
		expiry := a.Expiry
		out.Expiry = &expiry
	}
	if a.Revoked {
		out.RevokedBy = formatAddress(a.Revocation.By)
		out.RevokedAt = a.Revocation.At
		out.Reason = a.Revocation.Reason
	}
	if a.HasMetadata {
		out.Currency = a.Metadata.CurrencyCode
		out.Basis = a.Metadata.Basis()
	}
	return out
}

type RangeResult struct {
	StartPeriod uint32 `json:"startPeriod"`
	EndPeriod   uint32 `json:"endPeriod"`
	MerkleRoot  string `json:"merkleRoot"`
	Timestamp   uint64 `json:"timestamp"`
	Version     uint32 `json:"version"`
	FeePaid     string `json:"feePaid"`
	Revoked     bool   `json:"revoked"`
}

func rangeResultFrom(r *ranges.Range) RangeResult {
	return RangeResult{
		StartPeriod: r.StartPeriod,
		EndPeriod:   r.EndPeriod,
		MerkleRoot:  formatRoot(r.MerkleRoot),
		Timestamp:   r.Timestamp,
		Version:     r.Version,
		FeePaid:     formatAmount(r.FeePaid),
		Revoked:     r.Revoked,
	}
}

type PageResult struct {
	Items      []AttestationResult `json:"items"`
	NextCursor uint64              `json:"nextCursor"`
	Done       bool                `json:"done"`
}

type VerifyResult struct {
	Valid bool `json:"valid"`
}

type FlagResult struct {
	Value bool `json:"value"`
}

type CountResult struct {
	Count uint64 `json:"count"`
}

type BreakdownResult struct {
	Token           string `json:"token,omitempty"`
	FlatToken       string `json:"flatToken,omitempty"`
	BaseFee         string `json:"baseFee"`
	TierDiscount    uint32 `json:"tierDiscountBps"`
	VolumeDiscount  uint32 `json:"volumeDiscountBps"`
	AppliedDiscount uint32 `json:"appliedDiscountBps"`
	Dynamic         string `json:"dynamic"`
	Flat            string `json:"flat"`
	Total           string `json:"total"`
	SubmissionCount uint64 `json:"submissionCount"`
}

func breakdownResultFrom(b fees.Breakdown) BreakdownResult {
	return BreakdownResult{
		Token:           b.Token,
		FlatToken:       b.FlatToken,
		BaseFee:         formatAmount(b.BaseFee),
		TierDiscount:    b.TierDiscount,
		VolumeDiscount:  b.VolumeDiscount,
		AppliedDiscount: b.AppliedDiscount,
		Dynamic:         formatAmount(b.Dynamic),
		Flat:            formatAmount(b.Flat),
		Total:           formatAmount(b.Total),
		SubmissionCount: b.SubmissionCount,
	}
}

type QuoteResult struct {
	Amount string `json:"amount"`
}

type FeeConfigResult struct {
	Token     string `json:"token"`
	Collector string `json:"collector"`
	BaseFee   string `json:"baseFee"`
	Enabled   bool   `json:"enabled"`
	Version   uint64 `json:"version"`
}

func feeConfigResultFrom(c *fees.FeeConfig) FeeConfigResult {
	return FeeConfigResult{
		Token:     c.Token,
		Collector: formatAddress(c.Collector),
		BaseFee:   formatAmount(c.BaseFee),
		Enabled:   c.Enabled,
		Version:   c.Version,
	}
}

type FlatFeeConfigResult struct {
	Token    string `json:"token"`
	Treasury string `json:"treasury"`
	Amount   string `json:"amount"`
	Enabled  bool   `json:"enabled"`
	Version  uint64 `json:"version"`
}

func flatFeeConfigResultFrom(c *fees.FlatFeeConfig) FlatFeeConfigResult {
	return FlatFeeConfigResult{
		Token:    c.Token,
		Treasury: formatAddress(c.Treasury),
		Amount:   formatAmount(c.Amount),
		Enabled:  c.Enabled,
		Version:  c.Version,
	}
}

type FeesOverview struct {
	Fee     *FeeConfigResult     `json:"fee,omitempty"`
	FlatFee *FlatFeeConfigResult `json:"flatFee,omitempty"`
}

type BracketsResult struct {
	Thresholds []uint64 `json:"thresholds"`
	Discounts  []uint32 `json:"discountsBps"`
}

type TierResult struct {
	Tier uint32 `json:"tier"`
	Bps  uint32 `json:"bps,omitempty"`
}

type RateLimitResult struct {
	MaxSubmissions uint32 `json:"maxSubmissions"`
	WindowSeconds  uint64 `json:"windowSeconds"`
	Enabled        bool   `json:"enabled"`
	Version        uint64 `json:"version"`
}

func rateLimitResultFrom(c *ratelimit.Config) RateLimitResult {
	return RateLimitResult{
		MaxSubmissions: c.MaxSubmissions,
		WindowSeconds:  c.WindowSeconds,
		Enabled:        c.Enabled,
		Version:        c.Version,
	}
}

// Admin bodies carry the caller's replay-protection nonce.

type ConfigureFeeRequest struct {
	Nonce     uint64 `json:"nonce"`
	Token     string `json:"token"`
	Collector string `json:"collector"`
	BaseFee   string `json:"baseFee"`
	Enabled   bool   `json:"enabled"`
}

type ConfigureFlatFeeRequest struct {
	Nonce    uint64 `json:"nonce"`
	Token    string `json:"token"`
	Treasury string `json:"treasury"`
	Amount   string `json:"amount"`
	Enabled  bool   `json:"enabled"`
}

type SetEnabledRequest struct {
	Nonce   uint64 `json:"nonce"`
	Enabled bool   `json:"enabled"`
}

type TierDiscountRequest struct {
	Nonce uint64 `json:"nonce"`
	Tier  uint32 `json:"tier"`
	Bps   uint32 `json:"bps"`
}

type BusinessTierRequest struct {
	Nonce    uint64 `json:"nonce"`
	Business string `json:"business"`
	Tier     uint32 `json:"tier"`
}

type BracketsRequest struct {
	Nonce      uint64   `json:"nonce"`
	Thresholds []uint64 `json:"thresholds"`
	Discounts  []uint32 `json:"discountsBps"`
}

type RateLimitRequest struct {
	Nonce          uint64 `json:"nonce"`
	MaxSubmissions uint32 `json:"maxSubmissions"`
	WindowSeconds  uint64 `json:"windowSeconds"`
	Enabled        bool   `json:"enabled"`
}

type RoleRequest struct {
	Nonce   uint64 `json:"nonce"`
	Account string `json:"account"`
	Role    string `json:"role"`
}

type NonceRequest struct {
	Nonce uint64 `json:"nonce"`
}

type RolesResult struct {
	Account string   `json:"account"`
	Roles   []string `json:"roles"`
}

type StatusResult struct {
	Paused bool `json:"paused"`
}

type NonceResult struct {
	Channel uint32 `json:"channel"`
	Nonce   uint64 `json:"nonce"`
}

type BalanceResult struct {
	Token   string `json:"token"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}

type OpenDisputeRequest struct {
	Business string `json:"business"`
	Period   string `json:"period"`
	Type     string `json:"type"`
	Evidence string `json:"evidence"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome"`
	Notes   string `json:"notes"`
}

type DisputeIDResult struct {
	ID uint64 `json:"id"`
}

type DisputeResult struct {
	ID         uint64 `json:"id"`
	Challenger string `json:"challenger"`
	Business   string `json:"business"`
	Period     string `json:"period"`
	Status     string `json:"status"`
	Type       string `json:"type"`
	Evidence   string `json:"evidence,omitempty"`
	Timestamp  uint64 `json:"timestamp"`
	Resolver   string `json:"resolver,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	ResolvedAt uint64 `json:"resolvedAt,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func disputeResultFrom(d *dispute.Dispute) DisputeResult {
	out := DisputeResult{
		ID:         d.ID,
		Challenger: formatAddress(d.Challenger),
		Business:   formatAddress(d.Business),
		Period:     d.Period,
		Status:     d.Status.String(),
		Type:       d.Type.String(),
		Evidence:   d.Evidence,
		Timestamp:  d.Timestamp,
	}
	if d.HasResolution {
		out.Resolver = formatAddress(d.Resolution.Resolver)
		out.Outcome = d.Resolution.Outcome.String()
		out.ResolvedAt = d.Resolution.Timestamp
		out.Notes = d.Resolution.Notes
	}
	return out
}

func disputeResultsFrom(list []*dispute.Dispute) []DisputeResult {
	out := make([]DisputeResult, len(list))
	for i, d := range list {
		out[i] = disputeResultFrom(d)
	}
	return out
}

// EventPayload is the websocket frame for one committed event.
type EventPayload struct {
	Sequence   uint64            `json:"sequence"`
	Cursor     string            `json:"cursor"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
