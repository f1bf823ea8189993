package attestation

import (
	"fmt"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/native/common"
)

// MaxBatchSize caps the number of items in one batch submission.
const MaxBatchSize = 100

var (
	ErrEmptyBatch     = common.NewError(common.KindConfig, "empty_batch", "batch cannot be empty")
	ErrBatchTooLarge  = common.NewError(common.KindLimitExceeded, "batch_too_large", "batch exceeds the maximum size")
	ErrBatchDuplicate = common.NewError(common.KindState, "batch_duplicate", "duplicate business and period within batch")
)

// SubmitBatch stores several single-period attestations in one call. Every
// item is validated before any fee is taken; fees are then collected item
// by item, so later items of the same business are priced on the counter
// already incremented by earlier ones.
func (e *Engine) SubmitBatch(caller [20]byte, items []SubmitRequest) ([]*Attestation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(items) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d items (max %d)", ErrBatchTooLarge, len(items), MaxBatchSize)
	}

	type itemKey struct {
		business [20]byte
		period   string
	}
	seen := make(map[itemKey]int, len(items))
	authorized := make(map[[20]byte]struct{})
	normalized := make([]SubmitRequest, len(items))
	for i, item := range items {
		period, err := normalizePeriod(item.Period)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		item.Period = period
		if _, ok := authorized[item.Business]; !ok {
			if err := e.requireSubmitter(caller, item.Business); err != nil {
				return nil, fmt.Errorf("batch item %d: %w", i, err)
			}
			authorized[item.Business] = struct{}{}
		}
		key := itemKey{item.Business, item.Period}
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: indices %d and %d", ErrBatchDuplicate, first, i)
		}
		seen[key] = i
		exists, err := e.state.AttestationExists(item.Business, item.Period)
		if err != nil {
			return nil, fmt.Errorf("attestation: check existing: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("batch item %d: %w: period %q", i, ErrAlreadyExists, item.Period)
		}
		normalized[i] = item
	}

	out := make([]*Attestation, 0, len(normalized))
	for i, item := range normalized {
		if err := e.checkRate(item.Business); err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		fee, err := e.collect(item.Business)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		record, err := e.store(item, fee, nil)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		if err := e.incrementCount(item.Business); err != nil {
			return nil, err
		}
		if err := e.recordRate(item.Business); err != nil {
			return nil, err
		}
		e.emitSubmitted(caller, record, events.SubmissionBatch)
		out = append(out, record)
	}
	return out, nil
}
