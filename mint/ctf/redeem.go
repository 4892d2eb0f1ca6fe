package ctf

import (
	"context"
	"fmt"

	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/mint/ctf/dlc"
	"github.com/sats-mint/gonuts/mint/storage"
	"github.com/sats-mint/gonuts/mint/swap"
)

// RedeemRequest carries the oracle attestation plus the proofs/outputs a
// holder wants redeemed against a resolved condition.
type RedeemRequest struct {
	ConditionID string
	Attestation []byte // oracle signature(s) over the outcome
	Inputs      cashu.Proofs
	InputsYs    []string
	Outputs     cashu.BlindedMessages
}

// ProcessRedeemOutcome verifies the oracle attestation against the
// condition, resolves it if not already resolved (compare-and-swap: a
// second concurrent caller attesting the same outcome is a no-op, a
// different outcome is an error), then pays out proportionally to the
// winning partition.
func ProcessRedeemOutcome(ctx context.Context, store Store, db storage.MintDB, signer swap.Signer, req RedeemRequest) (cashu.BlindedSignatures, error) {
	condition, err := store.GetCondition(req.ConditionID)
	if err != nil || condition == nil {
		return nil, ErrConditionNotFound
	}

	switch condition.Type {
	case ConditionEnum:
		return processEnumRedemption(ctx, store, db, signer, condition, req)
	case ConditionNumeric:
		return processNumericRedemption(ctx, store, db, signer, condition, req)
	default:
		return nil, fmt.Errorf("unsupported condition type %q", condition.Type)
	}
}

func resolveOrCheckAttestation(store Store, condition *StoredCondition, attestedValue int64, attestation []byte) error {
	if condition.Status == ConditionResolved {
		if condition.AttestedValue == nil || *condition.AttestedValue != attestedValue {
			return fmt.Errorf("condition %s already resolved to a different outcome", condition.ID)
		}
		return nil
	}
	return store.UpdateConditionAttestation(condition.ID, attestation, attestedValue)
}

func processEnumRedemption(ctx context.Context, store Store, db storage.MintDB, signer swap.Signer, condition *StoredCondition, req RedeemRequest) (cashu.BlindedSignatures, error) {
	outcomeIndex, err := dlc.ExtractOutcomeIndex(condition.OraclePubkey, condition.EventID, condition.Outcomes, req.Attestation)
	if err != nil {
		return nil, fmt.Errorf("verifying oracle attestation: %w", err)
	}

	if err := resolveOrCheckAttestation(store, condition, int64(outcomeIndex), req.Attestation); err != nil {
		return nil, err
	}

	partitions, err := store.ListPartitionsByCondition(condition.ID)
	if err != nil {
		return nil, fmt.Errorf("loading partitions: %w", err)
	}

	var winner *StoredPartition
	for i := range partitions {
		if partitions[i].WinningOutcome != nil && *partitions[i].WinningOutcome == outcomeIndex {
			winner = &partitions[i]
			break
		}
	}
	if winner == nil {
		return nil, fmt.Errorf("no partition registered for outcome %d of condition %s", outcomeIndex, condition.ID)
	}

	// Enum redemption is a balanced swap: proofs in, blind signatures
	// for at most the input value out under the winning keyset.
	if outputAmount, inputAmount := req.Outputs.Amount(), req.Inputs.Amount(); outputAmount > inputAmount {
		return nil, fmt.Errorf("requested output amount %d exceeds input amount %d", outputAmount, inputAmount)
	}
	for i := range req.Outputs {
		req.Outputs[i].Id = winner.KeysetID
	}
	quoteID := "ctf-" + condition.ID
	return swap.Run(ctx, db, signer, quoteID, req.Inputs, req.InputsYs, req.Outputs)
}

func processNumericRedemption(ctx context.Context, store Store, db storage.MintDB, signer swap.Signer, condition *StoredCondition, req RedeemRequest) (cashu.BlindedSignatures, error) {
	attestedValue, err := dlc.ExtractNumericValue(condition.OraclePubkey, condition.EventID, condition.LoBound, condition.HiBound, req.Attestation)
	if err != nil {
		return nil, fmt.Errorf("verifying oracle attestation: %w", err)
	}

	if err := resolveOrCheckAttestation(store, condition, attestedValue, req.Attestation); err != nil {
		return nil, err
	}

	partitions, err := store.ListPartitionsByCondition(condition.ID)
	if err != nil {
		return nil, fmt.Errorf("loading partitions: %w", err)
	}

	inputAmount := req.Inputs.Amount()
	outputAmount := req.Outputs.Amount()

	payout := ComputeNumericPayout(inputAmount, attestedValue, condition.LoBound, condition.HiBound)
	if payout != outputAmount {
		return nil, fmt.Errorf("requested output amount %d does not match computed payout %d", outputAmount, payout)
	}

	var payoutPartition *StoredPartition
	wantCurve := "long"
	if payout < inputAmount {
		wantCurve = "short"
	}
	for i := range partitions {
		if partitions[i].PayoutCurve == wantCurve {
			payoutPartition = &partitions[i]
			break
		}
	}
	if payoutPartition == nil {
		return nil, fmt.Errorf("no %s partition registered for condition %s", wantCurve, condition.ID)
	}

	for i := range req.Outputs {
		req.Outputs[i].Id = payoutPartition.KeysetID
	}

	// Numeric redemption is an unbalanced swap: the payout curve can
	// pay out less than the input amount (the remainder is burned, the
	// counterparty side of the condition holds the complement claim),
	// so the saga's Finalize must not enforce proofsAmount == outputsAmount.
	quoteID := "ctf-" + condition.ID
	return swap.Run(ctx, db, signer, quoteID, req.Inputs, req.InputsYs, req.Outputs)
}

// ComputeNumericPayout applies a simple linear payout curve: the holder
// receives inputAmount scaled by how far the attested value sits within
// [lo, hi], clamped to the range's edges.
func ComputeNumericPayout(inputAmount uint64, attestedValue, lo, hi int64) uint64 {
	if attestedValue <= lo {
		return 0
	}
	if attestedValue >= hi {
		return inputAmount
	}
	span := hi - lo
	offset := attestedValue - lo
	return uint64((int64(inputAmount) * offset) / span)
}
