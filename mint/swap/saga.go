// Package swap implements the two-phase swap saga: verify and reserve
// inputs (setup), sign outside any DB transaction, then finalize, or
// compensate when signing fails. Setup and finalize are sequences of
// separate storage calls; neither is wrapped in one DB transaction.
package swap

import (
	"context"
	"fmt"

	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/mint/storage"
)

// state records how far the saga has advanced. Each phase method checks
// it and returns an error when called out of order, so a caller cannot
// call Finalize before SignOutputs, or SignOutputs twice.
type state int

const (
	stateInitial state = iota
	stateSetupComplete
	stateSigned
	stateFinalized
)

// Signer produces a blind signature for a blinded message under a
// keyset's private key. It is the only thing in the swap path that
// touches private key material, so an out-of-process signatory can
// implement this interface without changing saga logic.
type Signer interface {
	Sign(ctx context.Context, keysetID string, msg cashu.BlindedMessage) (cashu.BlindedSignature, error)
}

// CompensatingAction undoes one piece of TX1 setup. Actions are pushed
// onto a stack as setup proceeds and run in LIFO order on failure, so
// the most-recently-taken reservation is released first.
type CompensatingAction interface {
	Compensate(ctx context.Context, db storage.MintDB) error
	fmt.Stringer
}

// removePendingProofs undoes AddPendingProofs for a set of inputs.
type removePendingProofs struct {
	ys []string
}

func (a removePendingProofs) Compensate(ctx context.Context, db storage.MintDB) error {
	return db.RemovePendingProofs(a.ys)
}

func (a removePendingProofs) String() string {
	return fmt.Sprintf("remove-pending-proofs(%d ys)", len(a.ys))
}

// ReleasePendingProofs undoes a pending-proof reservation outside of a
// full swap saga. MeltTokens reserves proofs as pending before asking a
// Lightning backend to pay an invoice (the external, non-transactional
// step a melt can't avoid) and uses this to release them the same way a
// swap's compensation stack would, instead of calling storage directly.
func ReleasePendingProofs(ctx context.Context, db storage.MintDB, ys []string) error {
	return removePendingProofs{ys: ys}.Compensate(ctx, db)
}

// SwapSaga drives one swap request (inputs -> outputs) through setup,
// signing, and finalize, compensating on any failure before Finalize
// commits.
type SwapSaga struct {
	db    storage.MintDB
	state state

	inputs  cashu.Proofs
	ys      []string
	outputs cashu.BlindedMessages

	compensations []CompensatingAction

	signatures cashu.BlindedSignatures
}

// New begins a saga in the Initial state. Nothing is persisted yet.
func New(db storage.MintDB, inputs cashu.Proofs, ys []string, outputs cashu.BlindedMessages) *SwapSaga {
	return &SwapSaga{db: db, state: stateInitial, inputs: inputs, ys: ys, outputs: outputs}
}

func (s *SwapSaga) push(action CompensatingAction) {
	s.compensations = append(s.compensations, action)
}

// SetupSwap is TX1: it checks that no input is spent or pending and
// reserves the inputs as pending, as separate storage calls that are not
// wrapped in one DB transaction. A second concurrent reservation of the
// same input fails on the pending table's unique Y. It records a
// compensating action to release the reservation if a later phase
// fails.
func (s *SwapSaga) SetupSwap(ctx context.Context, quoteID string) error {
	if s.state != stateInitial {
		return fmt.Errorf("swap saga: SetupSwap called in state %d, want Initial", s.state)
	}

	used, err := s.db.GetProofsUsed(s.ys)
	if err != nil {
		return fmt.Errorf("checking spent proofs: %w", err)
	}
	if len(used) > 0 {
		return cashu.ProofAlreadyUsedErr
	}

	pending, err := s.db.GetPendingProofs(s.ys)
	if err != nil {
		return fmt.Errorf("checking pending proofs: %w", err)
	}
	if len(pending) > 0 {
		return cashu.ProofPendingErr
	}

	if err := s.db.AddPendingProofs(s.inputs, quoteID); err != nil {
		return fmt.Errorf("reserving inputs: %w", err)
	}
	s.push(removePendingProofs{ys: s.ys})

	s.state = stateSetupComplete
	return nil
}

// SignOutputs is the non-transactional phase: it calls the signer for
// every output. It deliberately runs outside any DB transaction because
// signing can be slow (remote signatory, HSM) and must never hold a
// writer lock on the proofs table while doing so.
func (s *SwapSaga) SignOutputs(ctx context.Context, signer Signer) error {
	if s.state != stateSetupComplete {
		return fmt.Errorf("swap saga: SignOutputs called in state %d, want SetupComplete", s.state)
	}

	sigs := make(cashu.BlindedSignatures, 0, len(s.outputs))
	for _, msg := range s.outputs {
		sig, err := signer.Sign(ctx, msg.Id, msg)
		if err != nil {
			return fmt.Errorf("signing output amount %d: %w", msg.Amount, err)
		}
		sigs = append(sigs, sig)
	}

	s.signatures = sigs
	s.state = stateSigned
	return nil
}

// Finalize is TX2: it marks the inputs spent, persists the signatures,
// and removes the pending reservation, as three separate storage calls.
// If one fails, the calls before it stay applied and the error is
// returned; Finalize does not compensate.
func (s *SwapSaga) Finalize(ctx context.Context) (cashu.BlindedSignatures, error) {
	if s.state != stateSigned {
		return nil, fmt.Errorf("swap saga: Finalize called in state %d, want Signed", s.state)
	}

	if err := s.db.SaveProofs(s.inputs); err != nil {
		return nil, fmt.Errorf("saving spent proofs: %w", err)
	}

	B_s := make([]string, len(s.outputs))
	for i, msg := range s.outputs {
		B_s[i] = msg.B_
	}
	if err := s.db.SaveBlindSignatures(B_s, s.signatures); err != nil {
		return nil, fmt.Errorf("saving blind signatures: %w", err)
	}

	if err := s.db.RemovePendingProofs(s.ys); err != nil {
		return nil, fmt.Errorf("clearing pending reservation: %w", err)
	}

	s.state = stateFinalized
	return s.signatures, nil
}

// Compensate runs every recorded compensating action in LIFO order,
// so the most recent reservation is undone first. It is best-effort:
// it keeps going after an individual action fails and returns the
// first error, so a crash mid-compensation still leaves later actions
// (which are independent of each other) applied.
func (s *SwapSaga) Compensate(ctx context.Context) error {
	var firstErr error
	for i := len(s.compensations) - 1; i >= 0; i-- {
		action := s.compensations[i]
		if err := action.Compensate(ctx, s.db); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("compensating %s: %w", action, err)
		}
	}
	s.compensations = nil
	return firstErr
}

// Run drives the full saga end to end, compensating automatically on
// any failure in setup or signing. Once Finalize begins, a failure
// there is left for the caller: the inputs may already be marked spent
// and retrying Compensate at that point would be incorrect.
func Run(ctx context.Context, db storage.MintDB, signer Signer, quoteID string, inputs cashu.Proofs, ys []string, outputs cashu.BlindedMessages) (cashu.BlindedSignatures, error) {
	saga := New(db, inputs, ys, outputs)

	if err := saga.SetupSwap(ctx, quoteID); err != nil {
		return nil, err
	}

	if err := saga.SignOutputs(ctx, signer); err != nil {
		if cerr := saga.Compensate(ctx); cerr != nil {
			return nil, fmt.Errorf("%w (compensation also failed: %v)", err, cerr)
		}
		return nil, err
	}

	sigs, err := saga.Finalize(ctx)
	if err != nil {
		return nil, fmt.Errorf("swap finalize failed after signing, manual recovery required: %w", err)
	}
	return sigs, nil
}
