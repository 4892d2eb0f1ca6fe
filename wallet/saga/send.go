// Package saga implements crash-recoverable reservation of wallet
// proofs around a send, mirroring the state/compensation shape of
// mint/swap on the wallet side: proofs picked to cover a send amount
// are marked pending under a saga id instead of deleted outright, so
// a crash between reserving them and clearing the reservation can be
// resumed by asking the mint what actually happened, instead of
// silently losing or double-spending them.
package saga

import (
	"fmt"

	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/wallet/storage"
)

type State string

const (
	StateReserved State = "reserved"
	StateCleared  State = "cleared"
)

// DB is the subset of wallet/storage.WalletDB a send saga needs.
type DB interface {
	DeleteProof(secret string) error
	SaveProofs(cashu.Proofs) error
	AddPendingProofsByQuoteId(cashu.Proofs, string) error
	GetPendingProofsByQuoteId(string) []storage.DBProof
	GetPendingProofs() []storage.DBProof
	DeletePendingProofsByQuoteId(string) error
}

// CheckStateFunc reports, for each Y in ys, whether the mint considers
// the proof spent.
type CheckStateFunc func(ys []string) (map[string]bool, error)

// SendSaga reserves a set of wallet proofs under a saga id for the
// duration of a swap with the mint.
type SendSaga struct {
	db     DB
	id     string
	state  State
	proofs cashu.Proofs
}

func New(db DB, id string, proofs cashu.Proofs) *SendSaga {
	return &SendSaga{db: db, id: id, proofs: proofs}
}

// Reserve is TX1: the chosen proofs are marked pending under the saga
// id and removed from the spendable set, instead of being deleted
// outright, so a crash before Finalize leaves them recoverable.
func (s *SendSaga) Reserve() error {
	if err := s.db.AddPendingProofsByQuoteId(s.proofs, s.id); err != nil {
		return fmt.Errorf("reserving proofs for send: %w", err)
	}
	for _, p := range s.proofs {
		s.db.DeleteProof(p.Secret)
	}
	s.state = StateReserved
	return nil
}

// Finalize clears the reservation once the mint swap has succeeded and
// the resulting proofs (exact-amount + change) have been stored.
func (s *SendSaga) Finalize() error {
	if s.state != StateReserved {
		return fmt.Errorf("send saga: Finalize called in state %q, want %q", s.state, StateReserved)
	}
	if err := s.db.DeletePendingProofsByQuoteId(s.id); err != nil {
		return fmt.Errorf("clearing send reservation: %w", err)
	}
	s.state = StateCleared
	return nil
}

// Compensate undoes Reserve when the swap request itself fails
// (network error, mint rejection) rather than the process crashing:
// the reserved proofs go back to the spendable set.
func (s *SendSaga) Compensate() error {
	if s.state != StateReserved {
		return fmt.Errorf("send saga: Compensate called in state %q, want %q", s.state, StateReserved)
	}
	if err := s.db.SaveProofs(s.proofs); err != nil {
		return fmt.Errorf("restoring reserved proofs: %w", err)
	}
	if err := s.db.DeletePendingProofsByQuoteId(s.id); err != nil {
		return fmt.Errorf("clearing send reservation: %w", err)
	}
	s.state = StateCleared
	return nil
}

// RecoveryReport summarizes what crash recovery did to sagas found
// still in the Reserved state at wallet startup.
type RecoveryReport struct {
	Recovered   int // mint confirms the reserved proofs were spent: swap went through before the crash
	Compensated int // mint reports the proofs unspent: the swap never reached the mint, restored to spendable
	Skipped     int // mint unreachable right now, left for the next startup
}

// RecoverSends resumes send sagas left in the Reserved state by a
// crash. Unlike a full saga log, the wallet doesn't persist which
// phase a crash happened in beyond "still pending" — there is only one
// external call in a send (the swap), so the mint's proof-state answer
// is enough to tell complete from incomplete, without needing a
// RollingBack substate for a partially-applied compensation.
func RecoverSends(db DB, checkState CheckStateFunc) (RecoveryReport, error) {
	var report RecoveryReport

	bySaga := make(map[string][]storage.DBProof)
	for _, p := range db.GetPendingProofs() {
		if p.MeltQuoteId == "" {
			continue
		}
		bySaga[p.MeltQuoteId] = append(bySaga[p.MeltQuoteId], p)
	}

	var firstErr error
	for sagaId, proofs := range bySaga {
		ys := make([]string, len(proofs))
		for i, p := range proofs {
			ys[i] = p.Y
		}

		spent, err := checkState(ys)
		if err != nil {
			report.Skipped++
			continue
		}

		allSpent := true
		for _, y := range ys {
			if !spent[y] {
				allSpent = false
				break
			}
		}

		if allSpent {
			if err := db.DeletePendingProofsByQuoteId(sagaId); err != nil && firstErr == nil {
				firstErr = err
				continue
			}
			report.Recovered++
			continue
		}

		restored := make(cashu.Proofs, len(proofs))
		for i, p := range proofs {
			restored[i] = cashu.Proof{Amount: p.Amount, Id: p.Id, Secret: p.Secret, C: p.C, DLEQ: p.DLEQ}
		}
		if err := db.SaveProofs(restored); err != nil && firstErr == nil {
			firstErr = err
			continue
		}
		if err := db.DeletePendingProofsByQuoteId(sagaId); err != nil && firstErr == nil {
			firstErr = err
			continue
		}
		report.Compensated++
	}

	return report, firstErr
}
