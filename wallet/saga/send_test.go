package saga

import (
	"errors"
	"testing"

	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/wallet/storage"
)

var errOffline = errors.New("mint unreachable")

type fakeDB struct {
	spendable map[string]cashu.Proof
	pending   map[string]storage.DBProof // Y -> proof
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		spendable: make(map[string]cashu.Proof),
		pending:   make(map[string]storage.DBProof),
	}
}

func (f *fakeDB) DeleteProof(secret string) error {
	for y, p := range f.spendable {
		if p.Secret == secret {
			delete(f.spendable, y)
		}
	}
	return nil
}

func (f *fakeDB) SaveProofs(proofs cashu.Proofs) error {
	for _, p := range proofs {
		f.spendable[p.Secret] = p
	}
	return nil
}

func (f *fakeDB) AddPendingProofsByQuoteId(proofs cashu.Proofs, quoteId string) error {
	for _, p := range proofs {
		f.pending[p.Secret] = storage.DBProof{
			Y: p.Secret, Amount: p.Amount, Id: p.Id, Secret: p.Secret, C: p.C, MeltQuoteId: quoteId,
		}
	}
	return nil
}

func (f *fakeDB) GetPendingProofsByQuoteId(quoteId string) []storage.DBProof {
	var out []storage.DBProof
	for _, p := range f.pending {
		if p.MeltQuoteId == quoteId {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeDB) GetPendingProofs() []storage.DBProof {
	var out []storage.DBProof
	for _, p := range f.pending {
		out = append(out, p)
	}
	return out
}

func (f *fakeDB) DeletePendingProofsByQuoteId(quoteId string) error {
	for secret, p := range f.pending {
		if p.MeltQuoteId == quoteId {
			delete(f.pending, secret)
		}
	}
	return nil
}

func testProofs() cashu.Proofs {
	return cashu.Proofs{{Amount: 4, Id: "00aabbccdd", Secret: "secret-a", C: "c-a"}}
}

func TestSendSagaHappyPath(t *testing.T) {
	db := newFakeDB()
	proofs := testProofs()
	db.SaveProofs(proofs)

	s := New(db, "saga1", proofs)
	if err := s.Reserve(); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if len(db.spendable) != 0 {
		t.Fatalf("expected reserved proof removed from spendable set, got %d", len(db.spendable))
	}
	if len(db.GetPendingProofsByQuoteId("saga1")) != 1 {
		t.Fatalf("expected 1 pending proof under saga1")
	}

	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(db.GetPendingProofsByQuoteId("saga1")) != 0 {
		t.Fatalf("expected reservation cleared after finalize")
	}
}

func TestSendSagaCompensate(t *testing.T) {
	db := newFakeDB()
	proofs := testProofs()
	db.SaveProofs(proofs)

	s := New(db, "saga1", proofs)
	if err := s.Reserve(); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := s.Compensate(); err != nil {
		t.Fatalf("Compensate: %v", err)
	}
	if len(db.spendable) != 1 {
		t.Fatalf("expected proof restored to spendable set, got %d", len(db.spendable))
	}
	if len(db.GetPendingProofsByQuoteId("saga1")) != 0 {
		t.Fatalf("expected reservation cleared after compensate")
	}
}

// TestRecoverSends_SwapWentThrough exercises the crash between the
// mint accepting a swap and the wallet storing the result: the mint
// reports the reserved proof spent, so recovery clears the
// reservation rather than trying to restore a proof the mint would
// reject as already spent.
func TestRecoverSends_SwapWentThrough(t *testing.T) {
	db := newFakeDB()
	proofs := testProofs()
	s := New(db, "saga1", proofs)
	if err := s.Reserve(); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	checkState := func(ys []string) (map[string]bool, error) {
		spent := make(map[string]bool)
		for _, y := range ys {
			spent[y] = true
		}
		return spent, nil
	}

	report, err := RecoverSends(db, checkState)
	if err != nil {
		t.Fatalf("RecoverSends: %v", err)
	}
	if report.Recovered != 1 || report.Compensated != 0 {
		t.Fatalf("expected 1 recovered, 0 compensated, got %+v", report)
	}
	if len(db.GetPendingProofsByQuoteId("saga1")) != 0 {
		t.Fatalf("expected reservation cleared")
	}
}

// TestRecoverSends_SwapNeverReachedMint exercises a crash before the
// swap request reached the mint at all: the proof is still unspent, so
// recovery restores it to the spendable set.
func TestRecoverSends_SwapNeverReachedMint(t *testing.T) {
	db := newFakeDB()
	proofs := testProofs()
	s := New(db, "saga1", proofs)
	if err := s.Reserve(); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	checkState := func(ys []string) (map[string]bool, error) {
		return make(map[string]bool), nil
	}

	report, err := RecoverSends(db, checkState)
	if err != nil {
		t.Fatalf("RecoverSends: %v", err)
	}
	if report.Compensated != 1 || report.Recovered != 0 {
		t.Fatalf("expected 1 compensated, 0 recovered, got %+v", report)
	}
	if len(db.spendable) != 1 {
		t.Fatalf("expected proof restored to spendable set")
	}
}

func TestRecoverSends_MintUnreachableSkips(t *testing.T) {
	db := newFakeDB()
	proofs := testProofs()
	s := New(db, "saga1", proofs)
	if err := s.Reserve(); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	checkState := func(ys []string) (map[string]bool, error) {
		return nil, errOffline
	}

	report, err := RecoverSends(db, checkState)
	if err != nil {
		t.Fatalf("RecoverSends: %v", err)
	}
	if report.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %+v", report)
	}
	if len(db.GetPendingProofsByQuoteId("saga1")) != 1 {
		t.Fatalf("expected reservation left in place for the next startup")
	}
}
