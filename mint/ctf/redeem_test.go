package ctf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/cashu/nuts/nut04"
	"github.com/sats-mint/gonuts/cashu/nuts/nut05"
	"github.com/sats-mint/gonuts/mint/storage"
)

// inMemoryStore is a minimal in-memory ctf.Store for driving the
// register/redeem flow without a database.
type inMemoryStore struct {
	conditions map[string]StoredCondition
	partitions map[string]StoredPartition
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{
		conditions: make(map[string]StoredCondition),
		partitions: make(map[string]StoredPartition),
	}
}

func (s *inMemoryStore) GetCondition(id string) (*StoredCondition, error) {
	c, ok := s.conditions[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *inMemoryStore) SaveCondition(c StoredCondition) error {
	s.conditions[c.ID] = c
	return nil
}

func (s *inMemoryStore) UpdateConditionAttestation(id string, attestation []byte, value int64) error {
	c, ok := s.conditions[id]
	if !ok {
		return ErrConditionNotFound
	}
	c.Status = ConditionResolved
	c.Attestation = attestation
	c.AttestedValue = &value
	s.conditions[id] = c
	return nil
}

func (s *inMemoryStore) GetPartition(id string) (*StoredPartition, error) {
	p, ok := s.partitions[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *inMemoryStore) ListPartitionsByCondition(conditionID string) ([]StoredPartition, error) {
	var out []StoredPartition
	for _, p := range s.partitions {
		if p.ConditionID == conditionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *inMemoryStore) SavePartition(p StoredPartition) error {
	s.partitions[p.ID] = p
	return nil
}

// fakeDB is a minimal in-memory storage.MintDB, mirroring the one used
// to test the swap saga.
type fakeDB struct {
	used      map[string]bool
	pending   map[string]string
	blindSigs map[string]cashu.BlindedSignature
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		used:      make(map[string]bool),
		pending:   make(map[string]string),
		blindSigs: make(map[string]cashu.BlindedSignature),
	}
}

func (f *fakeDB) SaveSeed([]byte) error                   { return nil }
func (f *fakeDB) GetSeed() ([]byte, error)                { return nil, nil }
func (f *fakeDB) SaveKeyset(storage.DBKeyset) error       { return nil }
func (f *fakeDB) GetKeysets() ([]storage.DBKeyset, error) { return nil, nil }
func (f *fakeDB) UpdateKeysetActive(string, bool) error   { return nil }

func (f *fakeDB) SaveProofs(proofs cashu.Proofs) error {
	for _, p := range proofs {
		f.used[p.Secret] = true
	}
	return nil
}

func (f *fakeDB) GetProofsUsed(Ys []string) ([]storage.DBProof, error) {
	var out []storage.DBProof
	for _, y := range Ys {
		if f.used[y] {
			out = append(out, storage.DBProof{Y: y})
		}
	}
	return out, nil
}

func (f *fakeDB) AddPendingProofs(proofs cashu.Proofs, quoteId string) error {
	for _, p := range proofs {
		f.pending[p.Secret] = quoteId
	}
	return nil
}

func (f *fakeDB) GetPendingProofs(Ys []string) ([]storage.DBProof, error) {
	var out []storage.DBProof
	for _, y := range Ys {
		if _, ok := f.pending[y]; ok {
			out = append(out, storage.DBProof{Y: y})
		}
	}
	return out, nil
}

func (f *fakeDB) GetPendingProofsByQuote(quoteId string) ([]storage.DBProof, error) {
	var out []storage.DBProof
	for y, q := range f.pending {
		if q == quoteId {
			out = append(out, storage.DBProof{Y: y})
		}
	}
	return out, nil
}

func (f *fakeDB) RemovePendingProofs(Ys []string) error {
	for _, y := range Ys {
		delete(f.pending, y)
	}
	return nil
}

func (f *fakeDB) SaveMintQuote(storage.MintQuote) error          { return nil }
func (f *fakeDB) GetMintQuote(string) (storage.MintQuote, error) { return storage.MintQuote{}, nil }
func (f *fakeDB) GetMintQuoteByPaymentHash(string) (storage.MintQuote, error) {
	return storage.MintQuote{}, fmt.Errorf("not found")
}
func (f *fakeDB) UpdateMintQuoteState(string, nut04.State) error { return nil }

func (f *fakeDB) SaveMeltQuote(storage.MeltQuote) error          { return nil }
func (f *fakeDB) GetMeltQuote(string) (storage.MeltQuote, error) { return storage.MeltQuote{}, nil }
func (f *fakeDB) GetMeltQuoteByPaymentRequest(string) (*storage.MeltQuote, error) {
	return nil, fmt.Errorf("not found")
}
func (f *fakeDB) UpdateMeltQuote(string, string, nut05.State) error { return nil }

func (f *fakeDB) SaveBlindSignatures(B_s []string, sigs cashu.BlindedSignatures) error {
	for i, b := range B_s {
		f.blindSigs[b] = sigs[i]
	}
	return nil
}

func (f *fakeDB) GetBlindSignature(B_ string) (cashu.BlindedSignature, error) {
	sig, ok := f.blindSigs[B_]
	if !ok {
		return cashu.BlindedSignature{}, fmt.Errorf("not found")
	}
	return sig, nil
}

func (f *fakeDB) GetBlindSignatures(B_s []string) (cashu.BlindedSignatures, error) {
	var out cashu.BlindedSignatures
	for _, b := range B_s {
		if sig, ok := f.blindSigs[b]; ok {
			out = append(out, sig)
		}
	}
	return out, nil
}

func (f *fakeDB) GetIssuedEcash() (map[string]uint64, error)   { return nil, nil }
func (f *fakeDB) GetRedeemedEcash() (map[string]uint64, error) { return nil, nil }
func (f *fakeDB) Close() error                                 { return nil }

type stubSigner struct{}

func (stubSigner) Sign(_ context.Context, keysetID string, msg cashu.BlindedMessage) (cashu.BlindedSignature, error) {
	return cashu.BlindedSignature{Amount: msg.Amount, C_: "02" + msg.B_[2:], Id: keysetID}, nil
}

// testOracle generates a throwaway oracle keypair and attests to an
// enum outcome by signing sha256(eventID|outcome), matching what
// dlc.ExtractOutcomeIndex verifies.
type testOracle struct {
	priv *btcec.PrivateKey
}

func newTestOracle() testOracle {
	priv, _ := btcec.NewPrivateKey()
	return testOracle{priv: priv}
}

func (o testOracle) pubkeyHex() string {
	return hex.EncodeToString(schnorr.SerializePubKey(o.priv.PubKey()))
}

func (o testOracle) attestEnum(eventID, outcome string) []byte {
	digest := sha256.Sum256([]byte(eventID + "|" + outcome))
	sig, err := schnorr.Sign(o.priv, digest[:])
	if err != nil {
		panic(err)
	}
	return sig.Serialize()
}

// TestCTFEndToEndEnumRedemption drives the full NUT-CTF flow:
// RegisterCondition, RegisterPartition for each outcome, then
// ProcessRedeemOutcome settling a winning redemption against an
// oracle attestation.
func TestCTFEndToEndEnumRedemption(t *testing.T) {
	store := newInMemoryStore()
	db := newFakeDB()
	oracle := newTestOracle()

	condition, err := RegisterCondition(store, oracle.pubkeyHex(), "event-1", ConditionEnum,
		[]string{"yes", "no"}, 0, 0)
	if err != nil {
		t.Fatalf("RegisterCondition: %v", err)
	}

	yesPartition, err := RegisterPartition(store, condition.ID, "keyset-yes", intPtr(0), "")
	if err != nil {
		t.Fatalf("RegisterPartition(yes): %v", err)
	}
	if _, err := RegisterPartition(store, condition.ID, "keyset-no", intPtr(1), ""); err != nil {
		t.Fatalf("RegisterPartition(no): %v", err)
	}

	attestation := oracle.attestEnum("event-1", "yes")

	req := RedeemRequest{
		ConditionID: condition.ID,
		Attestation: attestation,
		Inputs:      cashu.Proofs{{Amount: 4, Id: "00aabbccdd", Secret: "secret-a", C: "c-a"}},
		InputsYs:    []string{"secret-a"},
		Outputs:     cashu.BlindedMessages{{Amount: 4, B_: "02bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}},
	}

	sigs, err := ProcessRedeemOutcome(context.Background(), store, db, stubSigner{}, req)
	if err != nil {
		t.Fatalf("ProcessRedeemOutcome: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("expected 1 signature, got %d", len(sigs))
	}
	if sigs[0].Id != yesPartition.KeysetID {
		t.Fatalf("expected signature under winning keyset %s, got %s", yesPartition.KeysetID, sigs[0].Id)
	}

	resolved, err := store.GetCondition(condition.ID)
	if err != nil {
		t.Fatalf("GetCondition: %v", err)
	}
	if resolved.Status != ConditionResolved {
		t.Fatalf("expected condition to be resolved after redemption")
	}

	// a second redemption attempt against the same already-spent input
	// must be rejected.
	_, err = ProcessRedeemOutcome(context.Background(), store, db, stubSigner{}, req)
	if err == nil {
		t.Fatal("expected replay redemption against spent input to fail")
	}
}

func TestCTFRedemptionFailsForUnknownCondition(t *testing.T) {
	store := newInMemoryStore()
	db := newFakeDB()

	_, err := ProcessRedeemOutcome(context.Background(), store, db, stubSigner{}, RedeemRequest{
		ConditionID: "does-not-exist",
	})
	if err != ErrConditionNotFound {
		t.Fatalf("expected ErrConditionNotFound, got %v", err)
	}
}

func intPtr(v int) *int { return &v }
