// Package ctf implements NUT-CTF conditional tokens: oracle-attested
// enum and numeric conditions, the partitions (winning collections /
// payout curves) that define how a condition's outcome maps to payout
// keysets, and outcome redemption.
package ctf

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const MaxPageSize = 100

type ConditionStatus string

const (
	ConditionOpen     ConditionStatus = "OPEN"
	ConditionResolved ConditionStatus = "RESOLVED"
)

// ConditionType distinguishes a discrete-outcome (enum) condition from a
// numeric condition whose outcome is an attested integer in [lo, hi].
type ConditionType string

const (
	ConditionEnum    ConditionType = "enum"
	ConditionNumeric ConditionType = "numeric"
)

// StoredCondition is the persisted representation of a registered
// oracle-backed condition.
type StoredCondition struct {
	ID            string
	Type          ConditionType
	OraclePubkey  string
	EventID       string
	Outcomes      []string // enum only
	LoBound       int64    // numeric only
	HiBound       int64    // numeric only
	Status        ConditionStatus
	Attestation   []byte // raw oracle attestation, set once resolved
	AttestedValue *int64 // decoded outcome index (enum) or value (numeric)
}

// StoredPartition assigns a keyset to one winning collection (enum) or
// one payout curve (numeric) of a condition.
type StoredPartition struct {
	ID             string
	ConditionID    string
	KeysetID       string
	WinningOutcome *int   // enum: index into StoredCondition.Outcomes this keyset pays on
	PayoutCurve    string // numeric: one of "long", "short", identifying which side of the range pays
}

var (
	ErrConditionExists      = fmt.Errorf("condition already registered with different parameters")
	ErrConditionNotFound    = fmt.Errorf("condition not found")
	ErrPartitionNotFound    = fmt.Errorf("partition not found")
	ErrConditionNotResolved = fmt.Errorf("condition has not been resolved")
	ErrAlreadyResolved      = fmt.Errorf("condition already resolved")
	ErrInvalidBounds        = fmt.Errorf("numeric condition bounds are invalid")
	ErrInvalidOutcomes      = fmt.Errorf("enum condition must list at least two outcomes")
)

// computeConditionID derives a stable identifier from a condition's
// immutable parameters, so registering the same announcement twice is a
// no-op and registering conflicting parameters under the same id fails
// loudly rather than silently overwriting state.
func computeConditionID(oraclePubkey, eventID string, ctype ConditionType, outcomes []string, lo, hi int64) string {
	h := sha256.New()
	h.Write([]byte(oraclePubkey))
	h.Write([]byte(eventID))
	h.Write([]byte(ctype))
	switch ctype {
	case ConditionEnum:
		enc, _ := json.Marshal(outcomes)
		h.Write(enc)
	case ConditionNumeric:
		fmt.Fprintf(h, "%d:%d", lo, hi)
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Store is the persistence seam for conditions and partitions. The
// core mint wires this to its SQL backend; tests can use an in-memory
// implementation.
type Store interface {
	GetCondition(id string) (*StoredCondition, error)
	SaveCondition(StoredCondition) error
	UpdateConditionAttestation(id string, attestation []byte, value int64) error

	GetPartition(id string) (*StoredPartition, error)
	ListPartitionsByCondition(conditionID string) ([]StoredPartition, error)
	SavePartition(StoredPartition) error
}

// RegisterCondition registers an oracle announcement as a new
// condition, or returns the existing one if the same parameters were
// already registered. Conflicting parameters under a derived id that
// already exists is an error: the id is a content hash, so a conflict
// means the caller passed a genuinely different announcement that
// happens to collide, which should never occur with a real
// collision-resistant hash and is treated as a registration bug.
func RegisterCondition(store Store, oraclePubkey, eventID string, ctype ConditionType, outcomes []string, lo, hi int64) (*StoredCondition, error) {
	switch ctype {
	case ConditionEnum:
		if len(outcomes) < 2 {
			return nil, ErrInvalidOutcomes
		}
	case ConditionNumeric:
		if hi <= lo {
			return nil, ErrInvalidBounds
		}
	default:
		return nil, fmt.Errorf("unknown condition type %q", ctype)
	}

	id := computeConditionID(oraclePubkey, eventID, ctype, outcomes, lo, hi)

	if existing, err := store.GetCondition(id); err == nil && existing != nil {
		if existing.OraclePubkey != oraclePubkey || existing.EventID != eventID {
			return nil, ErrConditionExists
		}
		return existing, nil
	}

	condition := StoredCondition{
		ID:           id,
		Type:         ctype,
		OraclePubkey: oraclePubkey,
		EventID:      eventID,
		Outcomes:     outcomes,
		LoBound:      lo,
		HiBound:      hi,
		Status:       ConditionOpen,
	}
	if err := store.SaveCondition(condition); err != nil {
		return nil, fmt.Errorf("saving condition: %w", err)
	}
	return &condition, nil
}

// RegisterPartition attaches a payout keyset to one side of a
// condition's outcome space.
func RegisterPartition(store Store, conditionID, keysetID string, winningOutcome *int, payoutCurve string) (*StoredPartition, error) {
	condition, err := store.GetCondition(conditionID)
	if err != nil || condition == nil {
		return nil, ErrConditionNotFound
	}

	switch condition.Type {
	case ConditionEnum:
		if winningOutcome == nil || *winningOutcome < 0 || *winningOutcome >= len(condition.Outcomes) {
			return nil, fmt.Errorf("winning outcome index out of range for condition %s", conditionID)
		}
	case ConditionNumeric:
		if payoutCurve != "long" && payoutCurve != "short" {
			return nil, fmt.Errorf("payout curve must be \"long\" or \"short\" for numeric condition %s", conditionID)
		}
	}

	partitionHash := sha256.Sum256([]byte(conditionID + keysetID))
	partitionID := hex.EncodeToString(partitionHash[:])[:32]
	partition := StoredPartition{
		ID:             partitionID,
		ConditionID:    conditionID,
		KeysetID:       keysetID,
		WinningOutcome: winningOutcome,
		PayoutCurve:    payoutCurve,
	}
	if err := store.SavePartition(partition); err != nil {
		return nil, fmt.Errorf("saving partition: %w", err)
	}
	return &partition, nil
}
