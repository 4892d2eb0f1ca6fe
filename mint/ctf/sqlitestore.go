package ctf

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLiteStore persists conditions and partitions in the mint's own
// sqlite database, in the `conditions`/`partitions` tables added
// alongside the core proof/quote schema.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) GetCondition(id string) (*StoredCondition, error) {
	row := s.db.QueryRow(`SELECT id, type, oracle_pubkey, event_id, outcomes, lo_bound, hi_bound,
		status, attestation, attested_value FROM conditions WHERE id = ?`, id)

	var c StoredCondition
	var outcomesJSON sql.NullString
	var lo, hi sql.NullInt64
	var attestation []byte
	var attestedValue sql.NullInt64

	err := row.Scan(&c.ID, &c.Type, &c.OraclePubkey, &c.EventID, &outcomesJSON, &lo, &hi,
		&c.Status, &attestation, &attestedValue)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading condition: %w", err)
	}

	if outcomesJSON.Valid {
		if err := json.Unmarshal([]byte(outcomesJSON.String), &c.Outcomes); err != nil {
			return nil, fmt.Errorf("decoding outcomes: %w", err)
		}
	}
	c.LoBound = lo.Int64
	c.HiBound = hi.Int64
	c.Attestation = attestation
	if attestedValue.Valid {
		c.AttestedValue = &attestedValue.Int64
	}

	return &c, nil
}

func (s *SQLiteStore) SaveCondition(c StoredCondition) error {
	outcomesJSON, err := json.Marshal(c.Outcomes)
	if err != nil {
		return fmt.Errorf("encoding outcomes: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO conditions
		(id, type, oracle_pubkey, event_id, outcomes, lo_bound, hi_bound, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Type, c.OraclePubkey, c.EventID, string(outcomesJSON), c.LoBound, c.HiBound, c.Status)
	return err
}

func (s *SQLiteStore) UpdateConditionAttestation(id string, attestation []byte, value int64) error {
	res, err := s.db.Exec(`UPDATE conditions SET status = ?, attestation = ?, attested_value = ? WHERE id = ? AND status = ?`,
		ConditionResolved, attestation, value, id, ConditionOpen)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		// another caller resolved it first: same value is a no-op
		var stored sql.NullInt64
		if err := s.db.QueryRow(`SELECT attested_value FROM conditions WHERE id = ?`, id).Scan(&stored); err != nil {
			return fmt.Errorf("reading condition: %w", err)
		}
		if !stored.Valid || stored.Int64 != value {
			return ErrAlreadyResolved
		}
	}
	return nil
}

func (s *SQLiteStore) GetPartition(id string) (*StoredPartition, error) {
	row := s.db.QueryRow(`SELECT id, condition_id, keyset_id, winning_outcome, payout_curve
		FROM partitions WHERE id = ?`, id)
	return scanPartition(row)
}

func (s *SQLiteStore) ListPartitionsByCondition(conditionID string) ([]StoredPartition, error) {
	rows, err := s.db.Query(`SELECT id, condition_id, keyset_id, winning_outcome, payout_curve
		FROM partitions WHERE condition_id = ?`, conditionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredPartition
	for rows.Next() {
		var p StoredPartition
		var winningOutcome sql.NullInt64
		var payoutCurve sql.NullString
		if err := rows.Scan(&p.ID, &p.ConditionID, &p.KeysetID, &winningOutcome, &payoutCurve); err != nil {
			return nil, err
		}
		if winningOutcome.Valid {
			v := int(winningOutcome.Int64)
			p.WinningOutcome = &v
		}
		p.PayoutCurve = payoutCurve.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SavePartition(p StoredPartition) error {
	_, err := s.db.Exec(`INSERT INTO partitions (id, condition_id, keyset_id, winning_outcome, payout_curve)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ConditionID, p.KeysetID, p.WinningOutcome, p.PayoutCurve)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO conditional_keysets (keyset_id, condition_id, partition_id)
		VALUES (?, ?, ?)`, p.KeysetID, p.ConditionID, p.ID)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPartition(row scannable) (*StoredPartition, error) {
	var p StoredPartition
	var winningOutcome sql.NullInt64
	var payoutCurve sql.NullString

	err := row.Scan(&p.ID, &p.ConditionID, &p.KeysetID, &winningOutcome, &payoutCurve)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading partition: %w", err)
	}
	if winningOutcome.Valid {
		v := int(winningOutcome.Int64)
		p.WinningOutcome = &v
	}
	p.PayoutCurve = payoutCurve.String
	return &p, nil
}
