// Package dlc verifies Schnorr-based discreet log contract oracle
// attestations: single-nonce signatures over an enum outcome, and
// digit-decomposed signatures over a numeric outcome.
package dlc

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// ExtractOutcomeIndex verifies a single Schnorr signature attesting to
// one of a fixed set of enum outcomes, and returns that outcome's
// index. The message signed is sha256(eventID + "|" + outcome).
func ExtractOutcomeIndex(oraclePubkeyHex, eventID string, outcomes []string, attestation []byte) (int, error) {
	pubkey, err := parsePubkey(oraclePubkeyHex)
	if err != nil {
		return 0, err
	}
	sig, err := schnorr.ParseSignature(attestation)
	if err != nil {
		return 0, fmt.Errorf("parsing attestation signature: %w", err)
	}

	for i, outcome := range outcomes {
		msg := attestationDigest(eventID, outcome)
		if sig.Verify(msg[:], pubkey) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("attestation does not verify against any of %d outcomes", len(outcomes))
}

// ExtractNumericValue verifies a digit-decomposed attestation: the
// attestation is a concatenation of fixed-size Schnorr signatures, one
// per digit position, each over sha256(eventID || position || digit).
// It returns the first candidate value in [lo, hi] whose digit
// signatures all verify.
func ExtractNumericValue(oraclePubkeyHex, eventID string, lo, hi int64, attestation []byte) (int64, error) {
	pubkey, err := parsePubkey(oraclePubkeyHex)
	if err != nil {
		return 0, err
	}

	const sigLen = 64
	if len(attestation)%sigLen != 0 || len(attestation) == 0 {
		return 0, fmt.Errorf("numeric attestation must be a non-empty multiple of %d bytes, got %d", sigLen, len(attestation))
	}
	numDigits := len(attestation) / sigLen

	for value := lo; value <= hi; value++ {
		if verifyDigitDecomposition(pubkey, eventID, value, numDigits, attestation) {
			return value, nil
		}
	}
	return 0, fmt.Errorf("no value in [%d, %d] matches the attested digit signatures", lo, hi)
}

func verifyDigitDecomposition(pubkey *btcec.PublicKey, eventID string, value int64, numDigits int, attestation []byte) bool {
	digits := decimalDigits(value, numDigits)
	const sigLen = 64
	for i, digit := range digits {
		raw := attestation[i*sigLen : (i+1)*sigLen]
		sig, err := schnorr.ParseSignature(raw)
		if err != nil {
			return false
		}
		msg := digitDigest(eventID, i, digit)
		if !sig.Verify(msg[:], pubkey) {
			return false
		}
	}
	return true
}

func decimalDigits(value int64, n int) []int {
	digits := make([]int, n)
	v := value
	if v < 0 {
		v = -v
	}
	for i := n - 1; i >= 0; i-- {
		digits[i] = int(v % 10)
		v /= 10
	}
	return digits
}

func attestationDigest(eventID, outcome string) [32]byte {
	return sha256.Sum256([]byte(eventID + "|" + outcome))
}

func digitDigest(eventID string, position, digit int) [32]byte {
	buf := make([]byte, 0, len(eventID)+16)
	buf = append(buf, eventID...)
	var posBytes, digitBytes [4]byte
	binary.BigEndian.PutUint32(posBytes[:], uint32(position))
	binary.BigEndian.PutUint32(digitBytes[:], uint32(digit))
	buf = append(buf, posBytes[:]...)
	buf = append(buf, digitBytes[:]...)
	return sha256.Sum256(buf)
}

func parsePubkey(oraclePubkeyHex string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(oraclePubkeyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding oracle pubkey: %w", err)
	}
	pk, err := schnorr.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing oracle pubkey: %w", err)
	}
	return pk, nil
}
