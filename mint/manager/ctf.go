package manager

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/crypto"
	"github.com/sats-mint/gonuts/mint"
	"github.com/sats-mint/gonuts/mint/ctf"
)

type registerConditionRequest struct {
	OraclePubkey string            `json:"oracle_pubkey"`
	EventId      string            `json:"event_id"`
	Type         ctf.ConditionType `json:"type"`
	Outcomes     []string          `json:"outcomes,omitempty"`
	LoBound      int64             `json:"lo_bound,omitempty"`
	HiBound      int64             `json:"hi_bound,omitempty"`
}

func (s *Server) registerCTFCondition(rw http.ResponseWriter, req *http.Request) {
	var request registerConditionRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte("invalid request body"))
		return
	}

	condition, err := s.mint.RegisterCTFCondition(request.OraclePubkey, request.EventId, request.Type,
		request.Outcomes, request.LoBound, request.HiBound)
	if err != nil {
		writeCTFError(rw, err)
		return
	}

	response, _ := json.Marshal(condition)
	rw.Write(response)
}

type registerPartitionRequest struct {
	ConditionId    string `json:"condition_id"`
	KeysetId       string `json:"keyset_id"`
	WinningOutcome *int   `json:"winning_outcome,omitempty"`
	PayoutCurve    string `json:"payout_curve,omitempty"`
}

func (s *Server) registerCTFPartition(rw http.ResponseWriter, req *http.Request) {
	var request registerPartitionRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte("invalid request body"))
		return
	}

	partition, err := s.mint.RegisterCTFPartition(request.ConditionId, request.KeysetId,
		request.WinningOutcome, request.PayoutCurve)
	if err != nil {
		writeCTFError(rw, err)
		return
	}

	response, _ := json.Marshal(partition)
	rw.Write(response)
}

type redeemCTFRequest struct {
	ConditionId string                `json:"condition_id"`
	Attestation []byte                `json:"attestation"`
	Inputs      cashu.Proofs          `json:"inputs"`
	Outputs     cashu.BlindedMessages `json:"outputs"`
}

func (s *Server) redeemCTFOutcome(rw http.ResponseWriter, req *http.Request) {
	var request redeemCTFRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte("invalid request body"))
		return
	}

	ys := make([]string, len(request.Inputs))
	for i, proof := range request.Inputs {
		Y, err := crypto.HashToCurve([]byte(proof.Secret))
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			rw.Write([]byte("invalid proof secret"))
			return
		}
		ys[i] = hex.EncodeToString(Y.SerializeCompressed())
	}

	redeemReq := ctf.RedeemRequest{
		ConditionID: request.ConditionId,
		Attestation: request.Attestation,
		Inputs:      request.Inputs,
		InputsYs:    ys,
		Outputs:     request.Outputs,
	}

	signatures, err := s.mint.RedeemCTFOutcome(req.Context(), redeemReq)
	if err != nil {
		writeCTFError(rw, err)
		return
	}

	response, _ := json.Marshal(signatures)
	rw.Write(response)
}

func writeCTFError(rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mint.ErrCTFUnavailable):
		rw.WriteHeader(http.StatusServiceUnavailable)
	case errors.Is(err, ctf.ErrConditionNotFound), errors.Is(err, ctf.ErrPartitionNotFound):
		rw.WriteHeader(http.StatusNotFound)
	case errors.Is(err, io.EOF):
		rw.WriteHeader(http.StatusBadRequest)
	default:
		rw.WriteHeader(http.StatusBadRequest)
	}
	rw.Write([]byte(err.Error()))
}
