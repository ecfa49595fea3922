package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lightlink-network/zk-bridge-api/database"
	"github.com/lightlink-network/zk-bridge-api/database/models"
	"github.com/lightlink-network/zk-bridge-api/types"
)

type withdrawalRequest struct {
	TxHash       string `json:"txHash"`
	MessageIndex int    `json:"messageIndex"`
}

// handleWithdrawalGet returns one withdrawal with its proof and finalization,
// which is everything needed to finalize it on L1.
func (s *Server) handleWithdrawalGet(w http.ResponseWriter, r *http.Request) {
	hash, err := parseHash(chi.URLParam(r, "hash"))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	index := 0
	if raw := r.URL.Query().Get("index"); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil || index < 0 {
			ERROR(w, http.StatusBadRequest, errors.New("invalid message index"))
			return
		}
	}

	tx, err := s.store.GetWithdrawal(r.Context(), hash, index)
	if err != nil {
		if database.IsNotFound(err) {
			ERROR(w, http.StatusNotFound, errors.New("withdrawal not found"))
			return
		}
		s.log.Error("failed to get withdrawal", "hash", hash, "index", index, "error", err)
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, tx)
}

// handleWithdrawalPost starts tracking one message of an L2 withdrawal.
func (s *Server) handleWithdrawalPost(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	hash, err := parseHash(req.TxHash)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	if req.MessageIndex < 0 {
		ERROR(w, http.StatusBadRequest, errors.New("invalid message index"))
		return
	}

	tx := models.Transaction{
		Type:         models.TypeWithdrawal,
		TxHash:       hash,
		MessageIndex: req.MessageIndex,
		Status:       string(types.WithdrawalInitiated),
	}
	s.register(w, r, tx, func() (*models.Transaction, error) {
		return s.store.GetWithdrawal(r.Context(), hash, req.MessageIndex)
	})
}
