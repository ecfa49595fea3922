package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lightlink-network/zk-bridge-api/database/models"
	"github.com/lightlink-network/zk-bridge-api/types"
)

type depositRequest struct {
	TxHash string `json:"txHash"`
}

// handleDepositPost starts tracking a deposit from the hash of its L1
// transaction, before the indexer reaches its block.
func (s *Server) handleDepositPost(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	hash, err := parseHash(req.TxHash)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	tx := models.Transaction{
		Type:   models.TypeDeposit,
		TxHash: hash,
		Status: string(types.DepositSubmitted),
	}
	s.register(w, r, tx, func() (*models.Transaction, error) {
		return s.store.GetTransactionByHash(r.Context(), hash)
	})
}

// register stores tx and answers 201 with it, or 200 with the stored
// transaction when it was already tracked.
func (s *Server) register(w http.ResponseWriter, r *http.Request, tx models.Transaction, existing func() (*models.Transaction, error)) {
	created, err := s.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.log.Error("failed to register transaction", "type", tx.Type, "hash", tx.TxHash, "error", err)
		ERROR(w, http.StatusInternalServerError, err)
		return
	}
	if created {
		s.log.Info("transaction registered", "type", tx.Type, "hash", tx.TxHash, "messageIndex", tx.MessageIndex)
		JSON(w, http.StatusCreated, tx)
		return
	}

	stored, err := existing()
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}
	JSON(w, http.StatusOK, stored)
}
