package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/lightlink-network/zk-bridge-api/database"
	"github.com/lightlink-network/zk-bridge-api/database/models"
)

const maxPageSize = 100

var (
	errInvalidHash    = errors.New("invalid transaction hash")
	errInvalidAddress = errors.New("invalid address")
)

// parseHash checks that s is a 32 byte hex hash and returns it in the form
// the indexer stores.
func parseHash(s string) (string, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return "", errInvalidHash
	}
	return common.BytesToHash(b).Hex(), nil
}

// parseAddress returns s checksummed, the form the indexer stores. An empty s
// stays empty.
func parseAddress(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if !common.IsHexAddress(s) {
		return "", errInvalidAddress
	}
	return common.HexToAddress(s).Hex(), nil
}

func (s *Server) handleTransactionsGet(w http.ResponseWriter, r *http.Request) {
	// Get query parameters
	page, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.ParseInt(r.URL.Query().Get("pageSize"), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	pageSize = min(pageSize, maxPageSize)

	// Build filter from query parameters
	filter := models.Filter{
		Status: r.URL.Query().Get("status"),
		From:   r.URL.Query().Get("from"),
		To:     r.URL.Query().Get("to"),
		TxHash: r.URL.Query().Get("txHash"),
		Type:   r.URL.Query().Get("type"),
	}
	if filter.From, err = parseAddress(filter.From); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	if filter.To, err = parseAddress(filter.To); err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	if filter.TxHash != "" {
		hash, err := parseHash(filter.TxHash)
		if err != nil {
			ERROR(w, http.StatusBadRequest, err)
			return
		}
		filter.TxHash = hash
	}

	result, err := s.store.GetTransactions(r.Context(), filter, page, pageSize)
	if err != nil {
		s.log.Error("failed to get transactions", "error", err)
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, result)
}

func (s *Server) handleTransactionGet(w http.ResponseWriter, r *http.Request) {
	hash, err := parseHash(chi.URLParam(r, "hash"))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	tx, err := s.store.GetTransactionByHash(r.Context(), hash)
	if err != nil {
		if database.IsNotFound(err) {
			ERROR(w, http.StatusNotFound, errors.New("transaction not found"))
			return
		}
		s.log.Error("failed to get transaction", "hash", hash, "error", err)
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, tx)
}
