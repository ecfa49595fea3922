package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lightlink-network/zk-bridge-api/database"
	"github.com/lightlink-network/zk-bridge-api/database/models"
)

// Store is what the API reads and registers transactions through.
type Store interface {
	GetTransactions(ctx context.Context, filter models.Filter, page int64, pageSize int64) (*models.PaginatedResult, error)
	GetTransactionByHash(ctx context.Context, hash string) (*models.Transaction, error)
	GetWithdrawal(ctx context.Context, txHash string, messageIndex int) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, tx models.Transaction) (bool, error)
}

var _ Store = &database.Database{}

// API server
type Server struct {
	r     chi.Router
	log   *slog.Logger
	store Store
	opts  ServerOpts
}

type ServerOpts struct {
	Logger   *slog.Logger
	Store    Store
	Gatherer prometheus.Gatherer // served on /metrics when set
	Port     string
}

// Create API server
func NewServer(opts ServerOpts) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api server needs a store")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		log:   opts.Logger,
		store: opts.Store,
		opts:  opts,
	}
	s.routes()

	return s, nil
}

// Start serves HTTP until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.opts.Port,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("📡 Server Started. API Server is now listening on http://localhost:" + s.opts.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Turns server into http server
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Returns JSON response to the API user. HTTP status code
// and data must be provided
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}

// Returns ann error to the API user
func ERROR(w http.ResponseWriter, statusCode int, err error) {
	w.WriteHeader(statusCode)
	err = json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}
