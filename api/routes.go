package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sets up chi router, middlewares and defines all api endpoints
func (s *Server) routes() {
	s.r = chi.NewRouter()

	// Basic CORS
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// Injects a request ID into the context of each request
	s.r.Use(middleware.RequestID)
	// Sets a http.Request's RemoteAddr to either X-Real-IP or X-Forwarded-For
	s.r.Use(middleware.RealIP)
	// Logs the start and end of each request with the elapsed processing time
	s.r.Use(middleware.Logger)
	// Gracefully absorb panics and prints the stack trace
	s.r.Use(middleware.Recoverer)
	// Sets HTTP response headers as content type JSON
	s.r.Use(middleware.SetHeader("Content-Type", "application/json"))
	s.r.Use(middleware.Timeout(60 * time.Second))

	s.r.Route("/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, http.StatusOK, map[string]interface{}{"health_status": "online"})
		})

		// transactions
		r.Get("/transactions", s.handleTransactionsGet)
		r.Get("/transactions/{hash}", s.handleTransactionGet)

		// registration of transactions sent elsewhere
		r.Post("/deposits", s.handleDepositPost)
		r.Post("/withdrawals", s.handleWithdrawalPost)
		r.Get("/withdrawals/{hash}", s.handleWithdrawalGet)
	})

	if s.opts.Gatherer != nil {
		s.r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
}
