package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventfin/fincore/internal/adapter/http/handler"
	"github.com/eventfin/fincore/internal/adapter/http/middleware"
	"github.com/eventfin/fincore/internal/infrastructure/auth"
	"github.com/eventfin/fincore/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	InvoiceHandler   *handler.InvoiceHandler
	LedgerHandler    *handler.LedgerHandler
	RefundHandler    *handler.RefundHandler
	BankTxHandler    *handler.BankTransactionHandler
	WebhookHandler   *handler.WebhookHandler
	JobsHandler      *handler.JobsHandler
	HealthHandler    *handler.HealthHandler
	LoggingHandler   *middleware.LoggingMiddleware
	IdempotencyStore usecase.IdempotencyStore
	JWTManager       *auth.JWTManager // nil disables authentication
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.LoggingHandler != nil {
		r.Use(cfg.LoggingHandler.Wrap)
	}
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Provider webhooks authenticate via payload signatures, not JWT.
	r.Post("/p/{provider}/webhook", cfg.WebhookHandler.Receive)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Invoices
		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", cfg.InvoiceHandler.Create)
			r.Get("/", cfg.InvoiceHandler.List)
			r.Get("/{id}", cfg.InvoiceHandler.Get)
			r.Delete("/{id}", cfg.InvoiceHandler.Delete)
			r.Post("/{id}/finalize", cfg.InvoiceHandler.Finalize)
			r.Post("/{id}/cancel", cfg.InvoiceHandler.Cancel)
			r.Post("/{id}/extend", cfg.InvoiceHandler.Extend)
			r.Get("/{id}/methods", cfg.InvoiceHandler.Methods)
			r.Get("/{id}/pdf", cfg.InvoiceHandler.InvoicePDF)
			r.Get("/{id}/receipt", cfg.InvoiceHandler.ReceiptPDF)
			r.Get("/{id}/refunds", cfg.RefundHandler.ListByInvoice)
		})

		// Refunds
		r.Route("/refunds", func(r chi.Router) {
			r.Post("/", cfg.RefundHandler.Request)
			r.Get("/{id}", cfg.RefundHandler.Get)
		})

		// Parked bank statement rows
		r.Route("/banktransactions", func(r chi.Router) {
			r.Get("/", cfg.BankTxHandler.List)
			r.Post("/statement", cfg.BankTxHandler.Statement)
			r.Get("/{id}", cfg.BankTxHandler.Get)
			r.Post("/{id}/match", cfg.BankTxHandler.Match)
			r.Delete("/{id}", cfg.BankTxHandler.Discard)
		})

		// Ledger: raw journal access is admin territory.
		r.Route("/ledger", func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.RequireAdmin)
			}
			r.Post("/entries", cfg.LedgerHandler.CreateEntry)
			r.Post("/entries/{id}/close", cfg.LedgerHandler.CloseEntry)
			r.Get("/accounts/{number}/balance", cfg.LedgerHandler.Balance)
			r.Get("/consistency", cfg.LedgerHandler.Consistency)
		})

		// Scheduled maintenance jobs
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/cancel-expired", cfg.JobsHandler.CancelExpired)
			r.Post("/send-reminders", cfg.JobsHandler.SendReminders)
			r.Post("/process-refunds", cfg.JobsHandler.ProcessRefunds)
			r.Post("/flag-stalled", cfg.JobsHandler.FlagStalled)
			r.Post("/pending-reminders", cfg.JobsHandler.PendingReminders)
		})
	})

	return r
}
