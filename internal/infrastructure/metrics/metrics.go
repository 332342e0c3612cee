package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Ledger metrics
	JournalEntriesCreated *prometheus.CounterVec

	// Invoice metrics
	InvoicesCreated   prometheus.Counter
	InvoicesFinalized prometheus.Counter
	InvoicesCanceled  prometheus.Counter

	// Payment metrics
	PaymentsProcessed *prometheus.CounterVec
	PaymentAmount     prometheus.Histogram

	// Refund metrics
	RefundsRequested prometheus.Counter
	RefundsIssued    prometheus.Counter
	RefundsCompleted prometheus.Counter
	RefundsStalled   prometheus.Gauge

	// Notification metrics
	MailQueued prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		JournalEntriesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_journal_entries_created_total",
			Help: "Total number of journal entries created",
		}, []string{"state"}),
		InvoicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_invoices_created_total",
			Help: "Total number of invoices created",
		}),
		InvoicesFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_invoices_finalized_total",
			Help: "Total number of invoices finalized",
		}),
		InvoicesCanceled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_invoices_canceled_total",
			Help: "Total number of invoices canceled",
		}),
		PaymentsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_payments_processed_total",
			Help: "Payment matching attempts by result code",
		}, []string{"result"}),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fincore_payment_amount",
			Help:    "Matched payment amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		}),
		RefundsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_refunds_requested_total",
			Help: "Total number of refunds requested",
		}),
		RefundsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_refunds_issued_total",
			Help: "Total number of refunds issued to providers",
		}),
		RefundsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_refunds_completed_total",
			Help: "Total number of provider-confirmed refunds",
		}),
		RefundsStalled: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fincore_refunds_stalled",
			Help: "Refunds issued but unconfirmed past the grace window",
		}),
		MailQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fincore_mail_queued_total",
			Help: "Total number of notifications queued",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fincore_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fincore_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
