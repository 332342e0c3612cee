package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/eventfin/fincore/internal/adapter/http/dto"
	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/provider"
	"github.com/eventfin/fincore/internal/usecase"
)

// WebhookSignatureHeader carries the provider's payload signature.
const WebhookSignatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 1 << 20 // 1 MiB

// SettlementProcessor matches inbound settlements against invoices.
type SettlementProcessor interface {
	ProcessPaymentForInvoice(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error)
}

// RefundCompleter stamps provider-confirmed refunds.
type RefundCompleter interface {
	CompleteRefund(ctx context.Context, input usecase.CompleteRefundInput) error
}

// WebhookHandler receives settlement and refund confirmations from
// payment providers. Deliveries are authenticated against the provider's
// signature scheme and deduplicated by event id, because providers
// redeliver until they see a 2xx.
type WebhookHandler struct {
	paymentUC   SettlementProcessor
	refundUC    RefundCompleter
	providers   usecase.ProviderResolver
	idempotency usecase.IdempotencyStore
	ttl         time.Duration
	logger      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(
	paymentUC SettlementProcessor,
	refundUC RefundCompleter,
	providers usecase.ProviderResolver,
	idempotency usecase.IdempotencyStore,
	ttl time.Duration,
	logger zerolog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		paymentUC:   paymentUC,
		refundUC:    refundUC,
		providers:   providers,
		idempotency: idempotency,
		ttl:         ttl,
		logger:      logger,
	}
}

// Receive handles POST /p/{provider}/webhook.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")

	wrap, ok := h.providers.Resolve(name)
	if !ok || !wrap.OK {
		writeError(w, http.StatusNotFound, "unknown payment provider", name)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}

	if validator, ok := wrap.Provider.(provider.WebhookValidator); ok {
		signature := r.Header.Get(WebhookSignatureHeader)
		if err := validator.ValidateWebhookSignature(body, signature); err != nil {
			h.logger.Warn().Str("provider", name).Err(err).Msg("webhook signature rejected")
			writeError(w, http.StatusUnauthorized, "invalid signature", "")

			return
		}
	}

	var req dto.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.EventID == "" {
		writeError(w, http.StatusBadRequest, "missing event_id", "")
		return
	}

	// Dedup redeliveries: the first delivery reserves the key, later
	// ones replay the stored response.
	key := fmt.Sprintf("%s:%s", name, req.EventID)
	exists, cached, err := h.idempotency.CheckAndSet(r.Context(), key, nil, h.ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "idempotency check failed", err.Error())
		return
	}
	if exists && cached != nil && string(cached) != "processing" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Idempotency-Replay", "true")
		w.Write(cached)

		return
	}

	status, response := h.dispatch(r, name, wrap, req)

	if status >= 200 && status < 300 {
		if payload, err := json.Marshal(response); err == nil {
			h.idempotency.Update(r.Context(), key, payload, h.ttl)
		}
	}

	writeJSON(w, status, response)
}

func (h *WebhookHandler) dispatch(r *http.Request, name string, wrap provider.Wrapper, req dto.WebhookRequest) (int, any) {
	switch req.Event {
	case dto.WebhookEventPaymentSettled:
		return h.handleSettlement(r, name, wrap, req)
	case dto.WebhookEventRefundCompleted:
		return h.handleRefundCompletion(r, name, wrap, req)
	default:
		return http.StatusBadRequest, dto.ErrorResponse{Error: "unknown event type", Message: req.Event}
	}
}

func (h *WebhookHandler) handleSettlement(r *http.Request, name string, wrap provider.Wrapper, req dto.WebhookRequest) (int, any) {
	details := req.Details
	if details == "" {
		details = fmt.Sprintf("%s:%s", name, req.EventID)
	}

	input := usecase.ProcessPaymentInput{
		InvoiceID:    req.InvoiceID,
		Amount:       req.Amount,
		TransDetails: details,
		TransCost:    req.Fee,
		ExtraURLs:    req.URLs,
		Method:       name,
	}

	if acc, ok := wrap.Provider.(provider.Accounted); ok {
		input.IncomeAccount = acc.IncomeAccount()
		input.CostAccount = acc.FeeAccount()
	}

	result, err := h.paymentUC.ProcessPaymentForInvoice(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		return status, dto.ErrorResponse{Error: "failed to process settlement", Message: err.Error()}
	}

	// Mismatches are reported to the provider as 200 with the result
	// code; a non-2xx would only cause pointless redeliveries of a
	// settlement that will never match.
	return http.StatusOK, dto.PaymentResultResponse{Result: result.String()}
}

func (h *WebhookHandler) handleRefundCompletion(r *http.Request, name string, wrap provider.Wrapper, req dto.WebhookRequest) (int, any) {
	input := usecase.CompleteRefundInput{
		RefundID:  req.RefundID,
		Fee:       req.Fee,
		ExtraURLs: req.URLs,
		Method:    name,
	}

	if acc, ok := wrap.Provider.(provider.Accounted); ok {
		input.IncomeAccount = acc.IncomeAccount()
		input.FeeAccount = acc.FeeAccount()
	}

	if err := h.refundUC.CompleteRefund(r.Context(), input); err != nil {
		status := mapDomainError(err)
		return status, dto.ErrorResponse{Error: "failed to complete refund", Message: err.Error()}
	}

	return http.StatusOK, dto.PaymentResultResponse{Result: domain.PaymentOK.String()}
}
