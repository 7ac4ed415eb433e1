package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"parcel-booking/internal/domain/payment"
	resdto "parcel-booking/internal/handler/dto/response"
	"parcel-booking/internal/handler/httperr"
	"parcel-booking/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const (
	maxWebhookBody = 64 << 10

	OutcomePaid           = "paid"
	OutcomeFailed         = "failed"
	OutcomePending        = "pending"
	OutcomeIgnored        = "ignored"
	OutcomeInvalidPayload = "invalid_payload"
	OutcomeRejected       = "rejected"
	OutcomeError          = "error"
)

var errMissingReference = errors.New("merchantRefId is required")

// WebhookReader authenticates a raw provider delivery and decodes it into a gateway-neutral event.
type WebhookReader interface {
	VerifyWebhook(header http.Header, body []byte) error
	ParseWebhook(body []byte) (payment.WebhookEvent, error)
}

// SkipSignature keeps the provider's payload format but accepts unsigned deliveries.
// Every event is still re-verified against the gateway before anything changes.
func SkipSignature(r WebhookReader) WebhookReader {
	return unsignedReader{WebhookReader: r}
}

type unsignedReader struct {
	WebhookReader
}

func (unsignedReader) VerifyWebhook(http.Header, []byte) error { return nil }

type PaymentHandler struct {
	reconcile commands.ReconciliationCommands
	webhooks  WebhookReader
}

func NewPaymentHandler(reconcile commands.ReconciliationCommands, webhooks WebhookReader) *PaymentHandler {
	return &PaymentHandler{reconcile: reconcile, webhooks: webhooks}
}

// @Summary Payment gateway webhook
// @Description Receives gateway notifications. The payload is only a hint: the status is re-queried from the gateway before anything changes. Always answers 200.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body object true "Provider webhook payload (Cashfree PG or Razorpay payment link)"
// @Success 200 {object} resdto.WebhookResponse
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.webhookReply(c, OutcomeInvalidPayload, err)
		return
	}
	if err := h.webhooks.VerifyWebhook(c.Request.Header, body); err != nil {
		slog.Warn("webhook signature rejected", "error", err.Error())
		h.webhookReply(c, OutcomeRejected, err)
		return
	}

	ev, err := h.webhooks.ParseWebhook(body)
	if errors.Is(err, payment.ErrIgnoredEvent) {
		slog.Debug("webhook event ignored", "reason", err.Error())
		h.webhookReply(c, OutcomeIgnored, nil)
		return
	}
	if err != nil {
		slog.Warn("webhook payload rejected", "error", err.Error())
		h.webhookReply(c, OutcomeInvalidPayload, err)
		return
	}

	result, err := h.reconcile.HandleWebhook(c.Request.Context(), ev)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, commands.ErrInvalidPayload) {
			outcome = OutcomeInvalidPayload
		}
		slog.Warn("webhook not applied",
			"merchant_ref", ev.MerchantReferenceID,
			"outcome", outcome,
			"error", err.Error())
		h.webhookReply(c, outcome, err)
		return
	}
	h.webhookReply(c, outcomeOf(result), nil)
}

// @Summary Payment success redirect
// @Description The user's browser returns here from the hosted page. The payment is verified with the gateway before any booking is created.
// @Tags payments
// @Produce json
// @Param merchantRefId query string true "Merchant reference"
// @Success 200 {object} resdto.ConfirmResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Failure 504 {object} httperr.Response
// @Router /payments/success [get]
func (h *PaymentHandler) Success(c *gin.Context) {
	h.confirm(c)
}

// @Summary Payment failure redirect
// @Description Same as the success redirect: the verified gateway status decides the outcome, not the route.
// @Tags payments
// @Produce json
// @Param merchantRefId query string true "Merchant reference"
// @Success 200 {object} resdto.ConfirmResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Failure 504 {object} httperr.Response
// @Router /payments/failed [get]
func (h *PaymentHandler) Failed(c *gin.Context) {
	h.confirm(c)
}

func (h *PaymentHandler) confirm(c *gin.Context) {
	ref := c.Query("merchantRefId")
	if ref == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errMissingReference, "merchantRefId is required", nil)
		return
	}

	result, err := h.reconcile.ConfirmRedirect(c.Request.Context(), ref)
	if err != nil {
		status, msg := confirmErrorStatus(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromConfirmResult(result))
}

func confirmErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, commands.ErrInvalidReference):
		return http.StatusBadRequest, "Invalid merchant reference"
	case errors.Is(err, commands.ErrStagedRecordNotFound), errors.Is(err, commands.ErrBookingNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, commands.ErrAmountMismatch):
		return http.StatusConflict, "Paid amount does not match the booking fare"
	case errors.Is(err, commands.ErrInvalidTransition):
		return http.StatusConflict, "Booking cannot be marked paid"
	case errors.Is(err, commands.ErrVerificationUnavailable):
		return http.StatusBadGateway, "Payment status could not be verified"
	case errors.Is(err, commands.ErrVerificationTimeout):
		return http.StatusGatewayTimeout, "Payment verification timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func outcomeOf(r *commands.ConfirmResult) string {
	switch {
	case r.BookingID != nil:
		return OutcomePaid
	case r.Status == payment.TxnFailed:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

func (h *PaymentHandler) webhookReply(c *gin.Context, outcome string, err error) {
	resp := resdto.WebhookResponse{Success: err == nil, Outcome: outcome}
	if err != nil {
		resp.Error = publicWebhookError(outcome)
	}
	c.JSON(http.StatusOK, resp)
}

func publicWebhookError(outcome string) string {
	switch outcome {
	case OutcomeInvalidPayload:
		return "invalid payload"
	case OutcomeRejected:
		return "signature verification failed"
	default:
		return "webhook could not be processed"
	}
}
