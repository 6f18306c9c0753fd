package handlers

import (
	"errors"

	"dailychow/internal/services/payment"
	"dailychow/internal/services/transfer"
	"dailychow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	paymentService  payment.Service
	transferService transfer.Service
}

func NewWebhookHandler(paymentService payment.Service, transferService transfer.Service) *WebhookHandler {
	return &WebhookHandler{
		paymentService:  paymentService,
		transferService: transferService,
	}
}

// HandlePaymentWebhook applies a provider charge event. The raw body is
// passed through untouched; the service verifies the signature over it.
func (h *WebhookHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	signature := c.Get("X-Korapay-Signature")
	if signature == "" {
		return utils.Unauthorized(c, "missing signature")
	}

	if err := h.paymentService.HandleWebhook(c.Context(), c.Body(), signature); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return utils.Unauthorized(c, "invalid signature")
		}
		// A non-2xx makes the provider redeliver; settlement is idempotent so
		// redelivery is safe.
		return utils.InternalError(c, "failed to process event")
	}

	return utils.Success(c, fiber.Map{"status": "ok"})
}

// HandleTransferWebhook applies a provider disbursement status event.
func (h *WebhookHandler) HandleTransferWebhook(c *fiber.Ctx) error {
	signature := c.Get("Monnify-Signature")
	if signature == "" {
		return utils.Unauthorized(c, "missing signature")
	}

	if err := h.transferService.HandleWebhook(c.Context(), c.Body(), signature); err != nil {
		if errors.Is(err, transfer.ErrInvalidSignature) {
			return utils.Unauthorized(c, "invalid signature")
		}
		return utils.InternalError(c, "failed to process event")
	}

	return utils.Success(c, fiber.Map{"status": "ok"})
}
