package handlers

import (
	"errors"

	"dailychow/internal/services/payment"
	"dailychow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentService payment.Service
}

func NewPaymentHandler(paymentService payment.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) InitiateTopUp(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount decimal.Decimal `json:"amount"`
		Email  string          `json:"email"`
		Name   string          `json:"name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	intent, err := h.paymentService.InitiateTopUp(c.Context(), claims.UserID, input.Amount, input.Email, input.Name)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidAmount) {
			return utils.BadRequest(c, "Amount must be greater than 0")
		}
		return utils.BadGateway(c, "Failed to initiate top-up")
	}

	return utils.Success(c, fiber.Map{
		"reference":    intent.Reference,
		"checkout_url": intent.CheckoutURL,
	})
}

func (h *PaymentHandler) VerifyTopUp(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	reference := c.Params("reference")
	if reference == "" {
		return utils.BadRequest(c, "Missing payment reference")
	}

	record, err := h.paymentService.VerifyTopUp(c.Context(), reference)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return utils.NotFound(c, "Payment not found")
		}
		return utils.BadGateway(c, "Failed to verify payment")
	}

	return utils.Success(c, fiber.Map{
		"payment": record,
	})
}
