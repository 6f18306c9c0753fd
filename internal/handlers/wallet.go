package handlers

import (
	"errors"

	"dailychow/internal/models"
	"dailychow/internal/services/ledger"
	"dailychow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	ledgerService ledger.Service
}

func NewWalletHandler(ledgerService ledger.Service) *WalletHandler {
	return &WalletHandler{
		ledgerService: ledgerService,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	balance, err := h.ledgerService.GetBalance(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get balance")
	}

	return utils.Success(c, fiber.Map{
		"balance":  balance,
		"currency": "NGN",
	})
}

func (h *WalletHandler) SetBudget(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	allowance, err := h.ledgerService.SetBudget(c.Context(), claims.UserID, input.MonthlyBudget)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrBudgetTooLow), errors.Is(err, ledger.ErrBudgetTooHigh):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to set budget")
		}
	}

	return utils.Success(c, fiber.Map{
		"monthly_budget":  input.MonthlyBudget,
		"daily_allowance": allowance,
	})
}

func (h *WalletHandler) GetHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	entries, err := h.ledgerService.GetTransactionHistory(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return utils.InternalError(c, "Failed to get transaction history")
	}

	return utils.Success(c, fiber.Map{
		"transactions": entries,
	})
}
