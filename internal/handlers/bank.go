package handlers

import (
	"errors"

	"dailychow/internal/services/transfer"
	"dailychow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type BankHandler struct {
	transferService transfer.Service
}

func NewBankHandler(transferService transfer.Service) *BankHandler {
	return &BankHandler{
		transferService: transferService,
	}
}

func (h *BankHandler) ListBanks(c *fiber.Ctx) error {
	banks, err := h.transferService.ListBanks(c.Context())
	if err != nil {
		if errors.Is(err, transfer.ErrBankListUnavailable) {
			return utils.BadGateway(c, "Bank list unavailable, try again later")
		}
		return utils.InternalError(c, "Failed to list banks")
	}

	return utils.Success(c, fiber.Map{
		"banks": banks,
	})
}

func (h *BankHandler) SetBankAccount(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		AccountNumber string `json:"account_number"`
		BankCode      string `json:"bank_code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	accountName, err := h.transferService.SetBankAccount(c.Context(), claims.UserID, input.AccountNumber, input.BankCode)
	if err != nil {
		switch {
		case errors.Is(err, transfer.ErrInvalidAccountNumber):
			return utils.BadRequest(c, "Account number must be exactly 10 digits")
		case errors.Is(err, transfer.ErrAccountVerification):
			return utils.BadRequest(c, "Could not verify account with the bank")
		default:
			return utils.BadGateway(c, "Failed to verify bank account")
		}
	}

	return utils.Success(c, fiber.Map{
		"account_name": accountName,
		"bank_code":    input.BankCode,
	})
}

func (h *BankHandler) GetBankAccount(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	account, err := h.transferService.GetBankAccount(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, transfer.ErrNoBankAccount) {
			return utils.NotFound(c, "No bank account on file")
		}
		return utils.InternalError(c, "Failed to get bank account")
	}

	return utils.Success(c, fiber.Map{
		"bank_account": account,
	})
}
