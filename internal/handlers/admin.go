package handlers

import (
	"errors"

	"dailychow/internal/repositories"
	"dailychow/internal/services/disbursement"
	"dailychow/internal/services/transfer"
	"dailychow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	disbursementService disbursement.Service
	transferService     transfer.Service
	auditRepo           repositories.AuditRepository
}

func NewAdminHandler(
	disbursementService disbursement.Service,
	transferService transfer.Service,
	auditRepo repositories.AuditRepository,
) *AdminHandler {
	return &AdminHandler{
		disbursementService: disbursementService,
		transferService:     transferService,
		auditRepo:           auditRepo,
	}
}

// RunDisbursement triggers the daily allowance run. Safe to call again on
// the same day: already-disbursed users are skipped.
func (h *AdminHandler) RunDisbursement(c *fiber.Ctx) error {
	summary, err := h.disbursementService.Run(c.Context())
	if err != nil {
		return utils.InternalError(c, "Failed to run disbursement")
	}

	return utils.Success(c, fiber.Map{
		"summary": summary,
	})
}

// GetTransferStatus reconciles a single transfer against the provider. Used
// when working a manual-review audit event.
func (h *AdminHandler) GetTransferStatus(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return utils.BadRequest(c, "Missing transfer reference")
	}

	record, err := h.transferService.GetStatus(c.Context(), reference)
	if err != nil {
		if errors.Is(err, transfer.ErrTransferNotFound) {
			return utils.NotFound(c, "Transfer not found")
		}
		return utils.BadGateway(c, "Failed to query transfer status")
	}

	return utils.Success(c, fiber.Map{
		"transfer": record,
	})
}

// GetAuditEvents lists recent audit trail entries, newest first.
func (h *AdminHandler) GetAuditEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	events, err := h.auditRepo.Recent(c.Context(), limit)
	if err != nil {
		return utils.InternalError(c, "Failed to list audit events")
	}

	return utils.Success(c, fiber.Map{
		"events": events,
	})
}
