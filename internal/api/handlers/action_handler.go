package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type ActionHandler struct {
	s service.ActionService
}

func NewActionHandler(service service.ActionService) *ActionHandler {
	return &ActionHandler{s: service}
}

func (h *ActionHandler) CreateAction(c *fiber.Ctx) error {
	var ac transfer.ActionCreation
	if err := c.BodyParser(&ac); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	actionID, err := h.s.CreateAction(c.Context(), &ac)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Action scheduled successfully",
		"id":      actionID,
	})
}

func (h *ActionHandler) ListActions(c *fiber.Ctx) error {
	actions, err := h.s.List(c.Context(), c.Query("account_slot"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list actions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(actions)
}

func (h *ActionHandler) CancelAction(c *fiber.Ctx) error {
	actionID := c.QueryInt("id", 0)

	err := h.s.Cancel(c.Context(), int64(actionID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
