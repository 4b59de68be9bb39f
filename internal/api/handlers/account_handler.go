package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	var ac transfer.AccountConnect
	if err := c.BodyParser(&ac); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	accountID, err := h.s.Connect(c.Context(), &ac)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account connected successfully",
		"id":      accountID,
	})
}

func (h *AccountHandler) DisconnectAccount(c *fiber.Ctx) error {
	slot := c.Query("account_slot")
	if slot == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "account_slot is required",
		})
	}

	if err := h.s.Disconnect(c.Context(), slot); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to disconnect account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
