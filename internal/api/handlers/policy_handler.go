package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type PolicyHandler struct {
	s  service.PolicyService
	cr repository.PolicyConfigRepository
}

func NewPolicyHandler(service service.PolicyService, cr repository.PolicyConfigRepository) *PolicyHandler {
	return &PolicyHandler{s: service, cr: cr}
}

func (h *PolicyHandler) GetPolicy(c *fiber.Ctx) error {
	slot := c.Query("account_slot")
	if slot == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "account_slot is required",
		})
	}

	cfg, err := h.cr.GetBySlot(c.Context(), slot)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to find policy for given slot",
		})
	}
	if cfg == nil {
		cfg = models.DefaultPolicyConfig(slot)
	}

	return c.JSON(cfg)
}

func (h *PolicyHandler) UpdatePolicy(c *fiber.Ctx) error {
	var policy transfer.PolicyUpdate
	if err := c.BodyParser(&policy); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if policy.AccountSlot == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "account_slot is required",
		})
	}

	err := h.cr.Upsert(c.Context(), &models.PolicyConfig{
		AccountSlot:        policy.AccountSlot,
		MaxPostsPerDay:     policy.MaxPostsPerDay,
		MaxRepliesPerHour:  policy.MaxRepliesPerHour,
		MaxDmsPerDay:       policy.MaxDmsPerDay,
		MaxLikesPerHour:    policy.MaxLikesPerHour,
		AllowedWindowStart: policy.AllowedWindowStart,
		AllowedWindowEnd:   policy.AllowedWindowEnd,
		Timezone:           policy.Timezone,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to update policy",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// CheckPolicy is a read-only dry check so a client can ask "would this be
// allowed right now" without creating anything.
func (h *PolicyHandler) CheckPolicy(c *fiber.Ctx) error {
	slot := c.Query("account_slot")
	actionType := c.Query("action_type")
	if slot == "" || actionType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "account_slot and action_type are required",
		})
	}

	decision, err := h.s.CheckPolicy(c.Context(), &service.PolicyCheck{
		AccountSlot: slot,
		ActionType:  actionType,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(decision)
}
