package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/postpilothq/postpilot/internal/queue"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type CampaignHandler struct {
	s           service.CampaignService
	AsynqClient *asynq.Client
}

func NewCampaignHandler(service service.CampaignService, asynqClient *asynq.Client) *CampaignHandler {
	return &CampaignHandler{s: service, AsynqClient: asynqClient}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var cc transfer.CampaignCreation
	if err := c.BodyParser(&cc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	campaignID, err := h.s.CreateCampaign(c.Context(), &cc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Campaign created successfully",
		"id":      campaignID,
	})
}

func (h *CampaignHandler) CreateTask(c *fiber.Ctx) error {
	var tc transfer.TaskCreation
	if err := c.BodyParser(&tc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	taskID, err := h.s.CreateTask(c.Context(), &tc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Task created successfully",
		"id":      taskID,
	})
}

type executeRequest struct {
	MaxTasks  int      `json:"max_tasks"`
	OnlyTypes []string `json:"only_types"`
	Until     string   `json:"until"`
	DryRun    bool     `json:"dry_run"`
	Actor     string   `json:"actor"`
}

// ExecuteCampaign hands the batch to the queue; execution happens out of
// band and results land on campaign_tasks and agent_runs.
func (h *CampaignHandler) ExecuteCampaign(c *fiber.Ctx) error {
	campaignID := c.QueryInt("id", 0)
	if campaignID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "campaign id is required",
		})
	}

	var req executeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse json",
			})
		}
	}

	var until time.Time
	if req.Until != "" {
		parsed, err := time.Parse("2006-01-02T15:04", req.Until)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid until format",
			})
		}
		until = parsed
	}

	err := queue.EnqueueExecuteCampaign(h.AsynqClient, queue.ExecuteCampaignPayload{
		CampaignID: int64(campaignID),
		MaxTasks:   req.MaxTasks,
		OnlyTypes:  req.OnlyTypes,
		Until:      until,
		DryRun:     req.DryRun,
		Actor:      req.Actor,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error enqueueing campaign execution",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Campaign execution enqueued",
	})
}

func (h *CampaignHandler) ExecuteTask(c *fiber.Ctx) error {
	taskID := c.QueryInt("id", 0)
	if taskID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "task id is required",
		})
	}

	var req executeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse json",
			})
		}
	}

	err := queue.EnqueueExecuteTask(h.AsynqClient, queue.ExecuteTaskPayload{
		TaskID: int64(taskID),
		DryRun: req.DryRun,
		Actor:  req.Actor,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error enqueueing task execution",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Task execution enqueued",
	})
}

func (h *CampaignHandler) DecideApproval(c *fiber.Ctx) error {
	var ad transfer.ApprovalDecision
	if err := c.BodyParser(&ad); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if err := h.s.DecideApproval(c.Context(), &ad); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
