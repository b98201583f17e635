package handlers

import (
	"errors"

	"github.com/fundhaven/screening-backend/internal/dto"
	"github.com/fundhaven/screening-backend/internal/screening"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ScreeningHandler exposes the admin surface of the screening pipeline: run
// a batch on demand and inspect job records.
type ScreeningHandler struct {
	orchestrator *screening.Orchestrator
	jobs         screening.JobStore
}

func NewScreeningHandler(orchestrator *screening.Orchestrator, jobs screening.JobStore) *ScreeningHandler {
	return &ScreeningHandler{orchestrator: orchestrator, jobs: jobs}
}

// RunBatch processes up to limit pending screening jobs immediately.
// Individual job failures are reported in the result, never as an HTTP
// error.
func (h *ScreeningHandler) RunBatch(c *fiber.Ctx) error {
	var req dto.RunScreeningRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	result, err := h.orchestrator.ProcessPending(c.Context(), req.Limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process screening batch",
		})
	}

	return c.JSON(result)
}

func (h *ScreeningHandler) ListJobs(c *fiber.Ctx) error {
	status := c.Query("status", "")
	limit, offset := pagination(c)

	jobs, total, err := h.jobs.List(status, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch screening jobs",
		})
	}

	return c.JSON(fiber.Map{
		"jobs":   jobs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *ScreeningHandler) GetJob(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid job ID",
		})
	}

	job, err := h.jobs.Get(jobID)
	if err != nil {
		if errors.Is(err, screening.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch screening job",
		})
	}

	return c.JSON(job)
}
