package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/service"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/utils"
)

// RoadmapHandler exposes roadmap generation, inspection and checklist
// toggling.
type RoadmapHandler struct {
	service service.RoadmapService
	logger  zerolog.Logger
}

// NewRoadmapHandler constructs a roadmap handler.
func NewRoadmapHandler(service service.RoadmapService, logger zerolog.Logger) *RoadmapHandler {
	return &RoadmapHandler{
		service: service,
		logger:  logger.With().Str("component", "roadmap_handler").Logger(),
	}
}

// Register wires roadmap routes. generateLimiter throttles the AI generation
// endpoint; pass nil to disable.
func (h *RoadmapHandler) Register(router fiber.Router, generateLimiter fiber.Handler) {
	if generateLimiter == nil {
		generateLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/subjects/:id/roadmap", generateLimiter, h.generate)
	router.Get("/roadmaps", h.list)
	router.Get("/roadmaps/:id", h.detail)
	router.Delete("/roadmaps/:id", h.remove)
	router.Post("/checklist/:id/toggle", h.toggleItem)
}

func (h *RoadmapHandler) generate(c *fiber.Ctx) error {
	subjectID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	detail, err := h.service.Generate(c.Context(), subjectID, userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("subject_id", subjectID).Msg("roadmap generation failed")
		return sendServiceError(c, err, "failed to generate roadmap")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "roadmap generated", detail)
}

func (h *RoadmapHandler) list(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	details, err := h.service.ListForStudent(c.Context(), userIDFromContext(c), activeOnly)
	if err != nil {
		return sendServiceError(c, err, "failed to list roadmaps")
	}
	return utils.SendSuccess(c, "roadmaps retrieved", details)
}

func (h *RoadmapHandler) detail(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid roadmap id")
	}
	detail, err := h.service.Detail(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to fetch roadmap")
	}
	return utils.SendSuccess(c, "roadmap retrieved", detail)
}

func (h *RoadmapHandler) remove(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid roadmap id")
	}
	if err := h.service.Delete(c.Context(), id, userIDFromContext(c)); err != nil {
		return sendServiceError(c, err, "failed to delete roadmap")
	}
	return utils.SendSuccess(c, "roadmap deleted", nil)
}

func (h *RoadmapHandler) toggleItem(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist item id")
	}

	result, err := h.service.ToggleItem(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to toggle checklist item")
	}
	return utils.SendSuccess(c, "checklist item toggled", result)
}
