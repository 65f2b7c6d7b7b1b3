package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/dto"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/service"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/utils"
)

// ParentHandler exposes the parent dashboard, alert history and preference
// management.
type ParentHandler struct {
	service   service.ParentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewParentHandler constructs a parent handler.
func NewParentHandler(service service.ParentService, validator *validator.Validate, logger zerolog.Logger) *ParentHandler {
	return &ParentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "parent_handler").Logger(),
	}
}

// Register wires parent routes.
func (h *ParentHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.dashboard)
	router.Get("/alerts", h.alertHistory)
	router.Post("/alerts/:id/read", h.markRead)
	router.Post("/alerts/read-all", h.markAllRead)
	router.Put("/preferences", h.updatePreferences)
	router.Post("/students/:id/link", h.linkStudent)
}

func (h *ParentHandler) dashboard(c *fiber.Ctx) error {
	response, err := h.service.Dashboard(c.Context(), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build parent dashboard")
		return sendServiceError(c, err, "failed to build dashboard")
	}
	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *ParentHandler) alertHistory(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	filter := repository.AlertHistoryFilter{
		AlertType:  c.Query("type"),
		UnreadOnly: c.QueryBool("unread", false),
		Limit:      limit,
	}
	if studentID, err := parseQueryInt(c, "student_id"); err == nil && studentID > 0 {
		id := uint(studentID)
		filter.StudentID = &id
	}

	response, err := h.service.AlertHistory(c.Context(), userIDFromContext(c), filter)
	if err != nil {
		return sendServiceError(c, err, "failed to fetch alert history")
	}
	return utils.SendSuccess(c, "alerts retrieved", response)
}

func (h *ParentHandler) markRead(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	alert, err := h.service.MarkAlertRead(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to mark alert read")
	}
	return utils.SendSuccess(c, "alert marked read", alert)
}

func (h *ParentHandler) markAllRead(c *fiber.Ctx) error {
	updated, err := h.service.MarkAllAlertsRead(c.Context(), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to mark alerts read")
	}
	return utils.SendSuccess(c, "alerts marked read", fiber.Map{"updated": updated})
}

func (h *ParentHandler) updatePreferences(c *fiber.Ctx) error {
	var req dto.PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "validation failed")
	}

	if err := h.service.UpdatePreferences(c.Context(), userIDFromContext(c), req); err != nil {
		return sendServiceError(c, err, "failed to update preferences")
	}
	return utils.SendSuccess(c, "preferences updated", nil)
}

func (h *ParentHandler) linkStudent(c *fiber.Ctx) error {
	studentID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	if err := h.service.LinkStudent(c.Context(), userIDFromContext(c), studentID); err != nil {
		return sendServiceError(c, err, "failed to link student")
	}
	return utils.SendSuccess(c, "student linked", nil)
}
