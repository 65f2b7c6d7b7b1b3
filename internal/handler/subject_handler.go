package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/dto"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/service"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/utils"
)

// SubjectHandler exposes the student CRUD surface: subjects, goals, feedback
// and study sessions.
type SubjectHandler struct {
	service   service.SubjectService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(service service.SubjectService, validator *validator.Validate, logger zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "subject_handler").Logger(),
	}
}

// Register wires subject routes.
func (h *SubjectHandler) Register(router fiber.Router) {
	router.Post("/subjects", h.createSubject)
	router.Get("/subjects", h.listSubjects)
	router.Get("/subjects/:id", h.getSubject)
	router.Put("/subjects/:id", h.updateSubject)
	router.Delete("/subjects/:id", h.deleteSubject)

	router.Post("/subjects/:id/goals", h.createGoal)
	router.Get("/subjects/:id/goals", h.listGoals)
	router.Delete("/goals/:id", h.deleteGoal)

	router.Post("/subjects/:id/feedback", h.createFeedback)
	router.Get("/subjects/:id/feedback", h.listFeedback)
	router.Delete("/feedback/:id", h.deleteFeedback)

	router.Post("/sessions", h.createSession)
	router.Get("/subjects/:id/sessions", h.listSessions)
	router.Delete("/sessions/:id", h.deleteSession)
}

func (h *SubjectHandler) createSubject(c *fiber.Ctx) error {
	var req dto.SubjectCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "validation failed")
	}

	response, err := h.service.CreateSubject(c.Context(), userIDFromContext(c), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create subject")
		return sendServiceError(c, err, "failed to create subject")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", response)
}

func (h *SubjectHandler) listSubjects(c *fiber.Ctx) error {
	responses, err := h.service.ListSubjects(c.Context(), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list subjects")
		return sendServiceError(c, err, "failed to list subjects")
	}
	return utils.SendSuccess(c, "subjects retrieved", responses)
}

func (h *SubjectHandler) getSubject(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	response, err := h.service.GetSubject(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to fetch subject")
	}
	return utils.SendSuccess(c, "subject retrieved", response)
}

func (h *SubjectHandler) updateSubject(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	var req dto.SubjectUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "validation failed")
	}

	response, err := h.service.UpdateSubject(c.Context(), id, userIDFromContext(c), req)
	if err != nil {
		return sendServiceError(c, err, "failed to update subject")
	}
	return utils.SendSuccess(c, "subject updated", response)
}

func (h *SubjectHandler) deleteSubject(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}
	if err := h.service.DeleteSubject(c.Context(), id, userIDFromContext(c)); err != nil {
		return sendServiceError(c, err, "failed to delete subject")
	}
	return utils.SendSuccess(c, "subject deleted", nil)
}

func (h *SubjectHandler) createGoal(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	var req dto.GoalCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "validation failed")
	}

	response, err := h.service.CreateGoal(c.Context(), id, userIDFromContext(c), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create goal")
		return sendServiceError(c, err, "failed to create goal")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "goal created", response)
}

func (h *SubjectHandler) listGoals(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}
	responses, err := h.service.ListGoals(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to list goals")
	}
	return utils.SendSuccess(c, "goals retrieved", responses)
}

func (h *SubjectHandler) deleteGoal(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid goal id")
	}
	if err := h.service.DeleteGoal(c.Context(), id, userIDFromContext(c)); err != nil {
		return sendServiceError(c, err, "failed to delete goal")
	}
	return utils.SendSuccess(c, "goal deleted", nil)
}

func (h *SubjectHandler) createFeedback(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	var req dto.FeedbackCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "validation failed")
	}

	response, err := h.service.CreateFeedback(c.Context(), id, userIDFromContext(c), req)
	if err != nil {
		return sendServiceError(c, err, "failed to create feedback")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feedback created", response)
}

func (h *SubjectHandler) listFeedback(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}
	responses, err := h.service.ListFeedback(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to list feedback")
	}
	return utils.SendSuccess(c, "feedback retrieved", responses)
}

func (h *SubjectHandler) deleteFeedback(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid feedback id")
	}
	if err := h.service.DeleteFeedback(c.Context(), id, userIDFromContext(c)); err != nil {
		return sendServiceError(c, err, "failed to delete feedback")
	}
	return utils.SendSuccess(c, "feedback deleted", nil)
}

func (h *SubjectHandler) createSession(c *fiber.Ctx) error {
	var req dto.SessionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "validation failed")
	}

	response, err := h.service.CreateSession(c.Context(), userIDFromContext(c), req)
	if err != nil {
		return sendServiceError(c, err, "failed to log session")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session logged", response)
}

func (h *SubjectHandler) listSessions(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}
	responses, err := h.service.ListSessions(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, err, "failed to list sessions")
	}
	return utils.SendSuccess(c, "sessions retrieved", responses)
}

func (h *SubjectHandler) deleteSession(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}
	if err := h.service.DeleteSession(c.Context(), id, userIDFromContext(c)); err != nil {
		return sendServiceError(c, err, "failed to delete session")
	}
	return utils.SendSuccess(c, "session deleted", nil)
}
