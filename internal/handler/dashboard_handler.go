package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/service"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/utils"
)

// DashboardHandler serves the student dashboard snapshot.
type DashboardHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service service.ProgressService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register wires dashboard routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.dashboard)
}

func (h *DashboardHandler) dashboard(c *fiber.Ctx) error {
	response, err := h.service.Dashboard(c.Context(), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build dashboard")
		return sendServiceError(c, err, "failed to build dashboard")
	}
	return utils.SendSuccess(c, "dashboard retrieved", response)
}
