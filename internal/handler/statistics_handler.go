package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cbt-go-api/internal/service"
	"github.com/noah-isme/cbt-go-api/internal/utils"
)

// StatisticsHandler wires the school-wide statistics page and the admin
// dashboard endpoints.
type StatisticsHandler struct {
	statistics service.StatisticsService
	logger     zerolog.Logger
}

// NewStatisticsHandler constructs the handler.
func NewStatisticsHandler(statistics service.StatisticsService, logger zerolog.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statistics: statistics,
		logger:     logger.With().Str("component", "statistics_handler").Logger(),
	}
}

// Register attaches statistics endpoints to the router group.
func (h *StatisticsHandler) Register(router fiber.Router) {
	router.Get("/", h.school)
	router.Get("/dashboard", h.dashboard)
}

func (h *StatisticsHandler) school(c *fiber.Ctx) error {
	stats, err := h.statistics.School(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build school statistics")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load statistics")
	}

	return utils.SendSuccess(c, "statistics retrieved", stats)
}

func (h *StatisticsHandler) dashboard(c *fiber.Ctx) error {
	dashboard, err := h.statistics.Dashboard(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load dashboard")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
