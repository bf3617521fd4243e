package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/service"
	"github.com/noah-isme/classtrack-api/internal/utils"
)

// StandingHandler exposes the aggregated progress view.
type StandingHandler struct {
	service service.StandingService
	logger  zerolog.Logger
}

// NewStandingHandler builds a standing handler instance.
func NewStandingHandler(service service.StandingService, logger zerolog.Logger) *StandingHandler {
	return &StandingHandler{
		service: service,
		logger:  logger.With().Str("component", "standing_handler").Logger(),
	}
}

// Register attaches the standing route to the provided router group.
func (h *StandingHandler) Register(router fiber.Router) {
	router.Get("/classrooms/:id/students/:studentID/standing", h.standing)
}

// standing evaluates the student's standing. The default variant reconciles
// overdue work first; ?readonly=true skips reconciliation and never writes.
func (h *StandingHandler) standing(c *fiber.Ctx) error {
	classroomID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var standing dto.StandingResponse
	if c.QueryBool("readonly") {
		standing, err = h.service.GetStanding(c.Context(), studentID, classroomID)
	} else {
		standing, err = h.service.EvaluateStanding(c.Context(), studentID, classroomID)
	}
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "standing evaluated", standing)
}

func (h *StandingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusNotFound, "student is not enrolled in this classroom")
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
