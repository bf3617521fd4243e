package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/service"
	"github.com/noah-isme/classtrack-api/internal/utils"
)

// AttendanceHandler manages attendance ledger endpoints.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler builds an attendance handler instance.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// RegisterTeacher attaches the mark/clear routes to a teacher-only group.
func (h *AttendanceHandler) RegisterTeacher(router fiber.Router) {
	router.Post("/attendance", h.mark)
	router.Delete("/attendance", h.clear)
}

// Register attaches the read routes to the provided router group.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Get("/enrollments/:id/attendance", h.percent)
}

func (h *AttendanceHandler) mark(c *fiber.Ctx) error {
	var payload dto.AttendanceMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.service.Mark(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance marked", record)
}

func (h *AttendanceHandler) clear(c *fiber.Ctx) error {
	var payload dto.AttendanceClearRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Clear(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance cleared", result)
}

func (h *AttendanceHandler) percent(c *fiber.Ctx) error {
	enrollmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.Percent(c.Context(), enrollmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance summary retrieved", summary)
}

func (h *AttendanceHandler) handleError(c *fiber.Ctx, err error) error {
	var parseErr *time.ParseError
	switch {
	case errors.As(err, &parseErr):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
	case errors.Is(err, service.ErrOutOfRangeDate):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
