package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/service"
	"github.com/noah-isme/classtrack-api/internal/utils"
)

// RosterHandler manages classroom roster endpoints.
type RosterHandler struct {
	service   service.RosterService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRosterHandler builds a roster handler instance.
func NewRosterHandler(service service.RosterService, validate *validator.Validate, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "roster_handler").Logger(),
	}
}

// RegisterTeacher attaches the roster routes to a teacher-only group.
func (h *RosterHandler) RegisterTeacher(router fiber.Router) {
	router.Post("/classrooms/:id/enrollments", h.enroll)
	router.Delete("/enrollments/:id", h.withdraw)
}

func (h *RosterHandler) enroll(c *fiber.Ctx) error {
	classroomID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.Enroll(c.Context(), payload.StudentID, classroomID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", dto.NewEnrollmentResponse(enrollment))
}

// withdraw removes the enrollment together with its attendance records.
func (h *RosterHandler) withdraw(c *fiber.Ctx) error {
	enrollmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Withdraw(c.Context(), enrollmentID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student withdrawn", nil)
}

func (h *RosterHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
