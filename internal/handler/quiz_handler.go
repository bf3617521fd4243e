package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/service"
	"github.com/noah-isme/classtrack-api/internal/utils"
)

// QuizHandler manages quiz attempt endpoints.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler builds a quiz handler instance.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// RegisterStudent attaches the attempt route to a student group.
func (h *QuizHandler) RegisterStudent(router fiber.Router) {
	router.Post("/quizzes/:id/attempts", h.attempt)
}

// RegisterTeacher attaches the reactivation route to a teacher-only group.
func (h *QuizHandler) RegisterTeacher(router fiber.Router) {
	router.Delete("/attempts/:id", h.reactivate)
}

// Register attaches the read routes to the provided router group.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Get("/quizzes/:id/students/:studentID/best-score", h.bestScore)
}

func (h *QuizHandler) attempt(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.QuizAttemptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	attempt, err := h.service.Attempt(c.Context(), studentID, quizID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz attempt scored", attempt)
}

func (h *QuizHandler) reactivate(c *fiber.Ctx) error {
	attemptID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	teacherID := userIDFromContext(c)
	if teacherID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.service.Reactivate(c.Context(), teacherID, attemptID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz attempt reactivated", nil)
}

func (h *QuizHandler) bestScore(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	best, err := h.service.BestScore(c.Context(), quizID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "best score retrieved", best)
}

func (h *QuizHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz attempt not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "student is not enrolled in this classroom")
	case errors.Is(err, service.ErrNotAuthorized):
		return utils.SendError(c, fiber.StatusForbidden, "not the classroom teacher")
	case errors.Is(err, service.ErrQuizNotYetOpen):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "quiz has not opened yet")
	case errors.Is(err, service.ErrQuizWindowClosed):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "quiz window has closed")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
