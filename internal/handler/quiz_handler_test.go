package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/handler"
	"github.com/noah-isme/classtrack-api/internal/service"
)

type stubQuizService struct {
	attempt    dto.QuizAttemptResponse
	attemptErr error
	best       dto.BestScoreResponse
}

func (s stubQuizService) Attempt(context.Context, uint, uint, dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error) {
	return s.attempt, s.attemptErr
}

func (s stubQuizService) Reconcile(context.Context, uint, []uint) error { return nil }

func (s stubQuizService) Reactivate(context.Context, uint, uint) error { return nil }

func (s stubQuizService) BestScore(context.Context, uint, uint) (dto.BestScoreResponse, error) {
	return s.best, nil
}

func newQuizTestApp(svc service.QuizService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})

	h := handler.NewQuizHandler(svc, zerolog.Nop())
	group := app.Group("/api/v1")
	h.RegisterStudent(group)
	h.Register(group)
	return app
}

func TestQuizHandlerAttempt(t *testing.T) {
	attempt := dto.QuizAttemptResponse{
		ID:          3,
		QuizID:      1,
		StudentID:   7,
		Score:       7.5,
		Graded:      true,
		SubmittedAt: time.Now().UTC(),
	}
	app := newQuizTestApp(stubQuizService{attempt: attempt})

	body, err := json.Marshal(dto.QuizAttemptRequest{Answers: []dto.QuestionAnswer{{QuestionID: 1, OptionIDs: []uint{11}}}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/1/attempts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestQuizHandlerAttemptWindowClosed(t *testing.T) {
	app := newQuizTestApp(stubQuizService{attemptErr: service.ErrQuizWindowClosed})

	body, err := json.Marshal(dto.QuizAttemptRequest{Answers: []dto.QuestionAnswer{{QuestionID: 1}}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/1/attempts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestQuizHandlerAttemptNotEnrolled(t *testing.T) {
	app := newQuizTestApp(stubQuizService{attemptErr: service.ErrNotEnrolled})

	body, err := json.Marshal(dto.QuizAttemptRequest{Answers: []dto.QuestionAnswer{{QuestionID: 1}}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/1/attempts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestQuizHandlerBestScore(t *testing.T) {
	app := newQuizTestApp(stubQuizService{best: dto.BestScoreResponse{QuizID: 1, StudentID: 7, BestScore: 7.5}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quizzes/1/students/7/best-score", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.BestScoreResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, 7.5, payload.Data.BestScore)
}
