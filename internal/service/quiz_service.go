package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/models"
	"github.com/noah-isme/classtrack-api/internal/observability"
	"github.com/noah-isme/classtrack-api/internal/repository"
)

// ErrQuizNotFound indicates the referenced quiz does not exist.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrAttemptNotFound indicates the referenced attempt does not exist.
var ErrAttemptNotFound = errors.New("quiz attempt not found")

// ErrQuizNotYetOpen indicates an attempt before the window start.
var ErrQuizNotYetOpen = errors.New("quiz has not opened yet")

// ErrQuizWindowClosed indicates an attempt after the window end.
var ErrQuizWindowClosed = errors.New("quiz window has closed")

// QuizService owns the per-(quiz, student) attempt lifecycle: taking and
// scoring a quiz, window reconciliation, teacher reactivation and best-score
// lookups.
type QuizService interface {
	Attempt(ctx context.Context, studentID, quizID uint, payload dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error)
	Reconcile(ctx context.Context, quizID uint, studentIDs []uint) error
	Reactivate(ctx context.Context, teacherID, attemptID uint) error
	BestScore(ctx context.Context, quizID, studentID uint) (dto.BestScoreResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	attempts  repository.QuizAttemptRepository
	roster    RosterService
	validator *validator.Validate
	notifier  Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuizService constructs a QuizService instance.
func NewQuizService(quizRepo repository.QuizRepository, attemptRepo repository.QuizAttemptRepository, roster RosterService, validate *validator.Validate, notifier Notifier, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:   quizRepo,
		attempts:  attemptRepo,
		roster:    roster,
		validator: validate,
		notifier:  notifier,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

// Attempt scores the supplied answers against the quiz. A question counts
// only when the selected option set matches the correct set exactly; there
// is no partial credit. Visiting a closed quiz materializes the same
// auto-submitted zero attempt reconciliation would.
func (s *quizService) Attempt(ctx context.Context, studentID, quizID uint, payload dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizAttemptResponse{}, ErrQuizNotFound
		}
		return dto.QuizAttemptResponse{}, err
	}

	enrolled, err := s.roster.IsEnrolled(ctx, studentID, quiz.ClassroomID)
	if err != nil {
		return dto.QuizAttemptResponse{}, err
	}
	if !enrolled {
		return dto.QuizAttemptResponse{}, ErrNotEnrolled
	}

	now := s.now()
	if now.Before(quiz.StartsAt) {
		return dto.QuizAttemptResponse{}, ErrQuizNotYetOpen
	}
	if quiz.HasClosed(now) {
		if _, err := s.ensureAutoSubmitted(ctx, quiz, studentID); err != nil {
			s.logger.Warn().Err(err).
				Uint("quiz_id", quizID).
				Uint("student_id", studentID).
				Msg("auto-submit on late visit failed")
		}
		return dto.QuizAttemptResponse{}, ErrQuizWindowClosed
	}

	score := scoreAnswers(quiz.Questions, payload.Answers)

	recorded, err := json.Marshal(payload.Answers)
	if err != nil {
		return dto.QuizAttemptResponse{}, fmt.Errorf("failed to encode answers: %w", err)
	}

	attempt := models.QuizAttempt{
		QuizID:        quizID,
		StudentID:     studentID,
		Score:         score,
		Graded:        true,
		AutoSubmitted: false,
		SubmittedAt:   now,
		Answers:       recorded,
	}

	if err := s.attempts.Upsert(ctx, &attempt); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	stored, err := s.attempts.GetByPair(ctx, quizID, studentID)
	if err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	if s.notifier != nil {
		s.notifier.Publish(ctx, ProgressEvent{
			Type:        EventAttemptScored,
			StudentID:   studentID,
			ClassroomID: quiz.ClassroomID,
			EntityID:    stored.ID,
			Score:       &stored.Score,
			OccurredAt:  now,
		})
	}

	s.logger.Info().
		Uint("quiz_id", quizID).
		Uint("student_id", studentID).
		Float64("score", score).
		Msg("quiz attempt scored")

	return dto.NewQuizAttemptResponse(stored), nil
}

// Reconcile materializes or withdraws auto-submitted zero attempts for one
// quiz. Idempotent under repeated calls.
func (s *quizService) Reconcile(ctx context.Context, quizID uint, studentIDs []uint) error {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	now := s.now()
	closed := quiz.HasClosed(now)

	for _, studentID := range studentIDs {
		attempt, err := s.attempts.GetByPair(ctx, quizID, studentID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !closed {
				continue
			}
			created, err := s.ensureAutoSubmitted(ctx, quiz, studentID)
			if err != nil {
				s.logger.Warn().Err(err).
					Uint("quiz_id", quizID).
					Uint("student_id", studentID).
					Msg("auto-submit creation failed")
				continue
			}
			if created {
				observability.ReconciliationWrites().WithLabelValues("auto_submit", "create").Inc()
			}
		case err != nil:
			return err
		default:
			if closed || !attempt.AutoSubmitted {
				continue
			}
			deleted, err := s.attempts.DeleteAutoSubmitted(ctx, quizID, studentID)
			if err != nil {
				s.logger.Warn().Err(err).
					Uint("quiz_id", quizID).
					Uint("student_id", studentID).
					Msg("stale auto-submit removal failed")
				continue
			}
			if deleted > 0 {
				observability.ReconciliationWrites().WithLabelValues("auto_submit", "delete").Inc()
			}
		}
	}

	return nil
}

// Reactivate deletes the attempt unconditionally so the student may attempt
// once more, subject to the normal window checks.
func (s *quizService) Reactivate(ctx context.Context, teacherID, attemptID uint) error {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttemptNotFound
		}
		return err
	}

	teaches, err := s.roster.IsTeacherOf(ctx, teacherID, attempt.Quiz.ClassroomID)
	if err != nil {
		return err
	}
	if !teaches {
		return ErrNotAuthorized
	}

	if err := s.attempts.Delete(ctx, attemptID); err != nil {
		return err
	}

	s.logger.Info().
		Uint("attempt_id", attemptID).
		Uint("quiz_id", attempt.QuizID).
		Uint("student_id", attempt.StudentID).
		Msg("quiz attempt reactivated")

	return nil
}

// BestScore reports the score of the single persisted attempt, or 0 when
// none exists.
func (s *quizService) BestScore(ctx context.Context, quizID, studentID uint) (dto.BestScoreResponse, error) {
	response := dto.BestScoreResponse{QuizID: quizID, StudentID: studentID}

	attempt, err := s.attempts.GetByPair(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response, nil
		}
		return dto.BestScoreResponse{}, err
	}

	response.BestScore = attempt.Score
	return response, nil
}

func (s *quizService) ensureAutoSubmitted(ctx context.Context, quiz models.Quiz, studentID uint) (bool, error) {
	attempt := models.QuizAttempt{
		QuizID:        quiz.ID,
		StudentID:     studentID,
		Score:         0,
		Graded:        true,
		AutoSubmitted: true,
		SubmittedAt:   quiz.EndsAt,
	}

	created, err := s.attempts.CreateIfAbsent(ctx, &attempt)
	if err == nil {
		return created, nil
	}
	// One retry; the conditional insert is safe to repeat.
	return s.attempts.CreateIfAbsent(ctx, &attempt)
}

// scoreAnswers grades on a 0-10 scale with two decimal places. A quiz
// without questions scores zero.
func scoreAnswers(questions []models.Question, answers []dto.QuestionAnswer) float64 {
	if len(questions) == 0 {
		return 0
	}

	selected := make(map[uint]map[uint]struct{}, len(answers))
	for _, answer := range answers {
		set := make(map[uint]struct{}, len(answer.OptionIDs))
		for _, optionID := range answer.OptionIDs {
			set[optionID] = struct{}{}
		}
		selected[answer.QuestionID] = set
	}

	correct := 0
	for _, question := range questions {
		if setsEqual(selected[question.ID], question.CorrectOptionIDs()) {
			correct++
		}
	}

	return round2(10 * float64(correct) / float64(len(questions)))
}

func setsEqual(a, b map[uint]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
