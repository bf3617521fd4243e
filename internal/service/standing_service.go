package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/models"
	"github.com/noah-isme/classtrack-api/internal/observability"
	"github.com/noah-isme/classtrack-api/internal/repository"
)

// Assignment average and best quiz score carry equal weight in the final
// grade.
const (
	assignmentWeight = 0.5
	quizWeight       = 0.5
)

// StandingService aggregates submissions, quiz attempts and attendance into
// a single standing for a (student, classroom) pair.
//
// EvaluateStanding is read-triggered but mutating: it reconciles every
// visible assignment and quiz first, so auto-zero records materialize lazily
// on the next read rather than via a background scheduler. GetStanding is
// the strictly read-only variant for call sites that must not write.
type StandingService interface {
	EvaluateStanding(ctx context.Context, studentID, classroomID uint) (dto.StandingResponse, error)
	GetStanding(ctx context.Context, studentID, classroomID uint) (dto.StandingResponse, error)
}

type standingService struct {
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	quizzes     repository.QuizRepository
	submissions SubmissionService
	quizAttempt QuizService
	attendance  AttendanceService
	notifier    Notifier
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewStandingService constructs a StandingService instance.
func NewStandingService(
	enrollments repository.EnrollmentRepository,
	assignments repository.AssignmentRepository,
	quizzes repository.QuizRepository,
	submissions SubmissionService,
	quizAttempt QuizService,
	attendance AttendanceService,
	notifier Notifier,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) StandingService {
	return &standingService{
		enrollments: enrollments,
		assignments: assignments,
		quizzes:     quizzes,
		submissions: submissions,
		quizAttempt: quizAttempt,
		attendance:  attendance,
		notifier:    notifier,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "standing_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/classtrack-api/internal/service/standing"),
		now:         time.Now,
	}
}

func (s *standingService) EvaluateStanding(ctx context.Context, studentID, classroomID uint) (dto.StandingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "standing.evaluate", trace.WithAttributes(
		attribute.Int64("standing.student_id", int64(studentID)),
		attribute.Int64("standing.classroom_id", int64(classroomID)),
	))
	defer span.End()

	enrollment, err := s.enrollments.GetByPair(ctx, studentID, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StandingResponse{}, ErrNotEnrolled
		}
		return dto.StandingResponse{}, err
	}

	assignments, err := s.assignments.ListVisibleByClassroom(ctx, classroomID)
	if err != nil {
		return dto.StandingResponse{}, err
	}
	for _, assignment := range assignments {
		if err := s.submissions.Reconcile(ctx, assignment.ID, []uint{studentID}); err != nil {
			return dto.StandingResponse{}, err
		}
	}

	quizzes, err := s.quizzes.ListVisibleByClassroom(ctx, classroomID)
	if err != nil {
		return dto.StandingResponse{}, err
	}
	for _, quiz := range quizzes {
		if err := s.quizAttempt.Reconcile(ctx, quiz.ID, []uint{studentID}); err != nil {
			return dto.StandingResponse{}, err
		}
	}

	response, err := s.buildStanding(ctx, enrollment, quizzes)
	if err != nil {
		return dto.StandingResponse{}, err
	}

	s.storeCached(ctx, response)
	observability.StandingEvaluations().WithLabelValues("mutating").Inc()

	if s.notifier != nil {
		s.notifier.Publish(ctx, ProgressEvent{
			Type:        EventStandingEvaluated,
			StudentID:   studentID,
			ClassroomID: classroomID,
			Score:       &response.FinalGrade,
			OccurredAt:  response.EvaluatedAt,
		})
	}

	span.SetAttributes(attribute.Float64("standing.final_grade", response.FinalGrade))

	return response, nil
}

// GetStanding aggregates already-persisted records without reconciling.
func (s *standingService) GetStanding(ctx context.Context, studentID, classroomID uint) (dto.StandingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "standing.get", trace.WithAttributes(
		attribute.Int64("standing.student_id", int64(studentID)),
		attribute.Int64("standing.classroom_id", int64(classroomID)),
	))
	defer span.End()

	if cached, ok := s.loadCached(ctx, studentID, classroomID); ok {
		observability.StandingCacheHits().Inc()
		return cached, nil
	}

	enrollment, err := s.enrollments.GetByPair(ctx, studentID, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StandingResponse{}, ErrNotEnrolled
		}
		return dto.StandingResponse{}, err
	}

	quizzes, err := s.quizzes.ListVisibleByClassroom(ctx, classroomID)
	if err != nil {
		return dto.StandingResponse{}, err
	}

	response, err := s.buildStanding(ctx, enrollment, quizzes)
	if err != nil {
		return dto.StandingResponse{}, err
	}

	s.storeCached(ctx, response)
	observability.StandingEvaluations().WithLabelValues("readonly").Inc()

	return response, nil
}

func (s *standingService) buildStanding(ctx context.Context, enrollment models.Enrollment, quizzes []models.Quiz) (dto.StandingResponse, error) {
	assignmentAvg, err := s.submissions.AverageForStudent(ctx, enrollment.ClassroomID, enrollment.StudentID)
	if err != nil {
		return dto.StandingResponse{}, err
	}

	bestQuiz := 0.0
	for _, quiz := range quizzes {
		best, err := s.quizAttempt.BestScore(ctx, quiz.ID, enrollment.StudentID)
		if err != nil {
			return dto.StandingResponse{}, err
		}
		if best.BestScore > bestQuiz {
			bestQuiz = best.BestScore
		}
	}

	attendance, err := s.attendance.Percent(ctx, enrollment.ID)
	if err != nil {
		return dto.StandingResponse{}, err
	}

	return dto.StandingResponse{
		StudentID:          enrollment.StudentID,
		ClassroomID:        enrollment.ClassroomID,
		AssignmentAverage:  round2(assignmentAvg),
		BestQuizScore:      bestQuiz,
		AttendancePercent:  attendance.Percent,
		AttendanceSeverity: attendance.Severity,
		FinalGrade:         round2(assignmentWeight*assignmentAvg + quizWeight*bestQuiz),
		EvaluatedAt:        s.now().UTC(),
	}, nil
}

func (s *standingService) loadCached(ctx context.Context, studentID, classroomID uint) (dto.StandingResponse, bool) {
	if s.cache == nil {
		return dto.StandingResponse{}, false
	}

	cached, err := s.cache.Get(ctx, standingCacheKey(studentID, classroomID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read standing cache")
		}
		return dto.StandingResponse{}, false
	}

	var response dto.StandingResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return dto.StandingResponse{}, false
	}

	return response, true
}

func (s *standingService) storeCached(ctx context.Context, response dto.StandingResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	key := standingCacheKey(response.StudentID, response.ClassroomID)
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store standing cache")
	}
}

func standingCacheKey(studentID, classroomID uint) string {
	return fmt.Sprintf("standing:classroom:%d:student:%d", classroomID, studentID)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
