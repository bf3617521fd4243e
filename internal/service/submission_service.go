package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

// ErrAssignmentNotFound indicates the referenced assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrSubmissionNotFound indicates the referenced submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrDeadlinePassed indicates a submit after the assignment deadline.
var ErrDeadlinePassed = errors.New("assignment deadline has passed")

// ErrInvalidFile indicates the uploaded file failed extension, type or size
// validation.
var ErrInvalidFile = errors.New("file rejected by submission policy")

// FileUploader abstracts the external file-storage collaborator.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// FilePolicy bounds what a call site accepts as an upload. Both fields are
// configurable per call site; submissions default to documents and images
// capped at 5 MiB.
type FilePolicy struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// DefaultFilePolicy is the submission upload policy used when none is
// configured.
var DefaultFilePolicy = FilePolicy{
	AllowedExtensions: []string{"pdf", "png", "jpg", "jpeg"},
	MaxBytes:          5 << 20,
}

// SubmissionService owns the per-(student, assignment) submission lifecycle:
// student uploads, teacher grading, and the deadline reconciliation that
// materializes or withdraws auto-zero records.
type SubmissionService interface {
	Submit(ctx context.Context, studentID, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, teacherID, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error)
	Reconcile(ctx context.Context, assignmentID uint, studentIDs []uint) error
	AverageForStudent(ctx context.Context, classroomID, studentID uint) (float64, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	roster      RosterService
	validator   *validator.Validate
	uploader    FileUploader
	notifier    Notifier
	policy      FilePolicy
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, roster RosterService, validate *validator.Validate, uploader FileUploader, notifier Notifier, policy FilePolicy, logger zerolog.Logger) SubmissionService {
	if len(policy.AllowedExtensions) == 0 {
		policy.AllowedExtensions = DefaultFilePolicy.AllowedExtensions
	}
	if policy.MaxBytes <= 0 {
		policy.MaxBytes = DefaultFilePolicy.MaxBytes
	}

	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		roster:      roster,
		validator:   validate,
		uploader:    uploader,
		notifier:    notifier,
		policy:      policy,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/classtrack-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Submit validates and stores a student upload. Either the whole operation
// succeeds or nothing is written.
func (s *submissionService) Submit(ctx context.Context, studentID, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	now := s.now()

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	enrolled, err := s.roster.IsEnrolled(ctx, studentID, assignment.ClassroomID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	if assignment.IsPastDue(now) {
		return dto.SubmissionResponse{}, ErrDeadlinePassed
	}

	if err := validateSubmissionFile(file, s.policy); err != nil {
		return dto.SubmissionResponse{}, err
	}

	action := models.SubmissionActionFirst
	if _, err := s.submissions.GetByPair(ctx, assignmentID, studentID); err == nil {
		action = models.SubmissionActionResubmit
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	uploadURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		FileURL:      uploadURL,
		SubmittedAt:  now,
	}

	if err := s.submissions.Upsert(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	stored, err := s.submissions.GetByPair(ctx, assignmentID, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	history := models.SubmissionHistory{
		SubmissionID: stored.ID,
		Action:       action,
		RecordedAt:   now,
	}
	if err := s.submissions.AppendHistory(ctx, &history); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", stored.ID).Msg("failed to append submission history")
	}

	s.logger.Info().
		Uint("submission_id", stored.ID).
		Uint("assignment_id", assignmentID).
		Uint("student_id", studentID).
		Str("action", action).
		Msg("submission stored")

	return dto.NewSubmissionResponse(stored), nil
}

// Grade records a teacher's marks. Values are stored as supplied, including
// negative or over-cap marks, and any earlier auto-zero grading is
// overwritten.
func (s *submissionService) Grade(ctx context.Context, teacherID, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.grade", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int64("submission.teacher_id", int64(teacherID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	teaches, err := s.roster.IsTeacherOf(ctx, teacherID, submission.Assignment.ClassroomID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !teaches {
		return dto.SubmissionResponse{}, ErrNotAuthorized
	}

	marks := *payload.Marks
	submission.Marks = &marks
	submission.Graded = true
	submission.Released = payload.Release
	submission.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.notifier != nil {
		s.notifier.Publish(ctx, ProgressEvent{
			Type:        EventSubmissionGraded,
			StudentID:   submission.StudentID,
			ClassroomID: submission.Assignment.ClassroomID,
			EntityID:    submission.ID,
			Score:       submission.Marks,
			OccurredAt:  s.now(),
		})
	}

	span.SetAttributes(attribute.Float64("submission.marks", marks))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("marks", marks).
		Bool("released", submission.Released).
		Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

// Reconcile materializes or withdraws auto-zero records for one assignment.
// It is idempotent: repeated calls with no intervening state change write
// nothing, and transient write conflicts are retried rather than surfaced.
func (s *submissionService) Reconcile(ctx context.Context, assignmentID uint, studentIDs []uint) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	now := s.now()
	pastDue := assignment.IsPastDue(now)

	for _, studentID := range studentIDs {
		submission, err := s.submissions.GetByPair(ctx, assignmentID, studentID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !pastDue {
				continue
			}
			zero := 0.0
			record := models.Submission{
				AssignmentID: assignmentID,
				StudentID:    studentID,
				SubmittedAt:  assignment.Deadline,
				Marks:        &zero,
				Graded:       true,
				Released:     true,
			}
			created, err := s.createAutoZero(ctx, &record)
			if err != nil {
				s.logger.Warn().Err(err).
					Uint("assignment_id", assignmentID).
					Uint("student_id", studentID).
					Msg("auto-zero creation failed")
				continue
			}
			if created {
				observability.ReconciliationWrites().WithLabelValues("auto_zero", "create").Inc()
			}
		case err != nil:
			return err
		default:
			if pastDue || !submission.IsAutoZero() {
				continue
			}
			deleted, err := s.submissions.DeleteAutoZero(ctx, assignmentID, studentID)
			if err != nil {
				s.logger.Warn().Err(err).
					Uint("assignment_id", assignmentID).
					Uint("student_id", studentID).
					Msg("stale auto-zero removal failed")
				continue
			}
			if deleted > 0 {
				observability.ReconciliationWrites().WithLabelValues("auto_zero", "delete").Inc()
			}
		}
	}

	return nil
}

func (s *submissionService) createAutoZero(ctx context.Context, record *models.Submission) (bool, error) {
	created, err := s.submissions.CreateIfAbsent(ctx, record)
	if err == nil {
		return created, nil
	}
	// One retry; the conditional insert is safe to repeat.
	return s.submissions.CreateIfAbsent(ctx, record)
}

// AverageForStudent computes the assignment average with every visible
// assignment in the denominator. Only graded and released marks enter the
// numerator; in steady state reconciliation guarantees every past-due
// assignment holds a graded submission.
func (s *submissionService) AverageForStudent(ctx context.Context, classroomID, studentID uint) (float64, error) {
	assignments, err := s.assignments.ListVisibleByClassroom(ctx, classroomID)
	if err != nil {
		return 0, err
	}
	if len(assignments) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}

	submissions, err := s.submissions.ListByAssignmentIDs(ctx, ids, studentID)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, submission := range submissions {
		if submission.CountsTowardAverage() {
			sum += *submission.Marks
		}
	}

	return sum / float64(len(assignments)), nil
}

func validateSubmissionFile(file *multipart.FileHeader, policy FilePolicy) error {
	if file == nil {
		return fmt.Errorf("%w: file is required", ErrInvalidFile)
	}

	if file.Size > policy.MaxBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidFile, policy.MaxBytes)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	allowed := false
	for _, candidate := range policy.AllowedExtensions {
		if ext == strings.ToLower(candidate) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: extension %q not accepted", ErrInvalidFile, ext)
	}

	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, accepted := range []string{"application/pdf", "image/png", "image/jpeg"} {
		if mime.Is(accepted) {
			return nil
		}
	}

	return fmt.Errorf("%w: unsupported content type %s", ErrInvalidFile, mime.String())
}
