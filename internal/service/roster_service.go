package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/models"
	"github.com/noah-isme/classtrack-api/internal/repository"
)

// ErrNotEnrolled indicates the student does not belong to the classroom.
var ErrNotEnrolled = errors.New("student is not enrolled in this classroom")

// ErrNotAuthorized indicates the acting user lacks ownership of the resource.
var ErrNotAuthorized = errors.New("not authorized for this classroom")

// ErrEnrollmentNotFound indicates the referenced enrollment does not exist.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// ErrClassroomNotFound indicates the referenced classroom does not exist.
var ErrClassroomNotFound = errors.New("classroom not found")

// RosterService answers enrollment and ownership questions for the grading
// engine and manages the roster itself.
type RosterService interface {
	IsEnrolled(ctx context.Context, studentID, classroomID uint) (bool, error)
	IsTeacherOf(ctx context.Context, userID, classroomID uint) (bool, error)
	Enroll(ctx context.Context, studentID, classroomID uint) (models.Enrollment, error)
	Withdraw(ctx context.Context, enrollmentID uint) error
}

type rosterService struct {
	enrollments repository.EnrollmentRepository
	classrooms  repository.ClassroomRepository
	logger      zerolog.Logger
}

// NewRosterService constructs a RosterService instance.
func NewRosterService(enrollments repository.EnrollmentRepository, classrooms repository.ClassroomRepository, logger zerolog.Logger) RosterService {
	return &rosterService{
		enrollments: enrollments,
		classrooms:  classrooms,
		logger:      logger.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) IsEnrolled(ctx context.Context, studentID, classroomID uint) (bool, error) {
	return s.enrollments.Exists(ctx, studentID, classroomID)
}

func (s *rosterService) IsTeacherOf(ctx context.Context, userID, classroomID uint) (bool, error) {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrClassroomNotFound
		}
		return false, err
	}

	return classroom.TeacherID == userID, nil
}

func (s *rosterService) Enroll(ctx context.Context, studentID, classroomID uint) (models.Enrollment, error) {
	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Enrollment{}, ErrClassroomNotFound
		}
		return models.Enrollment{}, err
	}

	enrollment := models.Enrollment{StudentID: studentID, ClassroomID: classroomID}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return models.Enrollment{}, err
	}

	s.logger.Info().
		Uint("student_id", studentID).
		Uint("classroom_id", classroomID).
		Msg("student enrolled")

	return enrollment, nil
}

// Withdraw removes the enrollment and cascades its attendance records.
func (s *rosterService) Withdraw(ctx context.Context, enrollmentID uint) error {
	if _, err := s.enrollments.GetByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	if err := s.enrollments.Delete(ctx, enrollmentID); err != nil {
		return err
	}

	s.logger.Info().Uint("enrollment_id", enrollmentID).Msg("student withdrawn")

	return nil
}

// dateOnly truncates an instant to midnight UTC so attendance dates compare
// by calendar day regardless of the submitted time component.
func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
