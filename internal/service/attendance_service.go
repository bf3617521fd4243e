package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/models"
	"github.com/noah-isme/classtrack-api/internal/repository"
)

// ErrOutOfRangeDate indicates an attendance date before the classroom start
// or after the current day.
var ErrOutOfRangeDate = errors.New("attendance date outside the allowed range")

// AttendanceService maintains the per-enrollment attendance ledger.
type AttendanceService interface {
	Mark(ctx context.Context, payload dto.AttendanceMarkRequest) (dto.AttendanceResponse, error)
	Clear(ctx context.Context, payload dto.AttendanceClearRequest) (dto.AttendanceClearResponse, error)
	Percent(ctx context.Context, enrollmentID uint) (dto.AttendancePercentResponse, error)
}

type attendanceService struct {
	records     repository.AttendanceRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(records repository.AttendanceRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		records:     records,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger.With().Str("component", "attendance_service").Logger(),
		now:         time.Now,
	}
}

func (s *attendanceService) Mark(ctx context.Context, payload dto.AttendanceMarkRequest) (dto.AttendanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceResponse{}, err
	}

	date, err := parseAttendanceDate(payload.Date)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}

	enrollment, err := s.enrollments.GetByID(ctx, payload.EnrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceResponse{}, ErrEnrollmentNotFound
		}
		return dto.AttendanceResponse{}, err
	}

	today := dateOnly(s.now())
	if date.Before(dateOnly(enrollment.Classroom.StartDate)) || date.After(today) {
		return dto.AttendanceResponse{}, ErrOutOfRangeDate
	}

	record := models.AttendanceRecord{
		EnrollmentID: enrollment.ID,
		Date:         date,
		Present:      payload.Present,
	}

	if err := s.records.Upsert(ctx, &record); err != nil {
		return dto.AttendanceResponse{}, err
	}

	s.logger.Info().
		Uint("enrollment_id", enrollment.ID).
		Str("date", payload.Date).
		Bool("present", payload.Present).
		Msg("attendance marked")

	return dto.NewAttendanceResponse(record), nil
}

func (s *attendanceService) Clear(ctx context.Context, payload dto.AttendanceClearRequest) (dto.AttendanceClearResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceClearResponse{}, err
	}

	if _, err := s.enrollments.GetByID(ctx, payload.EnrollmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceClearResponse{}, ErrEnrollmentNotFound
		}
		return dto.AttendanceClearResponse{}, err
	}

	var deleted int64
	var err error
	if payload.Date != nil {
		var date time.Time
		date, err = parseAttendanceDate(*payload.Date)
		if err != nil {
			return dto.AttendanceClearResponse{}, err
		}
		deleted, err = s.records.DeleteByDate(ctx, payload.EnrollmentID, date)
	} else {
		deleted, err = s.records.DeleteAll(ctx, payload.EnrollmentID)
	}
	if err != nil {
		return dto.AttendanceClearResponse{}, err
	}

	s.logger.Info().
		Uint("enrollment_id", payload.EnrollmentID).
		Int64("deleted", deleted).
		Msg("attendance cleared")

	return dto.AttendanceClearResponse{EnrollmentID: payload.EnrollmentID, Deleted: deleted}, nil
}

func (s *attendanceService) Percent(ctx context.Context, enrollmentID uint) (dto.AttendancePercentResponse, error) {
	if _, err := s.enrollments.GetByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendancePercentResponse{}, ErrEnrollmentNotFound
		}
		return dto.AttendancePercentResponse{}, err
	}

	tally, err := s.records.Tally(ctx, enrollmentID)
	if err != nil {
		return dto.AttendancePercentResponse{}, err
	}

	percent := 0.0
	if tally.Total > 0 {
		percent = round2(100 * float64(tally.Present) / float64(tally.Total))
	}

	return dto.AttendancePercentResponse{
		EnrollmentID: enrollmentID,
		PresentDays:  tally.Present,
		TotalDays:    tally.Total,
		Percent:      percent,
		Severity:     models.AttendanceSeverity(percent),
	}, nil
}

func parseAttendanceDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(dto.AttendanceDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid attendance date %q: %w", value, err)
	}
	return date, nil
}
