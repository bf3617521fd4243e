package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classtrack-api/internal/dto"
	"github.com/noah-isme/classtrack-api/internal/models"
)

func setupAttendanceFixture(t *testing.T) (*attendanceService, *memoryAttendanceRepo, models.Enrollment) {
	t.Helper()

	classrooms := newMemoryClassroomRepo()
	require.NoError(t, classrooms.Create(context.Background(), &models.Classroom{
		Name:      "Physics 101",
		Code:      "PHY-101",
		TeacherID: 50,
		StartDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}))

	enrollments := newMemoryEnrollmentRepo(classrooms)
	enrollment := models.Enrollment{StudentID: 7, ClassroomID: 1}
	require.NoError(t, enrollments.Create(context.Background(), &enrollment))

	records := newMemoryAttendanceRepo()
	svc := NewAttendanceService(records, enrollments, newTestValidator(), testLogger()).(*attendanceService)
	svc.now = fixedClock(time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC))

	return svc, records, enrollment
}

func TestAttendanceMarkAndOverwrite(t *testing.T) {
	svc, records, enrollment := setupAttendanceFixture(t)
	ctx := context.Background()

	first, err := svc.Mark(ctx, dto.AttendanceMarkRequest{EnrollmentID: enrollment.ID, Date: "2026-02-02", Present: true})
	require.NoError(t, err)
	require.True(t, first.Present)

	second, err := svc.Mark(ctx, dto.AttendanceMarkRequest{EnrollmentID: enrollment.ID, Date: "2026-02-02", Present: false})
	require.NoError(t, err)
	require.False(t, second.Present)
	require.Equal(t, first.ID, second.ID)

	stored, err := records.ListByEnrollment(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.False(t, stored[0].Present)
}

func TestAttendanceMarkRejectsOutOfRangeDates(t *testing.T) {
	svc, _, enrollment := setupAttendanceFixture(t)
	ctx := context.Background()

	_, err := svc.Mark(ctx, dto.AttendanceMarkRequest{EnrollmentID: enrollment.ID, Date: "2026-01-04", Present: true})
	require.ErrorIs(t, err, ErrOutOfRangeDate)

	_, err = svc.Mark(ctx, dto.AttendanceMarkRequest{EnrollmentID: enrollment.ID, Date: "2026-02-11", Present: true})
	require.ErrorIs(t, err, ErrOutOfRangeDate)

	_, err = svc.Mark(ctx, dto.AttendanceMarkRequest{EnrollmentID: enrollment.ID, Date: "2026-02-10", Present: true})
	require.NoError(t, err)
}

func TestAttendanceMarkRejectsUnknownEnrollment(t *testing.T) {
	svc, _, _ := setupAttendanceFixture(t)

	_, err := svc.Mark(context.Background(), dto.AttendanceMarkRequest{EnrollmentID: 99, Date: "2026-02-02", Present: true})
	require.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestAttendancePercentFormula(t *testing.T) {
	svc, _, enrollment := setupAttendanceFixture(t)
	ctx := context.Background()

	days := []struct {
		date    string
		present bool
	}{
		{"2026-02-02", true},
		{"2026-02-03", true},
		{"2026-02-04", false},
	}
	for _, day := range days {
		_, err := svc.Mark(ctx, dto.AttendanceMarkRequest{EnrollmentID: enrollment.ID, Date: day.date, Present: day.present})
		require.NoError(t, err)
	}

	summary, err := svc.Percent(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.PresentDays)
	require.Equal(t, int64(3), summary.TotalDays)
	require.Equal(t, 66.67, summary.Percent)
	require.Equal(t, models.AttendanceSeveritySevere, summary.Severity)
}

func TestAttendancePercentZeroDays(t *testing.T) {
	svc, _, enrollment := setupAttendanceFixture(t)

	summary, err := svc.Percent(context.Background(), enrollment.ID)
	require.NoError(t, err)
	require.Zero(t, summary.TotalDays)
	require.Equal(t, 0.0, summary.Percent)
	require.Equal(t, models.AttendanceSeveritySevere, summary.Severity)
}

func TestAttendanceClearOneDateThenAll(t *testing.T) {
	svc, records, enrollment := setupAttendanceFixture(t)
	ctx := context.Background()

	for _, date := range []string{"2026-02-02", "2026-02-03", "2026-02-04"} {
		_, err := svc.Mark(ctx, dto.AttendanceMarkRequest{EnrollmentID: enrollment.ID, Date: date, Present: true})
		require.NoError(t, err)
	}

	date := "2026-02-03"
	cleared, err := svc.Clear(ctx, dto.AttendanceClearRequest{EnrollmentID: enrollment.ID, Date: &date})
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared.Deleted)

	cleared, err = svc.Clear(ctx, dto.AttendanceClearRequest{EnrollmentID: enrollment.ID})
	require.NoError(t, err)
	require.Equal(t, int64(2), cleared.Deleted)

	remaining, err := records.ListByEnrollment(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}
