package dto

import (
	"time"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// AttendanceDateLayout is the wire format for attendance dates.
const AttendanceDateLayout = "2006-01-02"

// AttendanceMarkRequest records a present/absent mark for one day.
type AttendanceMarkRequest struct {
	EnrollmentID uint   `json:"enrollment_id" validate:"required,gt=0"`
	Date         string `json:"date" validate:"required"`
	Present      bool   `json:"present"`
}

// AttendanceClearRequest deletes one day's record, or every record for the
// enrollment when no date is given.
type AttendanceClearRequest struct {
	EnrollmentID uint    `json:"enrollment_id" validate:"required,gt=0"`
	Date         *string `json:"date"`
}

// AttendanceResponse serializes a single attendance record.
type AttendanceResponse struct {
	ID           uint      `json:"id"`
	EnrollmentID uint      `json:"enrollment_id"`
	Date         string    `json:"date"`
	Present      bool      `json:"present"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AttendanceClearResponse reports how many records a clear removed.
type AttendanceClearResponse struct {
	EnrollmentID uint  `json:"enrollment_id"`
	Deleted      int64 `json:"deleted"`
}

// AttendancePercentResponse summarizes attendance standing for an enrollment.
type AttendancePercentResponse struct {
	EnrollmentID uint    `json:"enrollment_id"`
	PresentDays  int64   `json:"present_days"`
	TotalDays    int64   `json:"total_days"`
	Percent      float64 `json:"percent"`
	Severity     string  `json:"severity"`
}

// NewAttendanceResponse converts an attendance record into a DTO.
func NewAttendanceResponse(model models.AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:           model.ID,
		EnrollmentID: model.EnrollmentID,
		Date:         model.Date.Format(AttendanceDateLayout),
		Present:      model.Present,
		UpdatedAt:    model.UpdatedAt,
	}
}
