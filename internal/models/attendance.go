package models

import "time"

// AttendanceRecord stores a single present/absent mark for an enrollment on
// a given day. The (enrollment, date) pair is unique; marking the same day
// twice overwrites the earlier record.
type AttendanceRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EnrollmentID uint      `gorm:"not null;uniqueIndex:idx_attendance_day" json:"enrollment_id"`
	Date         time.Time `gorm:"not null;uniqueIndex:idx_attendance_day" json:"date"`
	Present      bool      `gorm:"not null" json:"present"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	// AttendanceSeverityGood covers attendance of 90% and above.
	AttendanceSeverityGood = "good"
	// AttendanceSeverityCaution covers attendance in [80, 90).
	AttendanceSeverityCaution = "caution"
	// AttendanceSeverityWarning covers attendance in [75, 80).
	AttendanceSeverityWarning = "warning"
	// AttendanceSeveritySevere covers attendance below 75%.
	AttendanceSeveritySevere = "severe"
)

// AttendanceSeverity maps an attendance percentage onto a severity label.
func AttendanceSeverity(percent float64) string {
	switch {
	case percent >= 90:
		return AttendanceSeverityGood
	case percent >= 80:
		return AttendanceSeverityCaution
	case percent >= 75:
		return AttendanceSeverityWarning
	default:
		return AttendanceSeveritySevere
	}
}
