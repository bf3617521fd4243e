package models

import "time"

// Classroom groups students under a single teacher.
type Classroom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enrollment ties a student to a classroom. It anchors the attendance
// records for the pair and is unique per (student, classroom).
type Enrollment struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	StudentID   uint               `gorm:"not null;uniqueIndex:idx_enrollment_pair" json:"student_id"`
	ClassroomID uint               `gorm:"not null;uniqueIndex:idx_enrollment_pair" json:"classroom_id"`
	CreatedAt   time.Time          `json:"created_at"`
	Student     Student            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Classroom   Classroom          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"classroom"`
	Attendance  []AttendanceRecord `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
