package dto

import (
	"time"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// EnrollRequest adds a student to a classroom roster.
type EnrollRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// EnrollmentResponse serializes an enrollment.
type EnrollmentResponse struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"student_id"`
	ClassroomID uint      `json:"classroom_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEnrollmentResponse converts an enrollment into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		ClassroomID: model.ClassroomID,
		CreatedAt:   model.CreatedAt,
	}
}
