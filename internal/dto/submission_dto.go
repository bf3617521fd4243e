package dto

import (
	"time"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// GradeSubmissionRequest carries a teacher's grading decision. Marks are
// stored as supplied; the server applies no capping.
type GradeSubmissionRequest struct {
	Marks    *float64 `json:"marks" validate:"required"`
	Release  bool     `json:"release"`
	Feedback string   `json:"feedback" validate:"omitempty,max=4000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint           `json:"id"`
	AssignmentID  uint           `json:"assignment_id"`
	StudentID     uint           `json:"student_id"`
	FileURL       string         `json:"file_url"`
	SubmittedAt   time.Time      `json:"submitted_at"`
	Marks         *float64       `json:"marks"`
	Graded        bool           `json:"graded"`
	Released      bool           `json:"released"`
	Feedback      string         `json:"feedback"`
	AutoGenerated bool           `json:"auto_generated"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Assignment    AssignmentLite `json:"assignment,omitempty"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		StudentID:     model.StudentID,
		FileURL:       model.FileURL,
		SubmittedAt:   model.SubmittedAt,
		Marks:         model.Marks,
		Graded:        model.Graded,
		Released:      model.Released,
		Feedback:      model.Feedback,
		AutoGenerated: model.IsAutoZero(),
		UpdatedAt:     model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			Deadline: model.Assignment.Deadline,
		}
	}

	return response
}
