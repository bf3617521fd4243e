package models

import "time"

// Submission is the single submission a student may hold for an assignment.
// A row with Graded set, no file and zero marks is system generated: it
// stands in for a missed deadline and its SubmittedAt equals the deadline.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_pair" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_pair" json:"student_id"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	Marks        *float64   `json:"marks"`
	Graded       bool       `gorm:"not null;default:false" json:"graded"`
	Released     bool       `gorm:"not null;default:false" json:"released"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsAutoZero reports whether this submission was generated by deadline
// reconciliation rather than uploaded by the student.
func (s Submission) IsAutoZero() bool {
	return s.Graded && s.FileURL == "" && s.Marks != nil && *s.Marks == 0
}

// CountsTowardAverage reports whether the marks may contribute to a grade
// average. Unreleased or ungraded work never counts.
func (s Submission) CountsTowardAverage() bool {
	return s.Graded && s.Released && s.Marks != nil
}

const (
	// SubmissionActionFirst tags the history entry for an initial upload.
	SubmissionActionFirst = "first_submission"
	// SubmissionActionResubmit tags the history entry for a replacement upload.
	SubmissionActionResubmit = "resubmission"
)

// SubmissionHistory is an append-only audit trail of student uploads. It is
// never read back by grading logic.
type SubmissionHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Action       string    `gorm:"size:32;not null" json:"action"`
	RecordedAt   time.Time `gorm:"not null" json:"recorded_at"`
}
