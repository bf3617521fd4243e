package models

import "time"

// Assignment represents a classroom assignment definition. The deadline and
// visibility remain editable at any time, including after the deadline has
// passed; reconciliation reacts to such edits on the next standing read.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	ClassroomID uint         `gorm:"not null;index" json:"classroom_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Deadline    time.Time    `gorm:"not null" json:"deadline"`
	Visible     bool         `gorm:"not null;default:true" json:"visible"`
	FileURL     string       `gorm:"size:512" json:"file_url"`
	MaxMarks    float64      `gorm:"not null;default:10" json:"max_marks"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Classroom   Classroom    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions []Submission `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.Deadline)
}
