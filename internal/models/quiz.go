package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz is a timed multiple-choice quiz belonging to a classroom. The window
// [StartsAt, EndsAt] bounds when attempts are accepted; both edges remain
// teacher-editable after the fact.
type Quiz struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	ClassroomID          uint       `gorm:"not null;index" json:"classroom_id"`
	Title                string     `gorm:"size:255;not null" json:"title"`
	StartsAt             time.Time  `gorm:"not null" json:"starts_at"`
	EndsAt               time.Time  `gorm:"not null" json:"ends_at"`
	Visible              bool       `gorm:"not null;default:true" json:"visible"`
	AllowMultipleCorrect bool       `gorm:"not null;default:false" json:"allow_multiple_correct"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	Classroom            Classroom  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Questions            []Question `gorm:"constraint:OnDelete:CASCADE" json:"questions"`
}

// IsOpen reports whether the reference instant falls inside the window.
func (q Quiz) IsOpen(reference time.Time) bool {
	return !reference.Before(q.StartsAt) && !reference.After(q.EndsAt)
}

// HasClosed reports whether the window end has already passed.
func (q Quiz) HasClosed(reference time.Time) bool {
	return reference.After(q.EndsAt)
}

// Question belongs to a quiz and carries an ordered set of options.
type Question struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	QuizID   uint     `gorm:"not null;index" json:"quiz_id"`
	Text     string   `gorm:"type:text;not null" json:"text"`
	Position int      `gorm:"not null;default:0" json:"position"`
	Options  []Option `gorm:"constraint:OnDelete:CASCADE" json:"options"`
}

// CorrectOptionIDs returns the set of option ids flagged correct.
func (q Question) CorrectOptionIDs() map[uint]struct{} {
	correct := make(map[uint]struct{})
	for _, option := range q.Options {
		if option.IsCorrect {
			correct[option.ID] = struct{}{}
		}
	}
	return correct
}

// Option is a single answer choice. More than one option per question may
// be flagged correct.
type Option struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:512;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
}

// QuizAttempt is the single attempt a student may hold for a quiz.
// Reactivation deletes the row entirely so the student may attempt again.
type QuizAttempt struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	QuizID        uint           `gorm:"not null;uniqueIndex:idx_attempt_pair" json:"quiz_id"`
	StudentID     uint           `gorm:"not null;uniqueIndex:idx_attempt_pair" json:"student_id"`
	Score         float64        `gorm:"not null;default:0" json:"score"`
	Graded        bool           `gorm:"not null;default:false" json:"graded"`
	AutoSubmitted bool           `gorm:"not null;default:false" json:"auto_submitted"`
	SubmittedAt   time.Time      `gorm:"not null" json:"submitted_at"`
	Answers       datatypes.JSON `json:"answers"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Quiz          Quiz           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student       Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
