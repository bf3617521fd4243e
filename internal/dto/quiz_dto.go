package dto

import (
	"time"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// QuestionAnswer carries the option ids a student selected for one question.
type QuestionAnswer struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	OptionIDs  []uint `json:"option_ids"`
}

// QuizAttemptRequest is the payload for taking a quiz.
type QuizAttemptRequest struct {
	Answers []QuestionAnswer `json:"answers" validate:"required,dive"`
}

// QuizAttemptResponse serializes a quiz attempt.
type QuizAttemptResponse struct {
	ID            uint      `json:"id"`
	QuizID        uint      `json:"quiz_id"`
	StudentID     uint      `json:"student_id"`
	Score         float64   `json:"score"`
	Graded        bool      `json:"graded"`
	AutoSubmitted bool      `json:"auto_submitted"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// BestScoreResponse reports the best recorded score for a (quiz, student).
type BestScoreResponse struct {
	QuizID    uint    `json:"quiz_id"`
	StudentID uint    `json:"student_id"`
	BestScore float64 `json:"best_score"`
}

// NewQuizAttemptResponse converts a QuizAttempt model into a DTO.
func NewQuizAttemptResponse(model models.QuizAttempt) QuizAttemptResponse {
	return QuizAttemptResponse{
		ID:            model.ID,
		QuizID:        model.QuizID,
		StudentID:     model.StudentID,
		Score:         model.Score,
		Graded:        model.Graded,
		AutoSubmitted: model.AutoSubmitted,
		SubmittedAt:   model.SubmittedAt,
	}
}
