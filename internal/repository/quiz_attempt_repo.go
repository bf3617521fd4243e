package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// QuizAttemptRepository defines data operations for quiz attempts. As with
// submissions, the unique (quiz_id, student_id) index backs every
// conditional write.
type QuizAttemptRepository interface {
	GetByID(ctx context.Context, id uint) (models.QuizAttempt, error)
	GetByPair(ctx context.Context, quizID, studentID uint) (models.QuizAttempt, error)
	Upsert(ctx context.Context, attempt *models.QuizAttempt) error
	CreateIfAbsent(ctx context.Context, attempt *models.QuizAttempt) (bool, error)
	DeleteAutoSubmitted(ctx context.Context, quizID, studentID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type quizAttemptRepository struct {
	db *gorm.DB
}

// NewQuizAttemptRepository instantiates the repository.
func NewQuizAttemptRepository(db *gorm.DB) QuizAttemptRepository {
	return &quizAttemptRepository{db: db}
}

func (r *quizAttemptRepository) GetByID(ctx context.Context, id uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.db.WithContext(ctx).Preload("Quiz").First(&attempt, id).Error; err != nil {
		return models.QuizAttempt{}, err
	}

	return attempt, nil
}

func (r *quizAttemptRepository) GetByPair(ctx context.Context, quizID, studentID uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Where("student_id = ?", studentID).
		First(&attempt).Error; err != nil {
		return models.QuizAttempt{}, err
	}

	return attempt, nil
}

// Upsert records a scored attempt, replacing an earlier auto-submitted row
// for the same pair if one slipped in concurrently.
func (r *quizAttemptRepository) Upsert(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quiz_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "graded", "auto_submitted", "submitted_at", "answers", "updated_at"}),
	}).Create(attempt).Error
}

// CreateIfAbsent inserts the attempt only when the pair holds none yet and
// reports whether a row was written.
func (r *quizAttemptRepository) CreateIfAbsent(ctx context.Context, attempt *models.QuizAttempt) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quiz_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(attempt)
	return result.RowsAffected > 0, result.Error
}

// DeleteAutoSubmitted removes a system-generated zero attempt for the pair.
// Attempts the student actually took are never touched.
func (r *quizAttemptRepository) DeleteAutoSubmitted(ctx context.Context, quizID, studentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Where("student_id = ?", studentID).
		Where("auto_submitted = ?", true).
		Delete(&models.QuizAttempt{})
	return result.RowsAffected, result.Error
}

func (r *quizAttemptRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.QuizAttempt{}, id).Error
}
