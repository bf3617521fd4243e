package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// QuizRepository defines data operations for quizzes and their questions.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	ListVisibleByClassroom(ctx context.Context, classroomID uint) ([]models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates the repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Preload("Questions.Options").
		First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (r *quizRepository) ListVisibleByClassroom(ctx context.Context, classroomID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Where("visible = ?", true).
		Order("starts_at").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Save(quiz).Error
}

// Delete removes the quiz together with its questions, options and attempts.
func (r *quizRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questionIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id = ?", id)
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, id).Error
	})
}
