package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// AssignmentRepository defines data operations for assignments.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	ListVisibleByClassroom(ctx context.Context, classroomID uint) ([]models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListVisibleByClassroom(ctx context.Context, classroomID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Where("visible = ?", true).
		Order("deadline").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// Delete removes the assignment together with its submissions and their
// history entries.
func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subQuery := tx.Model(&models.Submission{}).Select("id").Where("assignment_id = ?", id)
		if err := tx.Where("submission_id IN (?)", subQuery).Delete(&models.SubmissionHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Assignment{}, id).Error
	})
}
