package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// ClassroomRepository defines data operations for classrooms.
type ClassroomRepository interface {
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository instantiates the repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Save(classroom).Error
}
