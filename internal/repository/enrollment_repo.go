package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// EnrollmentRepository defines data operations for classroom rosters.
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	GetByPair(ctx context.Context, studentID, classroomID uint) (models.Enrollment, error)
	Exists(ctx context.Context, studentID, classroomID uint) (bool, error)
	ListStudentIDs(ctx context.Context, classroomID uint) ([]uint, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).Preload("Classroom").First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) GetByPair(ctx context.Context, studentID, classroomID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Classroom").
		Where("student_id = ?", studentID).
		Where("classroom_id = ?", classroomID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) Exists(ctx context.Context, studentID, classroomID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ?", studentID).
		Where("classroom_id = ?", classroomID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) ListStudentIDs(ctx context.Context, classroomID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("classroom_id = ?", classroomID).
		Order("student_id").
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

// Delete removes the enrollment together with its attendance records.
func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("enrollment_id = ?", id).Delete(&models.AttendanceRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Enrollment{}, id).Error
	})
}
