package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// AttendanceTally carries the raw counts behind an attendance percentage.
type AttendanceTally struct {
	Present int64
	Total   int64
}

// AttendanceRepository defines data operations for attendance records.
type AttendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	DeleteByDate(ctx context.Context, enrollmentID uint, date time.Time) (int64, error)
	DeleteAll(ctx context.Context, enrollmentID uint) (int64, error)
	Tally(ctx context.Context, enrollmentID uint) (AttendanceTally, error)
	ListByEnrollment(ctx context.Context, enrollmentID uint) ([]models.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates the repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert inserts the record or overwrites the present flag for an existing
// (enrollment, date) pair in a single atomic statement.
func (r *attendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"present", "updated_at"}),
	}).Create(record).Error
}

func (r *attendanceRepository) DeleteByDate(ctx context.Context, enrollmentID uint, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Where("date = ?", date).
		Delete(&models.AttendanceRecord{})
	return result.RowsAffected, result.Error
}

func (r *attendanceRepository) DeleteAll(ctx context.Context, enrollmentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Delete(&models.AttendanceRecord{})
	return result.RowsAffected, result.Error
}

func (r *attendanceRepository) Tally(ctx context.Context, enrollmentID uint) (AttendanceTally, error) {
	var tally AttendanceTally
	err := r.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN present THEN 1 ELSE 0 END), 0) AS present").
		Where("enrollment_id = ?", enrollmentID).
		Scan(&tally).Error
	return tally, err
}

func (r *attendanceRepository) ListByEnrollment(ctx context.Context, enrollmentID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("date").
		Find(&records).Error
	return records, err
}
