package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classtrack-api/internal/models"
)

// SubmissionRepository defines data operations for submissions. The unique
// (assignment_id, student_id) index is the enforcement point for the
// one-submission-per-pair invariant; the conditional writes below lean on it
// instead of read-check-then-write.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByPair(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	ListByAssignmentIDs(ctx context.Context, assignmentIDs []uint, studentID uint) ([]models.Submission, error)
	Upsert(ctx context.Context, submission *models.Submission) error
	CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error)
	DeleteAutoZero(ctx context.Context, assignmentID, studentID uint) (int64, error)
	Update(ctx context.Context, submission *models.Submission) error
	AppendHistory(ctx context.Context, entry *models.SubmissionHistory) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Preload("Assignment").First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByPair(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByAssignmentIDs(ctx context.Context, assignmentIDs []uint, studentID uint) ([]models.Submission, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}

	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id IN ?", assignmentIDs).
		Where("student_id = ?", studentID).
		Find(&submissions).Error
	return submissions, err
}

// Upsert inserts the submission or, when the student already holds one for
// the assignment, replaces the file and resets any earlier grading. Two
// concurrent uploads for the same pair serialize on the unique index.
func (r *submissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_url", "submitted_at", "marks", "graded", "released", "feedback", "updated_at"}),
	}).Create(submission).Error
}

// CreateIfAbsent inserts the submission only when no row exists for the
// pair yet. It reports whether a row was written, so repeated reconciliation
// stays idempotent without a prior read.
func (r *submissionRepository) CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(submission)
	return result.RowsAffected > 0, result.Error
}

// DeleteAutoZero removes a system-generated zero submission for the pair.
// Rows holding a student file or non-zero marks are never touched.
func (r *submissionRepository) DeleteAutoZero(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Where("graded = ?", true).
		Where("file_url = ?", "").
		Where("marks = ?", 0).
		Delete(&models.Submission{})
	return result.RowsAffected, result.Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) AppendHistory(ctx context.Context, entry *models.SubmissionHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
