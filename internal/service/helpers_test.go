package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/classtrack-api/internal/models"
	"github.com/noah-isme/classtrack-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func fixedClock(instant time.Time) func() time.Time {
	return func() time.Time { return instant }
}

// makeFileHeader builds a real multipart.FileHeader carrying the given
// content, the same shape fiber hands to the service.
func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF\n")
}

type stubUploader struct {
	uploads int
	url     string
	err     error
}

func (s *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	s.uploads++
	if s.err != nil {
		return "", s.err
	}
	if s.url != "" {
		return s.url, nil
	}
	return "https://cdn.example/" + name, nil
}

type recordingNotifier struct {
	events []ProgressEvent
}

func (r *recordingNotifier) Publish(_ context.Context, event ProgressEvent) {
	r.events = append(r.events, event)
}

type memoryClassroomRepo struct {
	classrooms map[uint]models.Classroom
	nextID     uint
}

func newMemoryClassroomRepo() *memoryClassroomRepo {
	return &memoryClassroomRepo{classrooms: make(map[uint]models.Classroom), nextID: 1}
}

func (m *memoryClassroomRepo) GetByID(_ context.Context, id uint) (models.Classroom, error) {
	classroom, ok := m.classrooms[id]
	if !ok {
		return models.Classroom{}, gorm.ErrRecordNotFound
	}
	return classroom, nil
}

func (m *memoryClassroomRepo) Create(_ context.Context, classroom *models.Classroom) error {
	if classroom.ID == 0 {
		classroom.ID = m.nextID
		m.nextID++
	}
	m.classrooms[classroom.ID] = *classroom
	return nil
}

func (m *memoryClassroomRepo) Update(_ context.Context, classroom *models.Classroom) error {
	if _, ok := m.classrooms[classroom.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.classrooms[classroom.ID] = *classroom
	return nil
}

type memoryEnrollmentRepo struct {
	classrooms  *memoryClassroomRepo
	enrollments map[uint]models.Enrollment
	nextID      uint
}

func newMemoryEnrollmentRepo(classrooms *memoryClassroomRepo) *memoryEnrollmentRepo {
	return &memoryEnrollmentRepo{
		classrooms:  classrooms,
		enrollments: make(map[uint]models.Enrollment),
		nextID:      1,
	}
}

func (m *memoryEnrollmentRepo) GetByID(_ context.Context, id uint) (models.Enrollment, error) {
	enrollment, ok := m.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	if m.classrooms != nil {
		if classroom, ok := m.classrooms.classrooms[enrollment.ClassroomID]; ok {
			enrollment.Classroom = classroom
		}
	}
	return enrollment, nil
}

func (m *memoryEnrollmentRepo) GetByPair(_ context.Context, studentID, classroomID uint) (models.Enrollment, error) {
	for _, enrollment := range m.enrollments {
		if enrollment.StudentID == studentID && enrollment.ClassroomID == classroomID {
			return enrollment, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) Exists(ctx context.Context, studentID, classroomID uint) (bool, error) {
	_, err := m.GetByPair(ctx, studentID, classroomID)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *memoryEnrollmentRepo) ListStudentIDs(_ context.Context, classroomID uint) ([]uint, error) {
	ids := make([]uint, 0)
	for _, enrollment := range m.enrollments {
		if enrollment.ClassroomID == classroomID {
			ids = append(ids, enrollment.StudentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memoryEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	for _, existing := range m.enrollments {
		if existing.StudentID == enrollment.StudentID && existing.ClassroomID == enrollment.ClassroomID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = m.nextID
	enrollment.CreatedAt = time.Now()
	m.enrollments[m.nextID] = *enrollment
	m.nextID++
	return nil
}

func (m *memoryEnrollmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.enrollments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.enrollments, id)
	return nil
}

type memoryAttendanceRepo struct {
	records map[string]models.AttendanceRecord
	nextID  uint
}

func newMemoryAttendanceRepo() *memoryAttendanceRepo {
	return &memoryAttendanceRepo{records: make(map[string]models.AttendanceRecord), nextID: 1}
}

func attendanceKey(enrollmentID uint, date time.Time) string {
	return fmt.Sprintf("%d:%s", enrollmentID, date.UTC().Format("2006-01-02"))
}

func (m *memoryAttendanceRepo) Upsert(_ context.Context, record *models.AttendanceRecord) error {
	key := attendanceKey(record.EnrollmentID, record.Date)
	if existing, ok := m.records[key]; ok {
		record.ID = existing.ID
	} else {
		record.ID = m.nextID
		m.nextID++
	}
	record.UpdatedAt = time.Now()
	m.records[key] = *record
	return nil
}

func (m *memoryAttendanceRepo) DeleteByDate(_ context.Context, enrollmentID uint, date time.Time) (int64, error) {
	key := attendanceKey(enrollmentID, date)
	if _, ok := m.records[key]; !ok {
		return 0, nil
	}
	delete(m.records, key)
	return 1, nil
}

func (m *memoryAttendanceRepo) DeleteAll(_ context.Context, enrollmentID uint) (int64, error) {
	var deleted int64
	for key, record := range m.records {
		if record.EnrollmentID == enrollmentID {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memoryAttendanceRepo) Tally(_ context.Context, enrollmentID uint) (repository.AttendanceTally, error) {
	tally := repository.AttendanceTally{}
	for _, record := range m.records {
		if record.EnrollmentID != enrollmentID {
			continue
		}
		tally.Total++
		if record.Present {
			tally.Present++
		}
	}
	return tally, nil
}

func (m *memoryAttendanceRepo) ListByEnrollment(_ context.Context, enrollmentID uint) ([]models.AttendanceRecord, error) {
	results := make([]models.AttendanceRecord, 0)
	for _, record := range m.records {
		if record.EnrollmentID == enrollmentID {
			results = append(results, record)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date.Before(results[j].Date) })
	return results, nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) ListVisibleByClassroom(_ context.Context, classroomID uint) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0)
	for _, assignment := range m.assignments {
		if assignment.ClassroomID == classroomID && assignment.Visible {
			results = append(results, assignment)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if assignment.ID == 0 {
		assignment.ID = m.nextID
		m.nextID++
	} else if assignment.ID >= m.nextID {
		m.nextID = assignment.ID + 1
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

type memorySubmissionRepo struct {
	assignments *memoryAssignmentRepo
	submissions map[uint]models.Submission
	history     []models.SubmissionHistory
	nextID      uint
}

func newMemorySubmissionRepo(assignments *memoryAssignmentRepo) *memorySubmissionRepo {
	return &memorySubmissionRepo{
		assignments: assignments,
		submissions: make(map[uint]models.Submission),
		nextID:      1,
	}
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	if m.assignments != nil {
		if assignment, ok := m.assignments.assignments[submission.AssignmentID]; ok {
			submission.Assignment = assignment
		}
	}
	return submission, nil
}

func (m *memorySubmissionRepo) GetByPair(_ context.Context, assignmentID, studentID uint) (models.Submission, error) {
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memorySubmissionRepo) ListByAssignmentIDs(_ context.Context, assignmentIDs []uint, studentID uint) ([]models.Submission, error) {
	wanted := make(map[uint]struct{}, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = struct{}{}
	}

	results := make([]models.Submission, 0)
	for _, submission := range m.submissions {
		if submission.StudentID != studentID {
			continue
		}
		if _, ok := wanted[submission.AssignmentID]; ok {
			results = append(results, submission)
		}
	}
	return results, nil
}

func (m *memorySubmissionRepo) Upsert(ctx context.Context, submission *models.Submission) error {
	if existing, err := m.GetByPair(ctx, submission.AssignmentID, submission.StudentID); err == nil {
		submission.ID = existing.ID
		submission.CreatedAt = existing.CreatedAt
	} else {
		submission.ID = m.nextID
		submission.CreatedAt = time.Now()
		m.nextID++
	}
	submission.UpdatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error) {
	if _, err := m.GetByPair(ctx, submission.AssignmentID, submission.StudentID); err == nil {
		return false, nil
	}
	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = submission.CreatedAt
	m.submissions[m.nextID] = *submission
	m.nextID++
	return true, nil
}

func (m *memorySubmissionRepo) DeleteAutoZero(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	submission, err := m.GetByPair(ctx, assignmentID, studentID)
	if err != nil {
		return 0, nil
	}
	if !submission.IsAutoZero() {
		return 0, nil
	}
	delete(m.submissions, submission.ID)
	return 1, nil
}

func (m *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	submission.UpdatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) AppendHistory(_ context.Context, entry *models.SubmissionHistory) error {
	entry.ID = uint(len(m.history) + 1)
	m.history = append(m.history, *entry)
	return nil
}

type memoryQuizRepo struct {
	quizzes map[uint]models.Quiz
	nextID  uint
}

func newMemoryQuizRepo() *memoryQuizRepo {
	return &memoryQuizRepo{quizzes: make(map[uint]models.Quiz), nextID: 1}
}

func (m *memoryQuizRepo) GetByID(_ context.Context, id uint) (models.Quiz, error) {
	quiz, ok := m.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (m *memoryQuizRepo) ListVisibleByClassroom(_ context.Context, classroomID uint) ([]models.Quiz, error) {
	results := make([]models.Quiz, 0)
	for _, quiz := range m.quizzes {
		if quiz.ClassroomID == classroomID && quiz.Visible {
			results = append(results, quiz)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryQuizRepo) Create(_ context.Context, quiz *models.Quiz) error {
	if quiz.ID == 0 {
		quiz.ID = m.nextID
		m.nextID++
	} else if quiz.ID >= m.nextID {
		m.nextID = quiz.ID + 1
	}
	m.quizzes[quiz.ID] = *quiz
	return nil
}

func (m *memoryQuizRepo) Update(_ context.Context, quiz *models.Quiz) error {
	if _, ok := m.quizzes[quiz.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.quizzes[quiz.ID] = *quiz
	return nil
}

func (m *memoryQuizRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.quizzes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.quizzes, id)
	return nil
}

type memoryAttemptRepo struct {
	quizzes  *memoryQuizRepo
	attempts map[uint]models.QuizAttempt
	nextID   uint
}

func newMemoryAttemptRepo(quizzes *memoryQuizRepo) *memoryAttemptRepo {
	return &memoryAttemptRepo{
		quizzes:  quizzes,
		attempts: make(map[uint]models.QuizAttempt),
		nextID:   1,
	}
}

func (m *memoryAttemptRepo) GetByID(_ context.Context, id uint) (models.QuizAttempt, error) {
	attempt, ok := m.attempts[id]
	if !ok {
		return models.QuizAttempt{}, gorm.ErrRecordNotFound
	}
	if m.quizzes != nil {
		if quiz, ok := m.quizzes.quizzes[attempt.QuizID]; ok {
			attempt.Quiz = quiz
		}
	}
	return attempt, nil
}

func (m *memoryAttemptRepo) GetByPair(_ context.Context, quizID, studentID uint) (models.QuizAttempt, error) {
	for _, attempt := range m.attempts {
		if attempt.QuizID == quizID && attempt.StudentID == studentID {
			return attempt, nil
		}
	}
	return models.QuizAttempt{}, gorm.ErrRecordNotFound
}

func (m *memoryAttemptRepo) Upsert(ctx context.Context, attempt *models.QuizAttempt) error {
	if existing, err := m.GetByPair(ctx, attempt.QuizID, attempt.StudentID); err == nil {
		attempt.ID = existing.ID
		attempt.CreatedAt = existing.CreatedAt
	} else {
		attempt.ID = m.nextID
		attempt.CreatedAt = time.Now()
		m.nextID++
	}
	attempt.UpdatedAt = time.Now()
	m.attempts[attempt.ID] = *attempt
	return nil
}

func (m *memoryAttemptRepo) CreateIfAbsent(ctx context.Context, attempt *models.QuizAttempt) (bool, error) {
	if _, err := m.GetByPair(ctx, attempt.QuizID, attempt.StudentID); err == nil {
		return false, nil
	}
	attempt.ID = m.nextID
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = attempt.CreatedAt
	m.attempts[m.nextID] = *attempt
	m.nextID++
	return true, nil
}

func (m *memoryAttemptRepo) DeleteAutoSubmitted(ctx context.Context, quizID, studentID uint) (int64, error) {
	attempt, err := m.GetByPair(ctx, quizID, studentID)
	if err != nil {
		return 0, nil
	}
	if !attempt.AutoSubmitted {
		return 0, nil
	}
	delete(m.attempts, attempt.ID)
	return 1, nil
}

func (m *memoryAttemptRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.attempts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.attempts, id)
	return nil
}
