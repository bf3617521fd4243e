package dto

import "time"

// StandingResponse is the aggregated view of a student's progress in a
// classroom. AttendancePercent is informational and does not enter the
// weighted final grade.
type StandingResponse struct {
	StudentID          uint      `json:"student_id"`
	ClassroomID        uint      `json:"classroom_id"`
	AssignmentAverage  float64   `json:"assignment_average"`
	BestQuizScore      float64   `json:"best_quiz_score"`
	AttendancePercent  float64   `json:"attendance_percent"`
	AttendanceSeverity string    `json:"attendance_severity"`
	FinalGrade         float64   `json:"final_grade"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}
