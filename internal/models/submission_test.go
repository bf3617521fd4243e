package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsAutoZero(t *testing.T) {
	zero := 0.0
	marks := 7.5

	autoZero := Submission{Graded: true, Marks: &zero}
	require.True(t, autoZero.IsAutoZero())

	gradedZeroWithFile := Submission{Graded: true, Marks: &zero, FileURL: "https://cdn.example/f.pdf"}
	require.False(t, gradedZeroWithFile.IsAutoZero())

	gradedWork := Submission{Graded: true, Marks: &marks}
	require.False(t, gradedWork.IsAutoZero())

	ungraded := Submission{Marks: &zero}
	require.False(t, ungraded.IsAutoZero())
}

func TestCountsTowardAverage(t *testing.T) {
	marks := 6.0

	require.True(t, Submission{Graded: true, Released: true, Marks: &marks}.CountsTowardAverage())
	require.False(t, Submission{Graded: true, Released: false, Marks: &marks}.CountsTowardAverage())
	require.False(t, Submission{Graded: false, Released: true, Marks: &marks}.CountsTowardAverage())
	require.False(t, Submission{Graded: true, Released: true}.CountsTowardAverage())
}

func TestAssignmentIsPastDue(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	assignment := Assignment{Deadline: deadline}

	require.False(t, assignment.IsPastDue(deadline))
	require.False(t, assignment.IsPastDue(deadline.Add(-time.Second)))
	require.True(t, assignment.IsPastDue(deadline.Add(time.Second)))
}
