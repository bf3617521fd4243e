package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQuizWindow(t *testing.T) {
	quiz := Quiz{
		StartsAt: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}

	require.False(t, quiz.IsOpen(quiz.StartsAt.Add(-time.Second)))
	require.True(t, quiz.IsOpen(quiz.StartsAt))
	require.True(t, quiz.IsOpen(quiz.EndsAt))
	require.False(t, quiz.IsOpen(quiz.EndsAt.Add(time.Second)))

	require.False(t, quiz.HasClosed(quiz.EndsAt))
	require.True(t, quiz.HasClosed(quiz.EndsAt.Add(time.Second)))
}

func TestCorrectOptionIDs(t *testing.T) {
	question := Question{Options: []Option{
		{ID: 1, IsCorrect: true},
		{ID: 2},
		{ID: 3, IsCorrect: true},
	}}

	correct := question.CorrectOptionIDs()
	require.Len(t, correct, 2)
	require.Contains(t, correct, uint(1))
	require.Contains(t, correct, uint(3))
}
