package app

import (
	"testing"
	"time"

	"board-reviewer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeAnswers(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	answers := []domain.UserAnswer{
		{QuestionID: "q1", IsCorrect: false, Timestamp: t0, SubjectAbbreviation: "FAR"},
		{QuestionID: "q1", IsCorrect: true, Timestamp: t0.Add(time.Hour), SubjectAbbreviation: "FAR"},
		{QuestionID: "q2", IsCorrect: false, Timestamp: t0, SubjectAbbreviation: "FAR"},
		{QuestionID: "q1", IsCorrect: true, Timestamp: t0, SubjectAbbreviation: "TAX"},
	}

	far := SummarizeAnswers(answers, "FAR", 4)
	assert.Equal(t, 3, far.Attempts)
	assert.Equal(t, 1, far.Correct)
	assert.Equal(t, 2, far.Seen)
	assert.Equal(t, 1, far.Mastered, "q1's latest answer is correct")
	assert.InDelta(t, 1.0/3, far.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, far.Coverage, 1e-9)

	all := SummarizeAnswers(answers, "", 0)
	assert.Equal(t, 4, all.Attempts)
	assert.Equal(t, 3, all.Seen, "same question id in two subjects counts twice")
	assert.Zero(t, all.Coverage)

	empty := SummarizeAnswers(nil, "AUD", 10)
	assert.Zero(t, empty.Accuracy)
	assert.Zero(t, empty.Coverage)
}

func TestDailyActivity(t *testing.T) {
	loc := time.FixedZone("PHT", 8*3600)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, loc)
	answers := []domain.UserAnswer{
		{IsCorrect: true, Timestamp: now, SubjectAbbreviation: "FAR"},
		{IsCorrect: false, Timestamp: now.Add(-time.Hour), SubjectAbbreviation: "FAR"},
		// 2024-05-09 17:00 UTC is 2024-05-10 01:00 in PHT.
		{IsCorrect: true, Timestamp: time.Date(2024, 5, 9, 17, 0, 0, 0, time.UTC), SubjectAbbreviation: "TAX"},
		{IsCorrect: true, Timestamp: now.AddDate(0, 0, -2), SubjectAbbreviation: "FAR"},
		{IsCorrect: true, Timestamp: now.AddDate(0, 0, -30), SubjectAbbreviation: "FAR"},
	}

	days := DailyActivity(answers, "", loc, now, 3)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-05-08", days[0].Date)
	assert.Equal(t, DailyCount{Date: "2024-05-08", Attempts: 1, Correct: 1}, days[0])
	assert.Equal(t, DailyCount{Date: "2024-05-09"}, days[1])
	assert.Equal(t, DailyCount{Date: "2024-05-10", Attempts: 3, Correct: 2}, days[2])

	far := DailyActivity(answers, "FAR", loc, now, 1)
	require.Len(t, far, 1)
	assert.Equal(t, 2, far[0].Attempts)

	assert.Nil(t, DailyActivity(answers, "", loc, now, 0))
}
