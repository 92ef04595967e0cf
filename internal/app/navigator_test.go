package app

import (
	"testing"

	"board-reviewer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigatorQuizFromSubjects(t *testing.T) {
	n := NewNavigator()
	require.NoError(t, n.PickSubject(domain.NextQuiz))
	assert.Equal(t, domain.ViewSubjectSelect, n.View)

	require.NoError(t, n.SubjectChosen())
	assert.Equal(t, domain.ViewQuiz, n.View)
	assert.Equal(t, domain.SourceSubjects, n.Source)

	require.NoError(t, n.Back())
	assert.Equal(t, domain.ViewSubjectSelect, n.View, "back from a quiz entered via subjects returns to the picker")
}

func TestNavigatorQuizFromDashboard(t *testing.T) {
	n := NewNavigator()
	require.NoError(t, n.PickSubject(domain.NextDashboard))
	require.NoError(t, n.SubjectChosen())
	assert.Equal(t, domain.ViewSubjectDashboard, n.View)

	require.NoError(t, n.StartPractice())
	assert.Equal(t, domain.ViewQuiz, n.View)
	assert.Equal(t, domain.SourceDashboard, n.Source)

	require.NoError(t, n.Back())
	assert.Equal(t, domain.ViewSubjectDashboard, n.View)

	require.NoError(t, n.Back())
	assert.Equal(t, domain.ViewHome, n.View)
}

func TestNavigatorReviewFlow(t *testing.T) {
	n := NewNavigator()
	require.NoError(t, n.PickSubject(domain.NextQuiz))
	require.NoError(t, n.SubjectChosen())
	require.NoError(t, n.Complete())
	assert.Equal(t, domain.ViewReview, n.View)

	require.NoError(t, n.Restart())
	assert.Equal(t, domain.ViewQuiz, n.View)

	require.NoError(t, n.Complete())
	require.NoError(t, n.NewSubject())
	assert.Equal(t, domain.ViewSubjectSelect, n.View)
	assert.Equal(t, domain.NextQuiz, n.Next)
}

func TestNavigatorRejectsIllegalTransitions(t *testing.T) {
	n := NewNavigator()
	assert.ErrorIs(t, n.SubjectChosen(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, n.Complete(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, n.StartPractice(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, n.Restart(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, n.Back(), domain.ErrInvalidTransition)
	assert.Equal(t, domain.ViewHome, n.View)

	require.NoError(t, n.PickSubject(domain.NextQuiz))
	require.NoError(t, n.SubjectChosen())
	assert.ErrorIs(t, n.OpenSubjectDashboard(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, n.PickSubject(domain.NextQuiz), domain.ErrInvalidTransition)
	assert.Equal(t, domain.ViewQuiz, n.View)

	n.Home()
	assert.Equal(t, domain.ViewHome, n.View)
}

func TestNavigatorDashboards(t *testing.T) {
	n := NewNavigator()
	require.NoError(t, n.OpenOverallDashboard())
	assert.Equal(t, domain.ViewOverallDashboard, n.View)
	require.NoError(t, n.OpenSubjectDashboard())
	assert.Equal(t, domain.ViewSubjectDashboard, n.View)
	require.NoError(t, n.OpenOverallDashboard())
	require.NoError(t, n.Back())
	assert.Equal(t, domain.ViewHome, n.View)
}

func TestRestoreView(t *testing.T) {
	tests := []struct {
		name         string
		saved        string
		hasSubject   bool
		hasQuestions bool
		wantView     domain.View
		wantMode     domain.QuizMode
		wantOK       bool
	}{
		{"quiz", "quiz", false, false, domain.ViewQuiz, domain.ModeQuiz, true},
		{"review", "review", true, true, domain.ViewReview, domain.ModeReview, true},
		{"dashboard with data", "dashboard", true, true, domain.ViewSubjectDashboard, domain.ModeQuiz, true},
		{"dashboard without subject", "dashboard", false, true, domain.ViewHome, domain.ModeQuiz, false},
		{"dashboard without questions", "dashboard", true, false, domain.ViewHome, domain.ModeQuiz, false},
		{"subject picker", "subjects", true, true, domain.ViewHome, domain.ModeQuiz, false},
		{"overall dashboard", "overallDashboard", true, true, domain.ViewHome, domain.ModeQuiz, false},
		{"garbage", "{not json", true, true, domain.ViewHome, domain.ModeQuiz, false},
		{"empty", "", false, false, domain.ViewHome, domain.ModeQuiz, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, mode, ok := RestoreView(tt.saved, tt.hasSubject, tt.hasQuestions)
			assert.Equal(t, tt.wantView, view)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
