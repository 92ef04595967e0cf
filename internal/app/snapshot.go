package app

import "board-reviewer/internal/domain"

// recentDays is the window of the dashboards' activity chart.
const recentDays = 7

// Snapshot is what a client renders. Correct answers and explanations are
// only included once the question has been answered.
type Snapshot struct {
	View       domain.View       `json:"view"`
	QuizSource domain.QuizSource `json:"quizSource"`
	NextView   domain.NextView   `json:"nextView,omitempty"`
	Subject    string            `json:"subject,omitempty"`
	Loading    string            `json:"loading,omitempty"`
	Catalog    []domain.Subject  `json:"catalog"`
	Quiz       *QuizState        `json:"quiz,omitempty"`
	Points     PointsState       `json:"points"`
	CheckIn    CheckInStatus     `json:"checkIn"`
	Dashboard  *DashboardState   `json:"dashboard,omitempty"`
}

// QuizState describes the current question of a quiz or review.
type QuizState struct {
	Subject  string          `json:"subject"`
	Mode     domain.QuizMode `json:"mode"`
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	Question QuestionView    `json:"question"`
	Answered int             `json:"answered"`
	Correct  int             `json:"correct"`
	// Results lists every answer of the pass in question order; set in review.
	Results []domain.UserAnswer `json:"results,omitempty"`
}

// QuestionView is a question as shown to the user.
type QuestionView struct {
	ID              string          `json:"id"`
	Text            string          `json:"text"`
	Choices         []domain.Choice `json:"choices"`
	Items           []string        `json:"items,omitempty"`
	Selected        string          `json:"selectedAnswerId,omitempty"`
	IsCorrect       bool            `json:"isCorrect,omitempty"`
	CorrectAnswerID string          `json:"correctAnswerId,omitempty"`
	Explanation     string          `json:"explanation,omitempty"`
}

// PointsState is the ledger summary.
type PointsState struct {
	Total          int     `json:"totalPoints"`
	LevelPoints    int     `json:"levelPoints"`
	Level          int     `json:"level"`
	Progress       float64 `json:"progress"`
	NextLevelAt    int     `json:"nextLevelAt"`
	CorrectAnswers int     `json:"correctAnswers"`
}

// CheckInStatus tells the client whether today's reward can be claimed.
type CheckInStatus struct {
	Available       bool   `json:"available"`
	LastCheckInDate string `json:"lastCheckInDate,omitempty"`
	Streak          int    `json:"streak"`
	Day             int    `json:"day"`
	NextReward      int    `json:"nextReward"`
}

// DashboardState backs both dashboards.
type DashboardState struct {
	Available bool          `json:"available"`
	Stats     AnswerStats   `json:"stats"`
	Subjects  []AnswerStats `json:"subjects,omitempty"`
	Daily     []DailyCount  `json:"daily"`
}

// Snapshot captures the current state for rendering.
func (r *Reviewer) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reviewer) snapshotLocked() Snapshot {
	now := r.now()
	points, checkIn := r.wallet.Summary(now)
	snap := Snapshot{
		View:       r.nav.View,
		QuizSource: r.nav.Source,
		NextView:   r.nav.Next,
		Subject:    r.subject,
		Loading:    r.loading,
		Catalog:    append([]domain.Subject(nil), r.catalog...),
		Points:     points,
		CheckIn:    checkIn,
	}

	switch r.nav.View {
	case domain.ViewQuiz, domain.ViewReview:
		if r.session != nil {
			snap.Quiz = quizState(r.session)
		}
	case domain.ViewSubjectDashboard:
		d := &DashboardState{
			Daily: DailyActivity(r.answers, r.subject, r.policy.Location, now, recentDays),
		}
		total := 0
		if r.session != nil && r.session.Subject == r.subject {
			d.Available = true
			total = len(r.session.Questions)
		}
		d.Stats = SummarizeAnswers(r.answers, r.subject, total)
		snap.Dashboard = d
	case domain.ViewOverallDashboard:
		d := &DashboardState{
			Available: len(r.answers) > 0,
			Stats:     SummarizeAnswers(r.answers, "", 0),
			Daily:     DailyActivity(r.answers, "", r.policy.Location, now, recentDays),
		}
		for _, s := range r.catalog {
			total := 0
			if r.session != nil && r.session.Subject == s.Abbr {
				total = len(r.session.Questions)
			}
			d.Subjects = append(d.Subjects, SummarizeAnswers(r.answers, s.Abbr, total))
		}
		snap.Dashboard = d
	}
	return snap
}

func pointsState(p domain.UserPoints) PointsState {
	level := LevelFromPoints(p.LevelPoints)
	return PointsState{
		Total:          p.TotalPoints,
		LevelPoints:    p.LevelPoints,
		Level:          level,
		Progress:       LevelProgress(p.LevelPoints),
		NextLevelAt:    PointsForNextLevel(level),
		CorrectAnswers: p.CorrectAnswers,
	}
}

func quizState(s *QuizSession) *QuizState {
	q := s.Current()
	view := QuestionView{
		ID:      q.ID,
		Text:    q.Text,
		Choices: q.Choices,
		Items:   q.Items,
	}
	if a, ok := s.Pass[q.ID]; ok {
		view.Selected = a.SelectedAnswerID
		view.IsCorrect = a.IsCorrect
		view.CorrectAnswerID = q.CorrectAnswerID
		view.Explanation = q.Explanation
	}
	answered, correct := s.Score()
	st := &QuizState{
		Subject:  s.Subject,
		Mode:     s.Mode,
		Index:    s.Index,
		Total:    len(s.Questions),
		Question: view,
		Answered: answered,
		Correct:  correct,
	}
	if s.Mode == domain.ModeReview {
		for _, q := range s.Questions {
			if a, ok := s.Pass[q.ID]; ok {
				st.Results = append(st.Results, a)
			}
		}
	}
	return st
}

// Profile is the progress summary synced to a user's profile.
type Profile struct {
	UserID   string        `json:"userId"`
	Course   string        `json:"course"`
	Points   PointsState   `json:"points"`
	CheckIn  CheckInStatus `json:"checkIn"`
	Stats    AnswerStats   `json:"stats"`
	Subjects []AnswerStats `json:"subjects"`
}

// Profile summarizes points, check-in and answer statistics.
func (r *Reviewer) Profile() Profile {
	r.mu.Lock()
	defer r.mu.Unlock()

	points, checkIn := r.wallet.Summary(r.now())
	p := Profile{
		UserID:  r.userID,
		Course:  r.course,
		Points:  points,
		CheckIn: checkIn,
		Stats:   SummarizeAnswers(r.answers, "", 0),
	}
	for _, s := range r.catalog {
		p.Subjects = append(p.Subjects, SummarizeAnswers(r.answers, s.Abbr, 0))
	}
	return p
}
