package domain

import "time"

// Choice is one selectable answer of a question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct choice.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Choices         []Choice `json:"choices"`
	CorrectAnswerID string   `json:"correctAnswerId"`
	Explanation     string   `json:"explanation,omitempty"`
	Items           []string `json:"items,omitempty"`
}

// HasChoice reports whether id names one of the question's choices.
func (q Question) HasChoice(id string) bool {
	for _, c := range q.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.ID == "" {
		return ErrQuestionNotFound
	}
	if len(q.Choices) == 0 {
		return ErrNoChoices
	}
	if !q.HasChoice(q.CorrectAnswerID) {
		return ErrOptionNotFound
	}
	return nil
}

// UserAnswer is an immutable record of one selection.
type UserAnswer struct {
	QuestionID          string    `json:"questionId"`
	SelectedAnswerID    string    `json:"selectedAnswerId"`
	IsCorrect           bool      `json:"isCorrect"`
	Timestamp           time.Time `json:"timestamp"`
	SubjectAbbreviation string    `json:"subjectAbbreviation,omitempty"`
}

// TransactionType classifies a point transaction.
type TransactionType string

const (
	TxnCorrectAnswer TransactionType = "CORRECT_ANSWER"
	TxnPerfectAnswer TransactionType = "PERFECT_ANSWER"
	TxnStreakBonus   TransactionType = "STREAK_BONUS"
	TxnAchievement   TransactionType = "ACHIEVEMENT"
	TxnDailyCheckIn  TransactionType = "DAILY_CHECKIN"
)

// PointTransaction is an append-only ledger entry.
type PointTransaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Points      int             `json:"points"`
	Type        TransactionType `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	QuestionID  string          `json:"questionId,omitempty"`
	SubjectAbbr string          `json:"subjectAbbr,omitempty"`
}

// UserPoints aggregates a user's transactions.
type UserPoints struct {
	UserID         string             `json:"userId"`
	TotalPoints    int                `json:"totalPoints"`
	LevelPoints    int                `json:"levelPoints"`
	CorrectAnswers int                `json:"correctAnswers"`
	PerfectAnswers int                `json:"perfectAnswers"`
	LastUpdated    time.Time          `json:"lastUpdated"`
	Transactions   []PointTransaction `json:"transactions"`
}

// CheckInState tracks the daily check-in streak.
type CheckInState struct {
	LastCheckInDate string `json:"lastCheckInDate,omitempty"`
	Streak          int    `json:"streak"`
	CheckInDay      int    `json:"checkInDay"`
}

// QuizMode is either answering (quiz) or reviewing a finished pass.
type QuizMode string

const (
	ModeQuiz   QuizMode = "quiz"
	ModeReview QuizMode = "review"
)

// View is the navigation state of a reviewer.
type View string

const (
	ViewHome             View = "mainDashboard"
	ViewSubjectSelect    View = "subjects"
	ViewQuiz             View = "quiz"
	ViewSubjectDashboard View = "dashboard"
	ViewReview           View = "review"
	ViewOverallDashboard View = "overallDashboard"
)

// Valid reports whether v is one of the known views.
func (v View) Valid() bool {
	switch v {
	case ViewHome, ViewSubjectSelect, ViewQuiz, ViewSubjectDashboard, ViewReview, ViewOverallDashboard:
		return true
	}
	return false
}

// QuizSource remembers how the quiz view was entered.
type QuizSource string

const (
	SourceSubjects  QuizSource = "subjects"
	SourceDashboard QuizSource = "dashboard"
)

// NextView is the destination after a subject is picked.
type NextView string

const (
	NextNone      NextView = ""
	NextQuiz      NextView = "quiz"
	NextDashboard NextView = "dashboard"
)

// Subject is an entry of the course catalog.
type Subject struct {
	Abbr string `json:"abbr" yaml:"abbr"`
	Name string `json:"name" yaml:"name"`
}

// ContactMessage is a validated submission of the contact form.
type ContactMessage struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	ReceivedAt time.Time `json:"receivedAt"`
}
