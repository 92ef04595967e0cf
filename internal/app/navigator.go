package app

import "board-reviewer/internal/domain"

// Event is a user navigation action.
type Event string

const (
	EventPickSubject      Event = "pickSubject"
	EventSubjectChosen    Event = "subjectChosen"
	EventStartPractice    Event = "startPractice"
	EventComplete         Event = "complete"
	EventRestart          Event = "restart"
	EventNewSubject       Event = "newSubject"
	EventBack             Event = "back"
	EventSubjectDashboard Event = "subjectDashboard"
	EventOverallDashboard Event = "overallDashboard"
	EventHome             Event = "home"
)

var allowed = map[domain.View][]Event{
	domain.ViewHome:             {EventPickSubject, EventSubjectDashboard, EventOverallDashboard},
	domain.ViewSubjectSelect:    {EventSubjectChosen, EventBack},
	domain.ViewQuiz:             {EventComplete, EventRestart, EventNewSubject, EventBack},
	domain.ViewSubjectDashboard: {EventPickSubject, EventStartPractice, EventOverallDashboard, EventBack},
	domain.ViewReview:           {EventPickSubject, EventRestart, EventNewSubject, EventSubjectDashboard, EventOverallDashboard, EventBack},
	domain.ViewOverallDashboard: {EventPickSubject, EventSubjectDashboard, EventBack},
}

// Navigator is the view state machine. The zero value is not ready; use
// NewNavigator.
type Navigator struct {
	View   domain.View
	Source domain.QuizSource
	Next   domain.NextView
}

// NewNavigator starts on the home view.
func NewNavigator() Navigator {
	return Navigator{View: domain.ViewHome, Source: domain.SourceSubjects}
}

// Can reports whether ev is legal from the current view. Home is always legal.
func (n *Navigator) Can(ev Event) bool {
	if ev == EventHome {
		return true
	}
	for _, e := range allowed[n.View] {
		if e == ev {
			return true
		}
	}
	return false
}

// PickSubject opens the subject picker and remembers where to go afterwards.
func (n *Navigator) PickSubject(next domain.NextView) error {
	if !n.Can(EventPickSubject) {
		return domain.ErrInvalidTransition
	}
	if next != domain.NextDashboard {
		next = domain.NextQuiz
	}
	n.View = domain.ViewSubjectSelect
	n.Next = next
	return nil
}

// SubjectChosen leaves the picker for the view remembered by PickSubject.
func (n *Navigator) SubjectChosen() error {
	if !n.Can(EventSubjectChosen) {
		return domain.ErrInvalidTransition
	}
	if n.Next == domain.NextDashboard {
		n.View = domain.ViewSubjectDashboard
	} else {
		n.View = domain.ViewQuiz
		n.Source = domain.SourceSubjects
	}
	n.Next = domain.NextNone
	return nil
}

// StartPractice enters the quiz from the subject dashboard.
func (n *Navigator) StartPractice() error {
	if !n.Can(EventStartPractice) {
		return domain.ErrInvalidTransition
	}
	n.View = domain.ViewQuiz
	n.Source = domain.SourceDashboard
	return nil
}

// Complete moves from the last answered question to review.
func (n *Navigator) Complete() error {
	if !n.Can(EventComplete) {
		return domain.ErrInvalidTransition
	}
	n.View = domain.ViewReview
	return nil
}

// Restart returns to the quiz for another pass of the same subject.
func (n *Navigator) Restart() error {
	if !n.Can(EventRestart) {
		return domain.ErrInvalidTransition
	}
	n.View = domain.ViewQuiz
	return nil
}

// NewSubject drops the current quiz and opens the picker for a new quiz.
func (n *Navigator) NewSubject() error {
	if !n.Can(EventNewSubject) {
		return domain.ErrInvalidTransition
	}
	n.View = domain.ViewSubjectSelect
	n.Next = domain.NextQuiz
	return nil
}

// Back leaves a quiz or review for the view it was entered from; every other
// view goes home.
func (n *Navigator) Back() error {
	if !n.Can(EventBack) {
		return domain.ErrInvalidTransition
	}
	switch n.View {
	case domain.ViewQuiz, domain.ViewReview:
		if n.Source == domain.SourceDashboard {
			n.View = domain.ViewSubjectDashboard
		} else {
			n.View = domain.ViewSubjectSelect
			n.Next = domain.NextQuiz
		}
	default:
		n.View = domain.ViewHome
		n.Next = domain.NextNone
	}
	return nil
}

// OpenSubjectDashboard shows the dashboard of the selected subject.
func (n *Navigator) OpenSubjectDashboard() error {
	if !n.Can(EventSubjectDashboard) {
		return domain.ErrInvalidTransition
	}
	n.View = domain.ViewSubjectDashboard
	return nil
}

// OpenOverallDashboard shows the all-subjects dashboard.
func (n *Navigator) OpenOverallDashboard() error {
	if !n.Can(EventOverallDashboard) {
		return domain.ErrInvalidTransition
	}
	n.View = domain.ViewOverallDashboard
	return nil
}

// Home returns to the main dashboard from anywhere.
func (n *Navigator) Home() {
	n.View = domain.ViewHome
	n.Next = domain.NextNone
}

// RestoreView applies the restoration policy to a saved view: quiz and review
// are honored, the subject dashboard only with a saved subject and saved
// questions, and anything else falls back to home in quiz mode.
func RestoreView(saved string, hasSubject, hasQuestions bool) (domain.View, domain.QuizMode, bool) {
	switch domain.View(saved) {
	case domain.ViewQuiz:
		return domain.ViewQuiz, domain.ModeQuiz, true
	case domain.ViewReview:
		return domain.ViewReview, domain.ModeReview, true
	case domain.ViewSubjectDashboard:
		if hasSubject && hasQuestions {
			return domain.ViewSubjectDashboard, domain.ModeQuiz, true
		}
	}
	return domain.ViewHome, domain.ModeQuiz, false
}
