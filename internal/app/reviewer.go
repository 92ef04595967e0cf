package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"board-reviewer/internal/domain"
	"github.com/rs/zerolog"
)

// QuestionSource supplies a subject's question bank (cache, database, files).
type QuestionSource interface {
	FetchQuestions(ctx context.Context, subject string) ([]domain.Question, error)
}

// DefaultCatalog is used when no catalog is configured. The first entry is the
// default subject.
var DefaultCatalog = []domain.Subject{
	{Abbr: "FAR", Name: "Financial Accounting and Reporting"},
	{Abbr: "AFAR", Name: "Advanced Financial Accounting and Reporting"},
	{Abbr: "MS", Name: "Management Services"},
	{Abbr: "AUD", Name: "Auditing"},
	{Abbr: "RFBT", Name: "Regulatory Framework for Business Transactions"},
	{Abbr: "TAX", Name: "Taxation"},
}

// Options configures a Reviewer.
type Options struct {
	UserID  string
	Course  string
	Catalog []domain.Subject
	Store   Gateway
	Source  QuestionSource
	CheckIn CheckInPolicy
	// Wallet is shared by the user's courses; nil builds a private one.
	Wallet  *Wallet
	Shuffle Shuffler
	Clock   func() time.Time
	Logger  zerolog.Logger
}

// Reviewer owns one user's quiz session, navigation, points and check-in
// state for a course. All methods are safe for concurrent use; question
// fetches run without holding the lock.
type Reviewer struct {
	userID  string
	course  string
	catalog []domain.Subject
	source  QuestionSource
	policy  CheckInPolicy
	shuffle Shuffler
	now     func() time.Time
	log     zerolog.Logger
	store   stateStore
	keys    courseKeys

	mu      sync.Mutex
	nav     Navigator
	subject string
	session *QuizSession
	answers []domain.UserAnswer
	wallet  *Wallet

	loading    string
	loadSeq    uint64
	cancelLoad context.CancelFunc

	subscribers map[chan Snapshot]struct{}
}

// AnswerOutcome is the result of answering the current question.
type AnswerOutcome struct {
	Answer          domain.UserAnswer        `json:"answer"`
	CorrectAnswerID string                   `json:"correctAnswerId"`
	Explanation     string                   `json:"explanation,omitempty"`
	Awarded         int                      `json:"awarded"`
	Transaction     *domain.PointTransaction `json:"transaction,omitempty"`
	TotalPoints     int                      `json:"totalPoints"`
	Level           int                      `json:"level"`
	LevelUp         bool                     `json:"levelUp"`
}

// CheckInOutcome is the result of a daily check-in.
type CheckInOutcome struct {
	Reward      int                     `json:"reward"`
	Streak      int                     `json:"streak"`
	Day         int                     `json:"day"`
	Transaction domain.PointTransaction `json:"transaction"`
	TotalPoints int                     `json:"totalPoints"`
}

// NewReviewer builds a Reviewer on the home view. Call Restore to load saved
// state.
func NewReviewer(opts Options) *Reviewer {
	catalog := opts.Catalog
	if len(catalog) == 0 {
		catalog = DefaultCatalog
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger.With().Str("user", opts.UserID).Str("course", opts.Course).Logger()
	wallet := opts.Wallet
	if wallet == nil {
		wallet = NewWallet(opts.UserID, opts.Store, opts.CheckIn, opts.Logger.With().Str("user", opts.UserID).Logger())
	}
	return &Reviewer{
		userID:  opts.UserID,
		course:  opts.Course,
		catalog: catalog,
		source:  opts.Source,
		policy:  opts.CheckIn,
		shuffle: opts.Shuffle,
		now:     clock,
		log:     logger,
		store:   stateStore{gw: opts.Store, log: logger},
		keys:    courseKeys(opts.Course),
		nav:     NewNavigator(),
		wallet:  wallet,

		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Catalog returns the subjects in display order.
func (r *Reviewer) Catalog() []domain.Subject {
	return append([]domain.Subject(nil), r.catalog...)
}

// Wallet returns the user's ledger owner.
func (r *Reviewer) Wallet() *Wallet {
	return r.wallet
}

// Restore loads saved state. Unreadable or inconsistent state falls back to
// the home view in quiz mode; nothing here fails.
func (r *Reviewer) Restore(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wallet.Restore(ctx)

	var answers []domain.UserAnswer
	if r.store.getJSON(ctx, r.keys.userAnswers(), &answers) {
		r.answers = answers
	}

	subject, _ := r.store.getString(ctx, r.keys.selectedSubject())
	if !r.inCatalog(subject) {
		subject = ""
	}
	r.subject = subject

	var questions []domain.Question
	if subject != "" && r.store.getJSON(ctx, r.keys.questions(subject), &questions) && len(questions) > 0 {
		index, _ := r.store.getInt(ctx, r.keys.questionIndex())
		mode, _ := r.store.getString(ctx, r.keys.quizMode())
		var pass map[string]domain.UserAnswer
		r.store.getJSON(ctx, r.keys.passAnswers(), &pass)
		if s, err := RestoreSession(subject, questions, index, domain.QuizMode(mode), pass, r.shuffle); err == nil {
			r.session = s
		}
	}

	saved, _ := r.store.getString(ctx, r.keys.currentView())
	view, mode, ok := RestoreView(saved, subject != "", r.session != nil)
	if ok && r.session == nil && (view == domain.ViewQuiz || view == domain.ViewReview) {
		view, mode, ok = domain.ViewHome, domain.ModeQuiz, false
	}
	if !ok && saved != "" {
		r.log.Debug().Str("saved", saved).Msg("saved view not restorable, starting at home")
	}
	r.nav.View = view
	if src, _ := r.store.getString(ctx, r.keys.quizSource()); domain.QuizSource(src) == domain.SourceDashboard {
		r.nav.Source = domain.SourceDashboard
	}
	// A restored subject dashboard keeps the saved mode so a finished pass
	// still restarts on practice.
	if r.session != nil && view != domain.ViewSubjectDashboard {
		r.session.Mode = mode
	}

	r.persistNavLocked(ctx)
	r.persistSessionLocked(ctx)
}

// PickSubject opens the subject picker; next selects where the chosen
// subject leads (quiz or subject dashboard).
func (r *Reviewer) PickSubject(ctx context.Context, next domain.NextView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.nav.PickSubject(next); err != nil {
		return err
	}
	r.cancelLoadLocked()
	r.persistNavLocked(ctx)
	r.notifyLocked()
	return nil
}

// SelectSubject fetches and shuffles the subject's questions, then moves to
// the view remembered by PickSubject. On fetch failure the picker stays open
// and a *domain.FetchError is returned.
func (r *Reviewer) SelectSubject(ctx context.Context, subject string) error {
	r.mu.Lock()
	if !r.nav.Can(EventSubjectChosen) {
		r.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	if !r.inCatalog(subject) {
		r.mu.Unlock()
		return domain.ErrSubjectNotFound
	}
	if r.loading == subject {
		r.mu.Unlock()
		return domain.ErrLoadInProgress
	}
	seq, loadCtx := r.beginLoadLocked(ctx, subject)
	r.notifyLocked()
	r.mu.Unlock()

	questions, err := r.source.FetchQuestions(loadCtx, subject)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finishLoadLocked(seq) {
		r.log.Debug().Str("subject", subject).Msg("discarding superseded load")
		return domain.ErrStaleLoad
	}
	if err != nil {
		r.log.Warn().Err(err).Str("subject", subject).Msg("load questions")
		r.notifyLocked()
		return classifyFetchError(subject, err)
	}
	session, err := LoadSession(subject, questions, r.shuffle)
	if err != nil {
		r.notifyLocked()
		return classifyFetchError(subject, err)
	}

	if r.subject != "" && r.subject != subject {
		r.store.remove(ctx, r.keys.questions(r.subject))
	}
	r.subject = subject
	r.session = session
	if err := r.nav.SubjectChosen(); err != nil {
		return err
	}
	r.persistSessionLocked(ctx)
	r.persistNavLocked(ctx)
	r.notifyLocked()
	r.log.Info().Str("subject", subject).Int("questions", len(session.Questions)).Msg("subject loaded")
	return nil
}

// OpenSubjectDashboard shows the selected subject's dashboard, choosing the
// first catalog subject when none is selected. Missing questions are looked
// up in storage, then fetched; a failed fetch leaves the dashboard
// unavailable without returning an error.
func (r *Reviewer) OpenSubjectDashboard(ctx context.Context) error {
	r.mu.Lock()
	if err := r.nav.OpenSubjectDashboard(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.cancelLoadLocked()
	if r.subject == "" {
		r.subject = r.catalog[0].Abbr
	}
	subject := r.subject
	r.persistNavLocked(ctx)

	if r.session != nil && r.session.Subject == subject {
		r.notifyLocked()
		r.mu.Unlock()
		return nil
	}
	var cached []domain.Question
	if r.store.getJSON(ctx, r.keys.questions(subject), &cached) {
		if s, err := RestoreSession(subject, cached, 0, domain.ModeQuiz, nil, r.shuffle); err == nil {
			r.session = s
			r.persistSessionLocked(ctx)
			r.notifyLocked()
			r.mu.Unlock()
			return nil
		}
	}
	seq, loadCtx := r.beginLoadLocked(ctx, subject)
	r.notifyLocked()
	r.mu.Unlock()

	questions, err := r.source.FetchQuestions(loadCtx, subject)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finishLoadLocked(seq) {
		return domain.ErrStaleLoad
	}
	defer r.notifyLocked()
	if err != nil {
		r.log.Warn().Err(err).Str("subject", subject).Msg("dashboard questions unavailable")
		return nil
	}
	session, err := LoadSession(subject, questions, r.shuffle)
	if err != nil {
		return nil
	}
	r.session = session
	r.persistSessionLocked(ctx)
	return nil
}

// StartPractice enters the quiz from the subject dashboard. A finished pass
// is restarted.
func (r *Reviewer) StartPractice(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.nav.Can(EventStartPractice) {
		return domain.ErrInvalidTransition
	}
	if r.session == nil {
		return domain.ErrNoSession
	}
	if r.session.Mode == domain.ModeReview {
		r.session.Restart()
	}
	if err := r.nav.StartPractice(); err != nil {
		return err
	}
	r.persistSessionLocked(ctx)
	r.persistNavLocked(ctx)
	r.notifyLocked()
	return nil
}

// OpenOverallDashboard shows the all-subjects dashboard.
func (r *Reviewer) OpenOverallDashboard(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.nav.OpenOverallDashboard(); err != nil {
		return err
	}
	r.cancelLoadLocked()
	r.persistNavLocked(ctx)
	r.notifyLocked()
	return nil
}

// Answer records the selection for the current question and credits
// BasePoints when it is correct.
func (r *Reviewer) Answer(ctx context.Context, questionID, choiceID string) (AnswerOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nav.View != domain.ViewQuiz {
		return AnswerOutcome{}, domain.ErrInvalidTransition
	}
	if r.session == nil {
		return AnswerOutcome{}, domain.ErrNoSession
	}

	now := r.now()
	q := r.session.Current()
	answer, err := r.session.RecordAnswer(questionID, choiceID, now)
	if err != nil {
		return AnswerOutcome{}, err
	}
	r.answers = append(r.answers, answer)

	out := AnswerOutcome{
		Answer:          answer,
		CorrectAnswerID: q.CorrectAnswerID,
		Explanation:     q.Explanation,
	}
	if answer.IsCorrect {
		txn := NewTransaction(r.userID, domain.TxnCorrectAnswer, BasePoints, now, q.ID, r.session.Subject)
		before, points := r.wallet.Credit(ctx, txn)
		out.Awarded = txn.Points
		out.Transaction = &txn
		out.LevelUp = points.Level > before
	}
	points, _ := r.wallet.Summary(now)
	out.TotalPoints = points.Total
	out.Level = points.Level

	r.store.setJSON(persistCtx(ctx), r.keys.userAnswers(), r.answers)
	r.persistSessionLocked(ctx)
	r.notifyLocked()
	return out, nil
}

// Next advances to the next question, entering review after the last.
func (r *Reviewer) Next(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nav.View != domain.ViewQuiz {
		return domain.ErrInvalidTransition
	}
	if r.session == nil {
		return domain.ErrNoSession
	}
	if err := r.session.Advance(); err != nil {
		return err
	}
	if r.session.Mode == domain.ModeReview {
		if err := r.nav.Complete(); err != nil {
			return err
		}
		answered, correct := r.session.Score()
		r.log.Info().Str("subject", r.session.Subject).Int("answered", answered).Int("correct", correct).Msg("pass complete")
	}
	r.persistSessionLocked(ctx)
	r.persistNavLocked(ctx)
	r.notifyLocked()
	return nil
}

// Restart reshuffles the current subject and starts a new pass.
func (r *Reviewer) Restart(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.nav.Can(EventRestart) {
		return domain.ErrInvalidTransition
	}
	if r.session == nil {
		return domain.ErrNoSession
	}
	r.session.Restart()
	if err := r.nav.Restart(); err != nil {
		return err
	}
	r.persistSessionLocked(ctx)
	r.persistNavLocked(ctx)
	r.notifyLocked()
	return nil
}

// SelectNewSubject clears the quiz and reopens the subject picker.
func (r *Reviewer) SelectNewSubject(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.nav.NewSubject(); err != nil {
		return err
	}
	r.cancelLoadLocked()
	if r.subject != "" {
		r.store.remove(persistCtx(ctx), r.keys.questions(r.subject))
	}
	r.session = nil
	r.subject = ""
	r.persistSessionLocked(ctx)
	r.persistNavLocked(ctx)
	r.notifyLocked()
	return nil
}

// Back leaves the current view; from a quiz it returns to wherever the quiz
// was entered from.
func (r *Reviewer) Back(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.nav.Back(); err != nil {
		return err
	}
	r.cancelLoadLocked()
	r.persistNavLocked(ctx)
	r.notifyLocked()
	return nil
}

// Home returns to the main dashboard.
func (r *Reviewer) Home(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nav.Home()
	r.cancelLoadLocked()
	r.persistNavLocked(ctx)
	r.notifyLocked()
}

// CheckIn claims today's check-in reward for the user.
func (r *Reviewer) CheckIn(ctx context.Context) (CheckInOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := r.wallet.CheckIn(ctx, r.now())
	if err != nil {
		return out, err
	}
	r.notifyLocked()
	return out, nil
}

// Points returns a copy of the user's ledger.
func (r *Reviewer) Points() domain.UserPoints {
	return r.wallet.Points()
}

// Answers returns a copy of the answer log.
func (r *Reviewer) Answers() []domain.UserAnswer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.UserAnswer(nil), r.answers...)
}

func (r *Reviewer) inCatalog(subject string) bool {
	for _, s := range r.catalog {
		if s.Abbr == subject {
			return true
		}
	}
	return false
}

// beginLoadLocked supersedes any pending load and registers a new one.
func (r *Reviewer) beginLoadLocked(ctx context.Context, subject string) (uint64, context.Context) {
	r.cancelLoadLocked()
	loadCtx, cancel := context.WithCancel(ctx)
	r.loadSeq++
	r.loading = subject
	r.cancelLoad = cancel
	return r.loadSeq, loadCtx
}

// finishLoadLocked reports whether seq is still the current load.
func (r *Reviewer) finishLoadLocked(seq uint64) bool {
	if seq != r.loadSeq {
		return false
	}
	if r.cancelLoad != nil {
		r.cancelLoad()
	}
	r.cancelLoad = nil
	r.loading = ""
	return true
}

func (r *Reviewer) cancelLoadLocked() {
	if r.cancelLoad == nil && r.loading == "" {
		return
	}
	if r.cancelLoad != nil {
		r.cancelLoad()
	}
	r.cancelLoad = nil
	r.loading = ""
	r.loadSeq++
}

func (r *Reviewer) persistNavLocked(ctx context.Context) {
	ctx = persistCtx(ctx)
	r.store.setString(ctx, r.keys.currentView(), string(r.nav.View))
	r.store.setString(ctx, r.keys.quizSource(), string(r.nav.Source))
	r.store.setString(ctx, r.keys.nextView(), string(r.nav.Next))
	r.store.setString(ctx, r.keys.selectedSubject(), r.subject)
}

func (r *Reviewer) persistSessionLocked(ctx context.Context) {
	ctx = persistCtx(ctx)
	if r.session == nil {
		r.store.remove(ctx, r.keys.questionIndex())
		r.store.remove(ctx, r.keys.quizMode())
		r.store.remove(ctx, r.keys.passAnswers())
		return
	}
	r.store.setJSON(ctx, r.keys.questions(r.session.Subject), r.session.Questions)
	r.store.setInt(ctx, r.keys.questionIndex(), r.session.Index)
	r.store.setString(ctx, r.keys.quizMode(), string(r.session.Mode))
	if len(r.session.Pass) == 0 {
		r.store.remove(ctx, r.keys.passAnswers())
	} else {
		r.store.setJSON(ctx, r.keys.passAnswers(), r.session.Pass)
	}
}

// persistCtx keeps write-through alive when the caller's request ends.
func persistCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// classifyFetchError maps a source failure to a subject-tagged error: unusable
// data becomes a *domain.ParseError matching ErrNoQuestions, anything else a
// *domain.FetchError.
func classifyFetchError(subject string, err error) error {
	var perr *domain.ParseError
	isParse := errors.As(err, &perr)
	switch {
	case isParse && perr.Subject != "" && errors.Is(err, domain.ErrNoQuestions):
		return err
	case errors.Is(err, domain.ErrNoQuestions):
		return &domain.ParseError{Subject: subject, Err: err}
	case isParse:
		return &domain.ParseError{Subject: subject, Err: fmt.Errorf("%w: %w", domain.ErrNoQuestions, err)}
	}
	return &domain.FetchError{Subject: subject, Err: err}
}
