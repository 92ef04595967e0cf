package app

import (
	"math/rand"
	"sync"
	"time"

	"board-reviewer/internal/domain"
)

// Shuffler permutes questions in place.
type Shuffler func(questions []domain.Question)

// FisherYates returns a uniform Shuffler backed by rnd. The returned function
// is safe for concurrent use.
func FisherYates(rnd *rand.Rand) Shuffler {
	var mu sync.Mutex
	return func(qs []domain.Question) {
		mu.Lock()
		defer mu.Unlock()
		for i := len(qs) - 1; i > 0; i-- {
			j := rnd.Intn(i + 1)
			qs[i], qs[j] = qs[j], qs[i]
		}
	}
}

// QuizSession is one subject's question set and the state of the current pass.
type QuizSession struct {
	Subject   string
	Questions []domain.Question
	Index     int
	Mode      domain.QuizMode
	// Pass holds answers recorded during the current pass, keyed by question id.
	Pass map[string]domain.UserAnswer

	shuffle Shuffler
}

// LoadSession shuffles a copy of questions and starts a pass at index 0.
func LoadSession(subject string, questions []domain.Question, shuffle Shuffler) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if shuffle == nil {
		shuffle = FisherYates(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	qs := append([]domain.Question(nil), questions...)
	shuffle(qs)
	return &QuizSession{
		Subject:   subject,
		Questions: qs,
		Mode:      domain.ModeQuiz,
		Pass:      make(map[string]domain.UserAnswer),
		shuffle:   shuffle,
	}, nil
}

// RestoreSession rebuilds a session from persisted fields without
// reshuffling. An out-of-range index falls back to 0.
func RestoreSession(subject string, questions []domain.Question, index int, mode domain.QuizMode, pass map[string]domain.UserAnswer, shuffle Shuffler) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if index < 0 || index >= len(questions) {
		index = 0
	}
	if mode != domain.ModeReview {
		mode = domain.ModeQuiz
	}
	if pass == nil {
		pass = make(map[string]domain.UserAnswer)
	}
	if shuffle == nil {
		shuffle = FisherYates(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	return &QuizSession{
		Subject:   subject,
		Questions: questions,
		Index:     index,
		Mode:      mode,
		Pass:      pass,
		shuffle:   shuffle,
	}, nil
}

// Current returns the question at the current index.
func (s *QuizSession) Current() domain.Question {
	return s.Questions[s.Index]
}

// HasAnswered reports whether the current question was answered in this pass.
func (s *QuizSession) HasAnswered() bool {
	_, ok := s.Pass[s.Current().ID]
	return ok
}

// RecordAnswer records the selection for the current question. A question
// can be answered once per pass.
func (s *QuizSession) RecordAnswer(questionID, choiceID string, now time.Time) (domain.UserAnswer, error) {
	if s.Mode == domain.ModeReview {
		return domain.UserAnswer{}, domain.ErrQuizComplete
	}
	q := s.Current()
	if q.ID != questionID {
		return domain.UserAnswer{}, domain.ErrQuestionNotFound
	}
	if !q.HasChoice(choiceID) {
		return domain.UserAnswer{}, domain.ErrOptionNotFound
	}
	if _, ok := s.Pass[q.ID]; ok {
		return domain.UserAnswer{}, domain.ErrAlreadyAnswered
	}

	answer := domain.UserAnswer{
		QuestionID:          q.ID,
		SelectedAnswerID:    choiceID,
		IsCorrect:           choiceID == q.CorrectAnswerID,
		Timestamp:           now,
		SubjectAbbreviation: s.Subject,
	}
	s.Pass[q.ID] = answer
	return answer, nil
}

// Advance moves to the next question, or into review after the last one.
func (s *QuizSession) Advance() error {
	if s.Mode == domain.ModeReview {
		return domain.ErrQuizComplete
	}
	if !s.HasAnswered() {
		return domain.ErrNotAnswered
	}
	if s.Index+1 < len(s.Questions) {
		s.Index++
		return nil
	}
	s.Mode = domain.ModeReview
	return nil
}

// Restart reshuffles the same questions and begins a new pass.
func (s *QuizSession) Restart() {
	s.shuffle(s.Questions)
	s.Index = 0
	s.Mode = domain.ModeQuiz
	s.Pass = make(map[string]domain.UserAnswer)
}

// Score counts answered and correct questions of the current pass.
func (s *QuizSession) Score() (answered, correct int) {
	for _, a := range s.Pass {
		answered++
		if a.IsCorrect {
			correct++
		}
	}
	return answered, correct
}
