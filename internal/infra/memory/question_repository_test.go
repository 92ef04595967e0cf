package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"board-reviewer/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string][]domain.Question{
			"FAR": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	qs, err := repo.FetchQuestions(context.Background(), "FAR")
	if err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	qs[0], qs[1] = qs[1], qs[0]

	again, err := repo.FetchQuestions(context.Background(), "FAR")
	if err != nil {
		t.Fatalf("fetch questions 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
	if again[0].ID != "q1" {
		t.Fatalf("cached bank was reordered by a caller: %s", again[0].ID)
	}
}

func TestQuestionRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string][]domain.Question{"FAR": sampleQuestions()}),
	}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.FetchQuestions(context.Background(), "FAR"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.FetchQuestions(context.Background(), "FAR"); err != nil {
		t.Fatalf("fetch after expiry: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}

	repo.Invalidate("FAR")
	if _, err := repo.FetchQuestions(context.Background(), "FAR"); err != nil {
		t.Fatalf("fetch after invalidate: %v", err)
	}
	if loader.count() != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.count())
	}
}

func TestQuestionRepositoryMissingSubject(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(nil), time.Minute)
	_, err := repo.FetchQuestions(context.Background(), "TAX")
	if !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestQuestionRepositoryCallerCancel(t *testing.T) {
	gate := make(chan struct{})
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string][]domain.Question{"FAR": sampleQuestions()}),
		gate:           gate,
	}
	repo := NewQuestionRepository(loader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.FetchQuestions(ctx, "FAR"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(gate)
	qs, err := repo.FetchQuestions(context.Background(), "FAR")
	if err != nil {
		t.Fatalf("fetch after cancel: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
}

type countingLoader struct {
	QuestionLoader
	gate chan struct{}

	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	if l.gate != nil {
		<-l.gate
	}
	return l.QuestionLoader.LoadQuestions(ctx, subject)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:              "q1",
			Text:            "Which statement presents assets and liabilities?",
			Choices:         []domain.Choice{{ID: "A", Text: "Balance sheet"}, {ID: "B", Text: "Income statement"}},
			CorrectAnswerID: "A",
		},
		{
			ID:              "q2",
			Text:            "Inventory is measured at the lower of cost and...",
			Choices:         []domain.Choice{{ID: "A", Text: "Fair value"}, {ID: "B", Text: "Net realizable value"}},
			CorrectAnswerID: "B",
		},
	}
}
