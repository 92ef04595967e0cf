package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"board-reviewer/internal/domain"
	"board-reviewer/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string][]domain.Question{
			"FAR": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	qs, err := repo.FetchQuestions(context.Background(), "FAR")
	if err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if len(qs) != 1 || qs[0].CorrectAnswerID != "B" {
		t.Fatalf("unexpected questions %+v", qs)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("questions:FAR") {
		t.Fatalf("expected cached bank in redis")
	}
	if ttl := mr.TTL("questions:FAR"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected jittered ttl, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	qs, _ = repo.FetchQuestions(context.Background(), "FAR")
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if len(qs) != 1 || qs[0].Choices[1].Text != "4" {
		t.Fatalf("cached bank lost data: %+v", qs)
	}

	if err := repo.Invalidate(context.Background(), "FAR"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.FetchQuestions(context.Background(), "FAR")
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

func TestQuestionRepositoryIgnoresCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("questions:FAR", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string][]domain.Question{"FAR": sampleQuestions()}),
	}
	repo := NewQuestionRepository(newClient(mr), loader, 0)

	if _, err := repo.FetchQuestions(context.Background(), "FAR"); err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader fallback, got %d calls", loader.count())
	}
}

type countingLoader struct {
	memory.QuestionLoader

	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
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
			Text:            "What is 2 + 2?",
			Choices:         []domain.Choice{{ID: "A", Text: "3"}, {ID: "B", Text: "4"}},
			CorrectAnswerID: "B",
		},
	}
}
