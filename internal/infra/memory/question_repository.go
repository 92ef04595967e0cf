package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"board-reviewer/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches a subject's question bank from a backing store
// (files, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, subject string) ([]domain.Question, error)
}

// QuestionRepository caches question banks with TTL to avoid repeated loads.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

// FetchQuestions returns a copy of the subject's bank. Concurrent misses for
// the same subject share one load; a caller whose ctx ends stops waiting
// without failing the others.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	if qs, ok := r.lookup(subject); ok {
		return qs, nil
	}

	ch := r.sf.DoChan(subject, func() (interface{}, error) {
		if qs, ok := r.lookup(subject); ok {
			return qs, nil
		}
		qs, err := r.loader.LoadQuestions(context.WithoutCancel(ctx), subject)
		if err != nil {
			return nil, err
		}
		if r.ttl > 0 {
			r.mu.Lock()
			r.cache[subject] = cachedBank{questions: qs, expiresAt: r.clock().Add(r.ttlWithJitter())}
			r.mu.Unlock()
		}
		return qs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneQuestions(res.Val.([]domain.Question)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops a cached bank, e.g. after an import.
func (r *QuestionRepository) Invalidate(subject string) {
	r.mu.Lock()
	delete(r.cache, subject)
	r.mu.Unlock()
}

func (r *QuestionRepository) lookup(subject string) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[subject]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return cloneQuestions(entry.questions), true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves banks from a map (tests, demos).
type StaticQuestionLoader struct {
	banks map[string][]domain.Question
}

func NewStaticQuestionLoader(banks map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{banks: banks}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, subject string) ([]domain.Question, error) {
	qs, ok := l.banks[subject]
	if !ok || len(qs) == 0 {
		return nil, domain.ErrSubjectNotFound
	}
	return cloneQuestions(qs), nil
}

// cloneQuestions copies the bank so callers may reorder it freely.
func cloneQuestions(qs []domain.Question) []domain.Question {
	return append([]domain.Question(nil), qs...)
}
