package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"board-reviewer/internal/domain"
	"board-reviewer/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches question banks in Redis and falls back to a
// loader on cache miss. Banks are stored as JSON:
// SET questions:{subject} [{"id":...,"choices":[...]}] EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) FetchQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	if qs, ok := r.cached(ctx, subject); ok {
		return qs, nil
	}

	ch := r.sf.DoChan(subject, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		// Re-check cache in case another instance filled it.
		if qs, ok := r.cached(loadCtx, subject); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(loadCtx, subject)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(qs)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(loadCtx, r.key(subject), data, r.ttlWithJitter()).Err(); err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("cache question bank")
		}
		return qs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]domain.Question(nil), res.Val.([]domain.Question)...), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops a cached bank.
func (r *QuestionRepository) Invalidate(ctx context.Context, subject string) error {
	return r.client.Del(ctx, r.key(subject)).Err()
}

func (r *QuestionRepository) cached(ctx context.Context, subject string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, r.key(subject)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("subject", subject).Msg("read cached question bank")
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil || len(qs) == 0 {
		return nil, false
	}
	return qs, true
}

func (r *QuestionRepository) key(subject string) string {
	return "questions:" + subject
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
