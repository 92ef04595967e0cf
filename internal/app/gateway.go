package app

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"
)

// Gateway is a durable string key-value store (in-memory, Redis, etc).
type Gateway interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// WithPrefix namespaces every key of gw, e.g. per user.
func WithPrefix(gw Gateway, prefix string) Gateway {
	return prefixed{gw: gw, prefix: prefix}
}

type prefixed struct {
	gw     Gateway
	prefix string
}

func (p prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.gw.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key, value string) error {
	return p.gw.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Remove(ctx context.Context, key string) error {
	return p.gw.Remove(ctx, p.prefix+key)
}

// Global keys shared by every course.
const (
	keyUserPoints      = "userPoints"
	keyLastCheckInDate = "lastCheckInDate"
	keyCheckInStreak   = "checkInStreak"
	keyCheckInDay      = "checkInDay"
)

// courseKeys builds the per-course key names.
type courseKeys string

func (c courseKeys) questions(subject string) string { return string(c) + "_questions_" + subject }
func (c courseKeys) userAnswers() string             { return string(c) + "_userAnswers" }
func (c courseKeys) currentView() string             { return string(c) + "_currentView" }
func (c courseKeys) selectedSubject() string         { return string(c) + "_selectedSubject" }
func (c courseKeys) questionIndex() string           { return string(c) + "_currentQuestionIndex" }
func (c courseKeys) quizMode() string                { return string(c) + "_quizMode" }
func (c courseKeys) quizSource() string              { return string(c) + "_quizSource" }
func (c courseKeys) nextView() string                { return string(c) + "_nextView" }
func (c courseKeys) passAnswers() string             { return string(c) + "_passAnswers" }

// stateStore wraps a Gateway with typed helpers. Failures are logged and
// reported as "nothing stored"; they never reach the caller.
type stateStore struct {
	gw  Gateway
	log zerolog.Logger
}

func (s stateStore) getString(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.gw.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read saved state")
		return "", false
	}
	return v, ok
}

func (s stateStore) getJSON(ctx context.Context, key string, dst any) bool {
	raw, ok := s.getString(ctx, key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("decode saved state")
		return false
	}
	return true
}

func (s stateStore) getInt(ctx context.Context, key string) (int, bool) {
	raw, ok := s.getString(ctx, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("decode saved state")
		return 0, false
	}
	return n, true
}

// setString writes value, or removes the key when value is empty.
func (s stateStore) setString(ctx context.Context, key, value string) {
	if value == "" {
		s.remove(ctx, key)
		return
	}
	if err := s.gw.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("write state")
	}
}

func (s stateStore) setJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("encode state")
		return
	}
	s.setString(ctx, key, string(data))
}

func (s stateStore) setInt(ctx context.Context, key string, n int) {
	s.setString(ctx, key, strconv.Itoa(n))
}

func (s stateStore) remove(ctx context.Context, key string) {
	if err := s.gw.Remove(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("remove state")
	}
}
