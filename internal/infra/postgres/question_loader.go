package postgres

import (
	"context"
	"errors"
	"fmt"

	"board-reviewer/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
)

// QuestionLoader loads question bank JSONB from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
	opts domain.ParseOptions
}

func NewQuestionLoader(pool *pgxpool.Pool, opts domain.ParseOptions) *QuestionLoader {
	return &QuestionLoader{pool: pool, opts: opts}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE subject=$1`, subject).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	res := domain.ParseQuestions(raw, l.opts)
	for _, w := range res.Warnings {
		log.Warn().Str("subject", subject).Msg(w)
	}
	if res.Err != nil {
		return nil, &domain.ParseError{Subject: subject, Err: res.Err}
	}
	return res.Questions, nil
}
