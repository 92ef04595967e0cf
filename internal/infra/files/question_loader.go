// Package files loads question banks from JSON files on disk, one file per
// subject: {dir}/{subject}.json.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"board-reviewer/internal/domain"
	"github.com/rs/zerolog/log"
)

type QuestionLoader struct {
	dir  string
	opts domain.ParseOptions
}

func NewQuestionLoader(dir string, opts domain.ParseOptions) *QuestionLoader {
	return &QuestionLoader{dir: dir, opts: opts}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	if subject == "" || strings.ContainsAny(subject, `/\.`) {
		return nil, domain.ErrSubjectNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(l.dir, subject+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	res := domain.ParseQuestions(data, l.opts)
	for _, w := range res.Warnings {
		log.Warn().Str("subject", subject).Msg(w)
	}
	if res.Err != nil {
		return nil, &domain.ParseError{Subject: subject, Err: res.Err}
	}
	return res.Questions, nil
}

// Subjects lists the subjects that have a bank file in dir.
func Subjects(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	subjects := make([]string, 0, len(matches))
	for _, m := range matches {
		subjects = append(subjects, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return subjects, nil
}
