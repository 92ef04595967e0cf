package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"board-reviewer/internal/domain"
	"github.com/uptrace/bun"
)

// QuestionBank is one subject's stored question JSON.
type QuestionBank struct {
	bun.BaseModel `bun:"table:question_banks"`

	Subject   string          `bun:"subject,pk"`
	Data      json.RawMessage `bun:"data,type:jsonb"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// QuestionImporter writes question banks through bun.
type QuestionImporter struct {
	db *bun.DB
}

func NewQuestionImporter(db *bun.DB) *QuestionImporter {
	return &QuestionImporter{db: db}
}

// Import validates data and upserts it as the subject's bank. It returns the
// number of usable questions and any parse warnings.
func (i *QuestionImporter) Import(ctx context.Context, subject string, data []byte, opts domain.ParseOptions) (int, []string, error) {
	res := domain.ParseQuestions(data, opts)
	if res.Err != nil {
		return 0, res.Warnings, &domain.ParseError{Subject: subject, Err: res.Err}
	}
	normalized, err := json.Marshal(res.Questions)
	if err != nil {
		return 0, res.Warnings, err
	}

	bank := QuestionBank{Subject: subject, Data: normalized, UpdatedAt: time.Now().UTC()}
	_, err = i.db.NewInsert().
		Model(&bank).
		On("CONFLICT (subject) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, res.Warnings, fmt.Errorf("import %s: %w", subject, err)
	}
	return len(res.Questions), res.Warnings, nil
}
