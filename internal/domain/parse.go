package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ParseOptions controls how forgiving ParseQuestions is.
type ParseOptions struct {
	// Lenient makes a missing correctAnswerId default to the first choice.
	Lenient bool
}

// ParseResult is the outcome of parsing a question bank. Err is a *ParseError
// when the data is unusable; Warnings lists dropped or repaired questions.
type ParseResult struct {
	Questions []Question
	Warnings  []string
	Err       error
}

// flexID accepts both JSON strings and numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type rawChoice struct {
	ID   flexID `json:"id"`
	Text string `json:"text"`
}

type rawQuestion struct {
	ID              flexID      `json:"id"`
	Text            string      `json:"text"`
	Choices         []rawChoice `json:"choices"`
	CorrectAnswerID flexID      `json:"correctAnswerId"`
	Explanation     string      `json:"explanation"`
	Items           []string    `json:"items"`
}

// ParseQuestions decodes a question bank. The payload is either a JSON array
// of questions or an object with a "questions" array.
func ParseQuestions(data []byte, opts ParseOptions) ParseResult {
	raws, err := decodeBank(data)
	if err != nil {
		return ParseResult{Err: &ParseError{Err: err}}
	}

	var res ParseResult
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		q := Question{
			ID:              string(raw.ID),
			Text:            raw.Text,
			CorrectAnswerID: string(raw.CorrectAnswerID),
			Explanation:     raw.Explanation,
			Items:           raw.Items,
		}
		if q.ID == "" {
			q.ID = "q" + strconv.Itoa(i+1)
		}
		if seen[q.ID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("question %s: duplicate id, dropped", q.ID))
			continue
		}
		for j, c := range raw.Choices {
			id := string(c.ID)
			if id == "" {
				id = choiceLabel(j)
			}
			q.Choices = append(q.Choices, Choice{ID: id, Text: c.Text})
		}
		if len(q.Choices) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("question %s: no choices, dropped", q.ID))
			continue
		}
		if q.CorrectAnswerID == "" {
			if !opts.Lenient {
				res.Warnings = append(res.Warnings, fmt.Sprintf("question %s: missing correctAnswerId, dropped", q.ID))
				continue
			}
			q.CorrectAnswerID = q.Choices[0].ID
			res.Warnings = append(res.Warnings, fmt.Sprintf("question %s: missing correctAnswerId, defaulted to %s", q.ID, q.CorrectAnswerID))
		}
		if !q.HasChoice(q.CorrectAnswerID) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("question %s: correctAnswerId %s is not a choice, dropped", q.ID, q.CorrectAnswerID))
			continue
		}
		seen[q.ID] = true
		res.Questions = append(res.Questions, q)
	}

	if len(res.Questions) == 0 {
		res.Err = &ParseError{Err: ErrNoQuestions}
	}
	return res
}

func decodeBank(data []byte) ([]rawQuestion, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrNoQuestions
	}
	if trimmed[0] == '{' {
		var wrapper struct {
			Questions []rawQuestion `json:"questions"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, err
		}
		return wrapper.Questions, nil
	}
	var raws []rawQuestion
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

// choiceLabel yields A, B, C, ... for synthesized choice ids.
func choiceLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return "C" + strconv.Itoa(i+1)
}
