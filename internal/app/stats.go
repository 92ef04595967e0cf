package app

import (
	"time"

	"board-reviewer/internal/domain"
)

// AnswerStats summarizes the answer log for one subject, or for all subjects
// when Subject is empty. Attempts and Correct count every record; Seen and
// Mastered use the latest record per question.
type AnswerStats struct {
	Subject  string  `json:"subject,omitempty"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
	Seen     int     `json:"questionsSeen"`
	Mastered int     `json:"questionsMastered"`
	Total    int     `json:"questionsTotal,omitempty"`
	Coverage float64 `json:"coverage,omitempty"`
}

// DailyCount is the activity of one calendar day.
type DailyCount struct {
	Date     string `json:"date"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
}

// SummarizeAnswers aggregates answers. total is the size of the subject's
// question bank when known, or 0.
func SummarizeAnswers(answers []domain.UserAnswer, subject string, total int) AnswerStats {
	st := AnswerStats{Subject: subject, Total: total}
	latest := make(map[string]domain.UserAnswer)
	for _, a := range answers {
		if subject != "" && a.SubjectAbbreviation != subject {
			continue
		}
		st.Attempts++
		if a.IsCorrect {
			st.Correct++
		}
		key := a.SubjectAbbreviation + "/" + a.QuestionID
		if prev, ok := latest[key]; !ok || !a.Timestamp.Before(prev.Timestamp) {
			latest[key] = a
		}
	}
	st.Seen = len(latest)
	for _, a := range latest {
		if a.IsCorrect {
			st.Mastered++
		}
	}
	if st.Attempts > 0 {
		st.Accuracy = float64(st.Correct) / float64(st.Attempts)
	}
	if total > 0 {
		st.Coverage = float64(st.Seen) / float64(total)
		if st.Coverage > 1 {
			st.Coverage = 1
		}
	}
	return st
}

// DailyActivity returns one entry per day for the last days days ending at
// now, oldest first.
func DailyActivity(answers []domain.UserAnswer, subject string, loc *time.Location, now time.Time, days int) []DailyCount {
	if days <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	out := make([]DailyCount, days)
	index := make(map[string]int, days)
	today := now.In(loc)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, -(days - 1 - i)).Format(DateLayout)
		out[i].Date = d
		index[d] = i
	}
	for _, a := range answers {
		if subject != "" && a.SubjectAbbreviation != subject {
			continue
		}
		i, ok := index[a.Timestamp.In(loc).Format(DateLayout)]
		if !ok {
			continue
		}
		out[i].Attempts++
		if a.IsCorrect {
			out[i].Correct++
		}
	}
	return out
}
