package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionSet is the strict JSON shape the completion service must return
// when generating an exam for a topic.
type QuestionSet struct {
	MCQ       []MultipleChoice `json:"mcq"`
	TrueFalse []TrueFalse      `json:"trueFalse"`
	Short     []ShortAnswer    `json:"short"`
}

// MultipleChoice is a four-option question with one correct option.
type MultipleChoice struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  string   `json:"correct"`
}

// TrueFalse is a boolean question.
type TrueFalse struct {
	Question string `json:"question"`
	Answer   bool   `json:"answer"`
}

// ShortAnswer is a free-text question with a reference answer.
type ShortAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseQuestionSet decodes a completion reply into a QuestionSet. Markdown code
// fences around the JSON are tolerated since some providers add them even in
// JSON mode.
func ParseQuestionSet(raw string) (*QuestionSet, error) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	var set QuestionSet
	if err := json.Unmarshal([]byte(body), &set); err != nil {
		return nil, fmt.Errorf("parse question set: %w", err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("parse question set: no questions in reply")
	}
	return &set, nil
}

// Len returns the total number of questions across all sections.
func (s *QuestionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.MCQ) + len(s.TrueFalse) + len(s.Short)
}

// Document converts the set into a generic map so it can be stored alongside
// arbitrary resource documents.
func (s *QuestionSet) Document() map[string]any {
	mcq := make([]any, 0, len(s.MCQ))
	for _, q := range s.MCQ {
		options := make([]any, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, o)
		}
		mcq = append(mcq, map[string]any{
			"question": q.Question,
			"options":  options,
			"correct":  q.Correct,
		})
	}

	tf := make([]any, 0, len(s.TrueFalse))
	for _, q := range s.TrueFalse {
		tf = append(tf, map[string]any{
			"question": q.Question,
			"answer":   q.Answer,
		})
	}

	short := make([]any, 0, len(s.Short))
	for _, q := range s.Short {
		short = append(short, map[string]any{
			"question": q.Question,
			"answer":   q.Answer,
		})
	}

	return map[string]any{
		"mcq":       mcq,
		"trueFalse": tf,
		"short":     short,
	}
}
