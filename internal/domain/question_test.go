package domain

import (
	"reflect"
	"testing"
)

const validSet = `{
  "mcq": [{"question": "2+2?", "options": ["1","2","3","4"], "correct": "4"}],
  "trueFalse": [{"question": "Water is wet", "answer": true}],
  "short": [{"question": "Capital of France?", "answer": "Paris"}]
}`

func TestParseQuestionSet(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"plain json", validSet, 3, false},
		{"json fence", "```json\n" + validSet + "\n```", 3, false},
		{"bare fence", "```\n" + validSet + "\n```", 3, false},
		{"only one section", `{"short":[{"question":"q","answer":"a"}]}`, 1, false},
		{"empty object", `{}`, 0, true},
		{"not json", "Here are your questions: ...", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseQuestionSet(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuestionSet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && set.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", set.Len(), tt.wantLen)
			}
		})
	}
}

func TestQuestionSet_Len_Nil(t *testing.T) {
	var set *QuestionSet
	if set.Len() != 0 {
		t.Error("nil set should have no questions")
	}
}

func TestQuestionSet_Document(t *testing.T) {
	set, err := ParseQuestionSet(validSet)
	if err != nil {
		t.Fatal(err)
	}

	doc := set.Document()
	want := map[string]any{
		"mcq": []any{map[string]any{
			"question": "2+2?",
			"options":  []any{"1", "2", "3", "4"},
			"correct":  "4",
		}},
		"trueFalse": []any{map[string]any{"question": "Water is wet", "answer": true}},
		"short":     []any{map[string]any{"question": "Capital of France?", "answer": "Paris"}},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Document() = %#v\nwant %#v", doc, want)
	}
}
