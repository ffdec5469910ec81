package content

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func validForm() url.Values {
	return url.Values{
		"title":              {"Go basics"},
		"description":        {"Warmup round"},
		"test_difficulty":    {"Easy"},
		"q_text_1":           {"What is a goroutine?"},
		"q_1_difficulty":     {"Easy"},
		"q_1_time_limit":     {"30"},
		"q_1_correct":        {"2"},
		"q_1_option_text_1":  {"A thread"},
		"q_1_option_text_2":  {"A lightweight thread managed by the runtime"},
		"q_text_2":           {"What does gofmt do?"},
		"q_2_correct":        {"1"},
		"q_2_option_text_1":  {"Formats source code"},
		"q_2_option_text_2":  {"Runs tests"},
		"q_2_option_text_10": {"Compiles the program"},
	}
}

func TestParseTestForm(t *testing.T) {
	draft, err := ParseTestForm(validForm())
	if err != nil {
		t.Fatalf("ParseTestForm: %v", err)
	}

	if draft.Title != "Go basics" || draft.Difficulty != "Easy" {
		t.Fatalf("unexpected test metadata: %+v", draft)
	}
	if len(draft.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(draft.Questions))
	}

	q1 := draft.Questions[0]
	if q1.Text != "What is a goroutine?" || q1.TimeLimitSec != 30 {
		t.Errorf("unexpected first question: %+v", q1)
	}
	if len(q1.Options) != 2 || !q1.Options[1].IsCorrect || q1.Options[0].IsCorrect {
		t.Errorf("correct option not marked as expected: %+v", q1.Options)
	}

	q2 := draft.Questions[1]
	if q2.TimeLimitSec != 60 {
		t.Errorf("expected default time limit, got %d", q2.TimeLimitSec)
	}
	if q2.Difficulty != "Medium" {
		t.Errorf("expected default difficulty, got %q", q2.Difficulty)
	}
	// Option indices sort numerically, so 10 comes after 2.
	if len(q2.Options) != 3 || q2.Options[2].Text != "Compiles the program" {
		t.Errorf("unexpected option order: %+v", q2.Options)
	}
	if !q2.Options[0].IsCorrect {
		t.Errorf("expected first option of q2 to be correct: %+v", q2.Options)
	}
}

func TestParseTestFormDropsBlankQuestions(t *testing.T) {
	form := validForm()
	form.Set("q_text_3", "   ")
	form.Set("q_3_correct", "1")
	form.Set("q_3_option_text_1", "Yes")
	form.Set("q_3_option_text_2", "No")

	draft, err := ParseTestForm(form)
	if err != nil {
		t.Fatalf("ParseTestForm: %v", err)
	}
	if len(draft.Questions) != 2 {
		t.Fatalf("blank question should be dropped, got %d questions", len(draft.Questions))
	}
}

func TestParseTestFormBadTimeLimit(t *testing.T) {
	form := validForm()
	form.Set("q_1_time_limit", "soon")

	if _, err := ParseTestForm(form); !errors.Is(err, ErrBadTimeLimit) {
		t.Fatalf("expected ErrBadTimeLimit, got %v", err)
	}
}

func TestParseTestFormTooFewQuestions(t *testing.T) {
	form := url.Values{
		"title":             {"Tiny"},
		"q_text_1":          {"Only question"},
		"q_1_correct":       {"1"},
		"q_1_option_text_1": {"A"},
		"q_1_option_text_2": {"B"},
	}
	if _, err := ParseTestForm(form); !errors.Is(err, ErrTooFewQuestions) {
		t.Fatalf("expected ErrTooFewQuestions, got %v", err)
	}
}

func TestParseTestFormKeepsIncompleteQuestionForSkipReport(t *testing.T) {
	form := validForm()
	form.Set("q_text_3", "Orphan question")
	form.Set("q_3_option_text_1", "Only option")

	draft, err := ParseTestForm(form)
	if err != nil {
		t.Fatalf("ParseTestForm: %v", err)
	}
	if len(draft.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(draft.Questions))
	}
	q3 := draft.Questions[2]
	if q3.HasCorrect || len(q3.Options) != 1 {
		t.Fatalf("expected incomplete question to be carried as-is: %+v", q3)
	}
}

func TestParseTestFormCorrectIndexOnBlankOption(t *testing.T) {
	form := validForm()
	form.Set("q_text_3", "Tricky")
	form.Set("q_3_correct", "2")
	form.Set("q_3_option_text_1", "Kept")
	form.Set("q_3_option_text_2", "   ")
	form.Set("q_3_option_text_3", "Also kept")

	draft, err := ParseTestForm(form)
	if err != nil {
		t.Fatalf("ParseTestForm: %v", err)
	}
	q3 := draft.Questions[2]
	if q3.HasCorrect {
		t.Fatalf("answer key on a dropped option should not count: %+v", q3)
	}
}

const validImport = `{
	"title": "Networking",
	"description": "TCP and friends",
	"difficulty": "Hard",
	"questions": [
		{
			"text": "Which protocol is connection oriented?",
			"options": ["UDP", "TCP"],
			"correct_option_index": 1,
			"time_limit_sec": 45
		},
		{
			"text": "Default HTTP port?",
			"options": ["80", "443", "8080"],
			"correct_option_index": 0
		}
	]
}`

func TestParseImport(t *testing.T) {
	draft, err := ParseImport(strings.NewReader(validImport))
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}
	if draft.Title != "Networking" || draft.Difficulty != "Hard" {
		t.Fatalf("unexpected metadata: %+v", draft)
	}
	if len(draft.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(draft.Questions))
	}
	if draft.Questions[0].TimeLimitSec != 45 {
		t.Errorf("time limit not honored: %+v", draft.Questions[0])
	}
	if draft.Questions[1].TimeLimitSec != 60 {
		t.Errorf("expected default time limit: %+v", draft.Questions[1])
	}
	if !draft.Questions[0].Options[1].IsCorrect || draft.Questions[0].Options[0].IsCorrect {
		t.Errorf("correct index not applied: %+v", draft.Questions[0].Options)
	}
}

func TestParseImportErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"malformed json", `{"title": "x",`, ErrMalformedDocument},
		{"questions not a list", `{"title": "x", "questions": "nope"}`, ErrInvalidDocument},
		{"missing title", `{"questions": []}`, ErrInvalidDocument},
		{"missing questions", `{"title": "x"}`, ErrInvalidDocument},
		{"too few questions", `{"title": "x", "questions": [{"text": "a", "options": ["1","2"], "correct_option_index": 0}]}`, ErrTooFewQuestions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseImport(strings.NewReader(tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseImportIncompleteQuestionNamesIt(t *testing.T) {
	body := `{
		"title": "Broken",
		"questions": [
			{"text": "Fine", "options": ["a", "b"], "correct_option_index": 0},
			{"text": "No answer key", "options": ["a", "b"]}
		]
	}`
	_, err := ParseImport(strings.NewReader(body))
	if !errors.Is(err, ErrIncompleteQuestion) {
		t.Fatalf("expected ErrIncompleteQuestion, got %v", err)
	}
	if !strings.Contains(err.Error(), "No answer key") {
		t.Fatalf("error should name the question, got %q", err.Error())
	}
}

func TestParseImportOutOfRangeCorrectIndex(t *testing.T) {
	body := `{
		"title": "Broken",
		"questions": [
			{"text": "One", "options": ["a", "b"], "correct_option_index": 2},
			{"text": "Two", "options": ["a", "b"], "correct_option_index": 0}
		]
	}`
	if _, err := ParseImport(strings.NewReader(body)); !errors.Is(err, ErrIncompleteQuestion) {
		t.Fatalf("expected ErrIncompleteQuestion, got %v", err)
	}
}
