package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultDifficulty   = "Medium"
	defaultTimeLimitSec = 60
)

var (
	ErrBadTimeLimit       = errors.New("time limit must be a whole number of seconds")
	ErrTooFewQuestions    = errors.New("a test needs at least two questions")
	ErrMalformedDocument  = errors.New("document is not valid JSON")
	ErrInvalidDocument    = errors.New("document must contain a title and a list of questions")
	ErrIncompleteQuestion = errors.New("question has incomplete data")
)

// TestDraft is a parsed, not yet persisted test. Both the authoring form
// and the JSON upload normalize into this shape.
type TestDraft struct {
	Title       string
	Description string
	Difficulty  string
	Questions   []QuestionDraft
}

type QuestionDraft struct {
	// Label identifies the question in operator-facing notices: the form
	// index for form input, the question text for uploads.
	Label        string
	Text         string
	Difficulty   string
	TimeLimitSec int
	Options      []OptionDraft
	HasCorrect   bool
}

type OptionDraft struct {
	Text      string
	IsCorrect bool
}

type formQuestion struct {
	text       string
	difficulty string
	timeLimit  int
	correct    string
	hasCorrect bool
	options    map[string]string
}

// ParseTestForm reconstructs a test draft from the authoring form. Field
// names follow the scheme q_text_<n>, q_<n>_difficulty, q_<n>_time_limit,
// q_<n>_correct and q_<n>_option_text_<m>; unrelated fields are ignored.
func ParseTestForm(form url.Values) (*TestDraft, error) {
	draft := &TestDraft{
		Title:       strings.TrimSpace(form.Get("title")),
		Description: strings.TrimSpace(form.Get("description")),
		Difficulty:  strings.TrimSpace(form.Get("test_difficulty")),
	}
	if draft.Difficulty == "" {
		draft.Difficulty = defaultDifficulty
	}

	questions := map[string]*formQuestion{}
	get := func(id string) *formQuestion {
		q, ok := questions[id]
		if !ok {
			q = &formQuestion{timeLimit: defaultTimeLimitSec, options: map[string]string{}}
			questions[id] = q
		}
		return q
	}

	for key := range form {
		value := form.Get(key)
		switch {
		case key == "title" || key == "description" || key == "test_difficulty":
			// handled above
		case strings.HasPrefix(key, "q_text_"):
			get(strings.TrimPrefix(key, "q_text_")).text = strings.TrimSpace(value)
		case strings.HasPrefix(key, "q_") && strings.HasSuffix(key, "_difficulty"):
			id := strings.TrimSuffix(strings.TrimPrefix(key, "q_"), "_difficulty")
			get(id).difficulty = strings.TrimSpace(value)
		case strings.HasPrefix(key, "q_") && strings.HasSuffix(key, "_time_limit"):
			id := strings.TrimSuffix(strings.TrimPrefix(key, "q_"), "_time_limit")
			raw := strings.TrimSpace(value)
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("question %s: %w", id, ErrBadTimeLimit)
			}
			get(id).timeLimit = n
		case strings.HasPrefix(key, "q_") && strings.HasSuffix(key, "_correct"):
			id := strings.TrimSuffix(strings.TrimPrefix(key, "q_"), "_correct")
			q := get(id)
			q.correct = strings.TrimSpace(value)
			q.hasCorrect = q.correct != ""
		case strings.HasPrefix(key, "q_") && strings.Contains(key, "_option_text_"):
			parts := strings.Split(key, "_option_text_")
			if len(parts) != 2 {
				continue
			}
			id := strings.TrimPrefix(parts[0], "q_")
			get(id).options[parts[1]] = strings.TrimSpace(value)
		}
	}

	for _, id := range sortedKeys(questions) {
		q := questions[id]
		if q.text == "" {
			continue
		}
		qd := QuestionDraft{
			Label:        id,
			Text:         q.text,
			Difficulty:   q.difficulty,
			TimeLimitSec: q.timeLimit,
			HasCorrect:   q.hasCorrect,
		}
		if qd.Difficulty == "" {
			qd.Difficulty = defaultDifficulty
		}
		for _, optID := range sortedKeys(q.options) {
			text := q.options[optID]
			if text == "" {
				continue
			}
			qd.Options = append(qd.Options, OptionDraft{
				Text:      text,
				IsCorrect: q.hasCorrect && optID == q.correct,
			})
		}
		// A correct index pointing at a blank, dropped option leaves the
		// question without an answer key; treat it like a missing index.
		qd.HasCorrect = false
		for _, opt := range qd.Options {
			if opt.IsCorrect {
				qd.HasCorrect = true
				break
			}
		}
		draft.Questions = append(draft.Questions, qd)
	}

	if len(draft.Questions) < 2 {
		return nil, ErrTooFewQuestions
	}
	return draft, nil
}

// sortedKeys orders numeric keys numerically so questions and options come
// out in the same order the form laid them out.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		if errA != errB {
			return errA == nil
		}
		return keys[i] < keys[j]
	})
	return keys
}

type importDocument struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Difficulty  string           `json:"difficulty"`
	Questions   []importQuestion `json:"questions"`
}

type importQuestion struct {
	Text               string   `json:"text"`
	Difficulty         string   `json:"difficulty"`
	TimeLimitSec       *int     `json:"time_limit_sec"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correct_option_index"`
}

// ParseImport reads an uploaded JSON document into a test draft. Every
// question must carry text, at least two options and an in-range correct
// option index; a single bad question rejects the whole document.
func ParseImport(r io.Reader) (*TestDraft, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var doc importDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrInvalidDocument
		}
		return nil, ErrMalformedDocument
	}

	doc.Title = strings.TrimSpace(doc.Title)
	if doc.Title == "" || doc.Questions == nil {
		return nil, ErrInvalidDocument
	}
	if len(doc.Questions) < 2 {
		return nil, ErrTooFewQuestions
	}

	draft := &TestDraft{
		Title:       doc.Title,
		Description: strings.TrimSpace(doc.Description),
		Difficulty:  strings.TrimSpace(doc.Difficulty),
	}
	if draft.Difficulty == "" {
		draft.Difficulty = defaultDifficulty
	}

	for _, q := range doc.Questions {
		text := strings.TrimSpace(q.Text)
		if text == "" || len(q.Options) < 2 || q.CorrectOptionIndex == nil ||
			*q.CorrectOptionIndex < 0 || *q.CorrectOptionIndex >= len(q.Options) {
			return nil, fmt.Errorf("%w: %q", ErrIncompleteQuestion, text)
		}

		qd := QuestionDraft{
			Label:        text,
			Text:         text,
			Difficulty:   strings.TrimSpace(q.Difficulty),
			TimeLimitSec: defaultTimeLimitSec,
			HasCorrect:   true,
		}
		if qd.Difficulty == "" {
			qd.Difficulty = defaultDifficulty
		}
		if q.TimeLimitSec != nil {
			qd.TimeLimitSec = *q.TimeLimitSec
		}
		for i, opt := range q.Options {
			qd.Options = append(qd.Options, OptionDraft{
				Text:      strings.TrimSpace(opt),
				IsCorrect: i == *q.CorrectOptionIndex,
			})
		}
		draft.Questions = append(draft.Questions, qd)
	}
	return draft, nil
}
