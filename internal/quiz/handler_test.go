package quiz

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"quizhub/internal/app/view"
	"quizhub/internal/auth"
	"quizhub/internal/content"
	"quizhub/internal/result"
)

type mockCatalog struct {
	GetTestFn         func(ctx context.Context, id int64) (*content.Test, error)
	QuestionIDsFn     func(ctx context.Context, testID int64) ([]int64, error)
	GetQuestionFn     func(ctx context.Context, id int64) (*content.Question, error)
	IsOptionCorrectFn func(ctx context.Context, optionID int64) (bool, error)
}

func (m *mockCatalog) GetTest(ctx context.Context, id int64) (*content.Test, error) {
	return m.GetTestFn(ctx, id)
}
func (m *mockCatalog) QuestionIDs(ctx context.Context, testID int64) ([]int64, error) {
	return m.QuestionIDsFn(ctx, testID)
}
func (m *mockCatalog) GetQuestion(ctx context.Context, id int64) (*content.Question, error) {
	return m.GetQuestionFn(ctx, id)
}
func (m *mockCatalog) IsOptionCorrect(ctx context.Context, optionID int64) (bool, error) {
	return m.IsOptionCorrectFn(ctx, optionID)
}

type mockRecorder struct {
	SaveFn func(ctx context.Context, userID, testID int64, score int) (*result.Result, error)
}

func (m *mockRecorder) Save(ctx context.Context, userID, testID int64, score int) (*result.Result, error) {
	return m.SaveFn(ctx, userID, testID, score)
}

func newTestHandler(t *testing.T, catalog *mockCatalog, recorder *mockRecorder) (*Handler, *ProgressStore) {
	t.Helper()
	render, err := view.NewRenderer("../../web/templates")
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}
	progress := NewProgressStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(catalog, recorder, progress, render, logger), progress
}

func withUser(r *http.Request, userID int64) *http.Request {
	u := &auth.User{ID: userID, Username: "taker"}
	return r.WithContext(auth.ContextWithUser(r.Context(), u))
}

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleCatalog() *mockCatalog {
	return &mockCatalog{
		GetTestFn: func(_ context.Context, id int64) (*content.Test, error) {
			if id != 7 {
				return nil, content.ErrTestNotFound
			}
			return &content.Test{ID: 7, Title: "Go basics", QuestionCount: 2}, nil
		},
		QuestionIDsFn: func(_ context.Context, _ int64) ([]int64, error) {
			return []int64{101, 102}, nil
		},
		GetQuestionFn: func(_ context.Context, id int64) (*content.Question, error) {
			return &content.Question{
				ID: id, TestID: 7, Text: "What is a goroutine?",
				Difficulty: "Easy", TimeLimitSec: 30,
				Options: []content.Option{{ID: 1001, Text: "A"}, {ID: 1002, Text: "B"}},
			}, nil
		},
		IsOptionCorrectFn: func(_ context.Context, optionID int64) (bool, error) {
			return optionID == 1002, nil
		},
	}
}

func TestStartUnknownTest(t *testing.T) {
	h, _ := newTestHandler(t, sampleCatalog(), &mockRecorder{})

	r := httptest.NewRequest(http.MethodGet, "/test/start/99", nil)
	r = withChiParam(withUser(r, 1), "id", "99")
	w := httptest.NewRecorder()
	h.Start(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestStartEmptyTestRedirectsHome(t *testing.T) {
	catalog := sampleCatalog()
	catalog.QuestionIDsFn = func(_ context.Context, _ int64) ([]int64, error) { return nil, nil }
	h, progress := newTestHandler(t, catalog, &mockRecorder{})

	r := httptest.NewRequest(http.MethodGet, "/test/start/7", nil)
	r = withChiParam(withUser(r, 1), "id", "7")
	w := httptest.NewRecorder()
	h.Start(w, r)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if _, ok := progress.Get(1); ok {
		t.Fatal("no attempt should be started for an empty test")
	}
}

func TestStartCreatesAttempt(t *testing.T) {
	h, progress := newTestHandler(t, sampleCatalog(), &mockRecorder{})

	r := httptest.NewRequest(http.MethodGet, "/test/start/7", nil)
	r = withChiParam(withUser(r, 1), "id", "7")
	w := httptest.NewRecorder()
	h.Start(w, r)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/test/question" {
		t.Fatalf("expected redirect to question, got %d %q", w.Code, w.Header().Get("Location"))
	}
	p, ok := progress.Get(1)
	if !ok || p.TestID != 7 || p.Total != 2 || p.Index != 0 || p.Score != 0 {
		t.Fatalf("unexpected progress: %+v ok=%v", p, ok)
	}
}

func TestStartReplacesExistingAttempt(t *testing.T) {
	h, progress := newTestHandler(t, sampleCatalog(), &mockRecorder{})
	progress.Start(1, Progress{TestID: 3, QuestionIDs: []int64{5}, Index: 1, Score: 1, Total: 1})

	r := httptest.NewRequest(http.MethodGet, "/test/start/7", nil)
	r = withChiParam(withUser(r, 1), "id", "7")
	h.Start(httptest.NewRecorder(), r)

	p, _ := progress.Get(1)
	if p.TestID != 7 || p.Index != 0 || p.Score != 0 {
		t.Fatalf("attempt was not replaced: %+v", p)
	}
}

func TestQuestionWithoutAttempt(t *testing.T) {
	h, _ := newTestHandler(t, sampleCatalog(), &mockRecorder{})

	r := withUser(httptest.NewRequest(http.MethodGet, "/test/question", nil), 1)
	w := httptest.NewRecorder()
	h.Question(w, r)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestQuestionRendersCurrent(t *testing.T) {
	h, progress := newTestHandler(t, sampleCatalog(), &mockRecorder{})
	progress.Start(1, Progress{TestID: 7, QuestionIDs: []int64{101, 102}, Total: 2})

	r := withUser(httptest.NewRequest(http.MethodGet, "/test/question", nil), 1)
	w := httptest.NewRecorder()
	h.Question(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "What is a goroutine?") {
		t.Errorf("body should contain the question text")
	}
	if !strings.Contains(body, "Question 1 of 2") {
		t.Errorf("body should show position, got: %.200s", body)
	}
}

func postAnswer(h *Handler, userID int64, option string) *httptest.ResponseRecorder {
	form := url.Values{}
	if option != "" {
		form.Set("option", option)
	}
	r := httptest.NewRequest(http.MethodPost, "/test/answer", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.Answer(w, withUser(r, userID))
	return w
}

func TestAnswerRequiresSelection(t *testing.T) {
	h, progress := newTestHandler(t, sampleCatalog(), &mockRecorder{})
	progress.Start(1, Progress{TestID: 7, QuestionIDs: []int64{101, 102}, Total: 2})

	w := postAnswer(h, 1, "")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/test/question" {
		t.Fatalf("expected redisplay, got %d %q", w.Code, w.Header().Get("Location"))
	}
	p, _ := progress.Get(1)
	if p.Index != 0 || p.Score != 0 {
		t.Fatalf("attempt must not advance without a selection: %+v", p)
	}
}

func TestAnswerGradesAndAdvances(t *testing.T) {
	h, progress := newTestHandler(t, sampleCatalog(), &mockRecorder{})
	progress.Start(1, Progress{TestID: 7, QuestionIDs: []int64{101, 102}, Total: 2})

	w := postAnswer(h, 1, "1002")
	if w.Header().Get("Location") != "/test/question" {
		t.Fatalf("expected redirect to next question, got %q", w.Header().Get("Location"))
	}
	p, _ := progress.Get(1)
	if p.Index != 1 || p.Score != 1 {
		t.Fatalf("correct answer should advance and score: %+v", p)
	}
}

func TestAnswerUnknownOptionEarnsNoCredit(t *testing.T) {
	h, progress := newTestHandler(t, sampleCatalog(), &mockRecorder{})
	progress.Start(1, Progress{TestID: 7, QuestionIDs: []int64{101, 102}, Total: 2})

	postAnswer(h, 1, "424242")
	p, _ := progress.Get(1)
	if p.Index != 1 || p.Score != 0 {
		t.Fatalf("unknown option should advance without credit: %+v", p)
	}
}

func TestAnswerCompletesAttempt(t *testing.T) {
	var saved *result.Result
	recorder := &mockRecorder{
		SaveFn: func(_ context.Context, userID, testID int64, score int) (*result.Result, error) {
			saved = &result.Result{ID: 1, UserID: userID, TestID: testID, Score: score}
			return saved, nil
		},
	}
	h, progress := newTestHandler(t, sampleCatalog(), recorder)
	progress.Start(1, Progress{TestID: 7, QuestionIDs: []int64{101, 102}, Index: 1, Score: 1, Total: 2})

	w := postAnswer(h, 1, "1002")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/profile" {
		t.Fatalf("expected redirect to profile, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if saved == nil || saved.Score != 2 || saved.TestID != 7 || saved.UserID != 1 {
		t.Fatalf("unexpected saved result: %+v", saved)
	}
	if _, ok := progress.Get(1); ok {
		t.Fatal("attempt should be cleared after completion")
	}
}
