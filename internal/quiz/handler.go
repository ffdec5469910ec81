package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizhub/internal/app/view"
	"quizhub/internal/auth"
	"quizhub/internal/content"
	"quizhub/internal/result"
)

type testCatalog interface {
	GetTest(ctx context.Context, id int64) (*content.Test, error)
	QuestionIDs(ctx context.Context, testID int64) ([]int64, error)
	GetQuestion(ctx context.Context, id int64) (*content.Question, error)
	IsOptionCorrect(ctx context.Context, optionID int64) (bool, error)
}

type resultRecorder interface {
	Save(ctx context.Context, userID, testID int64, score int) (*result.Result, error)
}

type Handler struct {
	catalog  testCatalog
	results  resultRecorder
	progress *ProgressStore
	render   *view.Renderer
	logger   *slog.Logger
}

func NewHandler(catalog testCatalog, results resultRecorder, progress *ProgressStore, render *view.Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		results:  results,
		progress: progress,
		render:   render,
		logger:   logger,
	}
}

// Start begins an attempt at the given test, replacing any attempt the
// user already had in flight.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	testID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.render.NotFound(w, r)
		return
	}

	test, err := h.catalog.GetTest(r.Context(), testID)
	if err != nil {
		if errors.Is(err, content.ErrTestNotFound) {
			h.render.NotFound(w, r)
			return
		}
		h.logger.Error("load test", "test_id", testID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	questionIDs, err := h.catalog.QuestionIDs(r.Context(), test.ID)
	if err != nil {
		h.logger.Error("load question ids", "test_id", test.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(questionIDs) == 0 {
		view.AddFlash(w, r, "This test has no questions yet.", view.LevelError)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.progress.Start(user.ID, Progress{
		TestID:      test.ID,
		QuestionIDs: questionIDs,
		Total:       len(questionIDs),
	})
	http.Redirect(w, r, "/test/question", http.StatusSeeOther)
}

// Question shows the current question of the attempt in flight.
func (h *Handler) Question(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	p, ok := h.progress.Get(user.ID)
	if !ok {
		view.AddFlash(w, r, "No test in progress, pick one to start.", view.LevelInfo)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if p.Finished() {
		view.AddFlash(w, r, "That test is already completed.", view.LevelInfo)
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	question, err := h.catalog.GetQuestion(r.Context(), p.QuestionIDs[p.Index])
	if err != nil {
		if errors.Is(err, content.ErrQuestionNotFound) {
			h.render.NotFound(w, r)
			return
		}
		h.logger.Error("load question", "question_id", p.QuestionIDs[p.Index], "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render.Render(w, r, "test_page", map[string]any{
		"User":           user,
		"Question":       question,
		"CurrentQNum":    p.Index + 1,
		"TotalQuestions": p.Total,
	})
}

// Answer grades the submitted option and advances the attempt. The final
// answer records a result row and ends the attempt.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	p, ok := h.progress.Get(user.ID)
	if !ok {
		view.AddFlash(w, r, "No test in progress, pick one to start.", view.LevelInfo)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if p.Finished() {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	raw := r.PostFormValue("option")
	if raw == "" {
		view.AddFlash(w, r, "Please select an answer.", view.LevelError)
		http.Redirect(w, r, "/test/question", http.StatusSeeOther)
		return
	}

	// A value that is not a known option id earns no credit but still
	// consumes the question.
	correct := false
	if optionID, err := strconv.ParseInt(raw, 10, 64); err == nil {
		correct, err = h.catalog.IsOptionCorrect(r.Context(), optionID)
		if err != nil {
			h.logger.Error("grade answer", "option_id", optionID, "error", err)
			view.AddFlash(w, r, "Something went wrong, please try again.", view.LevelError)
			http.Redirect(w, r, "/test/question", http.StatusSeeOther)
			return
		}
	}

	if correct {
		p.Score++
	}
	p.Index++

	if !p.Finished() {
		h.progress.Set(user.ID, p)
		http.Redirect(w, r, "/test/question", http.StatusSeeOther)
		return
	}

	h.progress.Clear(user.ID)
	if _, err := h.results.Save(r.Context(), user.ID, p.TestID, p.Score); err != nil {
		h.logger.Error("save result", "user_id", user.ID, "test_id", p.TestID, "error", err)
		view.AddFlash(w, r, "Test complete, but the result could not be saved.", view.LevelError)
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	view.AddFlash(w, r, fmt.Sprintf("Test complete! Your score: %d of %d.", p.Score, p.Total), view.LevelSuccess)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
