package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"quizhub/internal/app/view"
	"quizhub/internal/auth"
)

type contentService interface {
	ListTests(ctx context.Context) ([]Test, error)
	CreateTestFromForm(ctx context.Context, draft *TestDraft) (*IngestSummary, error)
	CreateTestFromImport(ctx context.Context, draft *TestDraft) (*IngestSummary, error)
	DeleteTest(ctx context.Context, id int64) (string, error)
}

type Handler struct {
	svc    contentService
	render *view.Renderer
	logger *slog.Logger
}

func NewHandler(svc contentService, render *view.Renderer, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, render: render, logger: logger}
}

// Home lists every available test on the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	tests, err := h.svc.ListTests(r.Context())
	if err != nil {
		h.logger.Error("list tests", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	user, _ := auth.CurrentUser(r.Context())
	h.render.Render(w, r, "index", map[string]any{
		"Tests": tests,
		"User":  user,
	})
}

func (h *Handler) CreateTestPage(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())
	h.render.Render(w, r, "create_test", map[string]any{"User": user})
}

func (h *Handler) CreateTest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		view.AddFlash(w, r, "Could not read the submitted form.", view.LevelError)
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}

	draft, err := ParseTestForm(r.PostForm)
	if err != nil {
		view.AddFlash(w, r, ingestMessage(err), view.LevelError)
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}

	summary, err := h.svc.CreateTestFromForm(r.Context(), draft)
	if err != nil {
		if errors.Is(err, ErrTooFewQuestions) {
			view.AddFlash(w, r, ingestMessage(err), view.LevelError)
		} else {
			h.logger.Error("create test", "title", draft.Title, "error", err)
			view.AddFlash(w, r, "Could not save the test, please try again.", view.LevelError)
		}
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}

	for _, label := range summary.Skipped {
		view.AddFlash(w, r, fmt.Sprintf("Question %s was skipped: it needs at least two options and a correct answer.", label), view.LevelWarning)
	}
	view.AddFlash(w, r, fmt.Sprintf("Test %q created with %d questions.", summary.Title, summary.Saved), view.LevelSuccess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ImportTest accepts a multipart upload of a single .json document and
// creates the described test in one shot.
func (h *Handler) ImportTest(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		view.AddFlash(w, r, "No file was uploaded.", view.LevelError)
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		view.AddFlash(w, r, "No file selected.", view.LevelError)
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		view.AddFlash(w, r, "Invalid file format, a .json file is required.", view.LevelError)
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}

	draft, err := ParseImport(file)
	if err != nil {
		view.AddFlash(w, r, ingestMessage(err), view.LevelError)
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}

	summary, err := h.svc.CreateTestFromImport(r.Context(), draft)
	if err != nil {
		h.logger.Error("import test", "title", draft.Title, "error", err)
		view.AddFlash(w, r, "Could not save the imported test, please try again.", view.LevelError)
		http.Redirect(w, r, "/admin/create_test", http.StatusSeeOther)
		return
	}

	view.AddFlash(w, r, fmt.Sprintf("Test %q imported with %d questions.", summary.Title, summary.Saved), view.LevelSuccess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.render.NotFound(w, r)
		return
	}

	title, err := h.svc.DeleteTest(r.Context(), id)
	switch {
	case err == nil:
		view.AddFlash(w, r, fmt.Sprintf("Test %q and all related data deleted.", title), view.LevelSuccess)
	case errors.Is(err, ErrTestNotFound):
		h.render.NotFound(w, r)
		return
	default:
		h.logger.Error("delete test", "test_id", id, "error", err)
		view.AddFlash(w, r, "Could not delete the test, please try again.", view.LevelError)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func ingestMessage(err error) string {
	switch {
	case errors.Is(err, ErrTooFewQuestions):
		return "A test needs at least two complete questions."
	case errors.Is(err, ErrBadTimeLimit):
		return "Time limit must be a whole number of seconds."
	case errors.Is(err, ErrMalformedDocument):
		return "Could not read the JSON file."
	case errors.Is(err, ErrInvalidDocument):
		return "The JSON structure is invalid: a title and a list of questions are required."
	case errors.Is(err, ErrIncompleteQuestion):
		return "Import rejected: " + err.Error() + "."
	default:
		return "Could not process the test data."
	}
}
