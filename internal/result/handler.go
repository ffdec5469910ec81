package result

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
)

type resultService interface {
	ListByUser(ctx context.Context, userID int64) ([]UserResult, error)
	ListByTest(ctx context.Context, testID int64) ([]TestResult, error)
}

type testCatalog interface {
	GetTest(ctx context.Context, id int64) (*content.Test, error)
}

type Handler struct {
	svc     resultService
	catalog testCatalog
	render  *view.Renderer
	logger  *slog.Logger
}

func NewHandler(svc resultService, catalog testCatalog, render *view.Renderer, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, catalog: catalog, render: render, logger: logger}
}

// Profile shows the signed-in user's past results.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	results, err := h.svc.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list user results", "user_id", user.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "profile", map[string]any{
		"User":    user,
		"Results": results,
	})
}

// TestResults shows every submission for one test.
func (h *Handler) TestResults(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	test, results, ok := h.loadTestResults(w, r)
	if !ok {
		return
	}
	h.render.Render(w, r, "test_results", map[string]any{
		"User":           user,
		"Test":           test,
		"Results":        results,
		"TotalQuestions": test.QuestionCount,
	})
}

// ExportResults streams the per-test results as an xlsx download.
func (h *Handler) ExportResults(w http.ResponseWriter, r *http.Request) {
	test, results, ok := h.loadTestResults(w, r)
	if !ok {
		return
	}

	buf, err := buildResultsWorkbook(test, results)
	if err != nil {
		h.logger.Error("build results workbook", "test_id", test.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=test_%d_results.xlsx", test.ID))
	_, _ = buf.WriteTo(w)
}

// ResultsPDF streams the per-test results as a printable report.
func (h *Handler) ResultsPDF(w http.ResponseWriter, r *http.Request) {
	test, results, ok := h.loadTestResults(w, r)
	if !ok {
		return
	}

	buf, err := buildResultsPDF(test, results)
	if err != nil {
		h.logger.Error("build results pdf", "test_id", test.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=test_%d_results.pdf", test.ID))
	_, _ = buf.WriteTo(w)
}

func (h *Handler) loadTestResults(w http.ResponseWriter, r *http.Request) (*content.Test, []TestResult, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.render.NotFound(w, r)
		return nil, nil, false
	}

	test, err := h.catalog.GetTest(r.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrTestNotFound) {
			h.render.NotFound(w, r)
			return nil, nil, false
		}
		h.logger.Error("load test", "test_id", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, nil, false
	}

	results, err := h.svc.ListByTest(r.Context(), id)
	if err != nil {
		h.logger.Error("list test results", "test_id", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, nil, false
	}
	return test, results, true
}
