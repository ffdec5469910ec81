package result

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"quizhub/internal/content"
)

// buildResultsPDF renders the per-test results as a printable report.
func buildResultsPDF(test *content.Test, results []TestResult) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Results: "+test.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Results: "+test.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Difficulty: %s  Questions: %d  Submissions: %d",
		test.Difficulty, test.QuestionCount, len(results)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{12, 70, 30, 48}
	headers := []string{"#", "Username", "Score", "Completed At"}

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, res := range results {
		row := []string{
			fmt.Sprintf("%d", i+1),
			res.Username,
			fmt.Sprintf("%d / %d", res.Score, test.QuestionCount),
			res.CompletedAt.Format("2006-01-02 15:04"),
		}
		for j, v := range row {
			pdf.CellFormat(widths[j], 7, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(results) == 0 {
		pdf.CellFormat(0, 7, "No submissions yet.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &buf, nil
}
