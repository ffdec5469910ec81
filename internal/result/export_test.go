package result

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"quizhub/internal/content"
)

func sampleExport() (*content.Test, []TestResult) {
	test := &content.Test{ID: 9, Title: "Go basics", Difficulty: "Easy", QuestionCount: 3}
	results := []TestResult{
		{ID: 1, Username: "alice", Score: 3, CompletedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		{ID: 2, Username: "bob", Score: 1, CompletedAt: time.Date(2026, 8, 2, 11, 30, 0, 0, time.UTC)},
	}
	return test, results
}

func TestBuildResultsWorkbook(t *testing.T) {
	test, results := sampleExport()

	buf, err := buildResultsWorkbook(test, results)
	if err != nil {
		t.Fatalf("buildResultsWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	got, err := f.GetCellValue(sheet, "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "alice" {
		t.Fatalf("expected first data row username, got %q", got)
	}
	got, err = f.GetCellValue(sheet, "D3")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "3" {
		t.Fatalf("expected question count in Out Of column, got %q", got)
	}
}

func TestBuildResultsPDF(t *testing.T) {
	test, results := sampleExport()

	buf, err := buildResultsPDF(test, results)
	if err != nil {
		t.Fatalf("buildResultsPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output does not look like a pdf: %q", buf.Bytes()[:8])
	}
}

func TestBuildResultsPDFEmpty(t *testing.T) {
	test, _ := sampleExport()

	buf, err := buildResultsPDF(test, nil)
	if err != nil {
		t.Fatalf("buildResultsPDF: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty report")
	}
}
