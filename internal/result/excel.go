package result

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"quizhub/internal/content"
)

// buildResultsWorkbook renders the per-test results as an xlsx workbook.
func buildResultsWorkbook(test *content.Test, results []TestResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	headers := []string{"#", "Username", "Score", "Out Of", "Completed At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header: %w", err)
		}
	}

	for i, res := range results {
		values := []any{
			i + 1,
			res.Username,
			res.Score,
			test.QuestionCount,
			res.CompletedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("set cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
