// Package sheettest builds in-memory workbooks for tests.
package sheettest

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// FunnelHeader is the two-level header of the recruitment tracker: blank
// header cells become __EMPTY, __EMPTY_1, ... once parsed.
var FunnelHeader = []any{
	"POC", nil, "Number of resumes", nil, "Screening Feedback",
	nil, nil, nil, nil, nil, nil, nil, nil, "Result",
}

// FunnelRow lays out one data row under FunnelHeader.
func FunnelRow(poc, month string, resumes, pending, duplicate, sel, reject, l1Pending, l1Select, l1Reject, l2Select, l2Reject, final int) []any {
	return []any{
		poc, month, resumes, nil, pending,
		duplicate, sel, reject, l1Pending, l1Select, l1Reject, l2Select, l2Reject, final,
	}
}

// XLSX writes rows into the first sheet of a new workbook and returns the
// file bytes. Nil and empty-string values leave the cell unset.
func XLSX(t testing.TB, rows ...[]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", name, v); err != nil {
				t.Fatalf("set %s: %v", name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
