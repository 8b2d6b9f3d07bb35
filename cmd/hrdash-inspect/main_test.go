package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdash/internal/dashboard"
	"hrdash/internal/sheet"
	"hrdash/internal/sheet/sheettest"
)

func writeWorkbook(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := sheettest.XLSX(t,
		sheettest.FunnelHeader,
		sheettest.FunnelRow("Asha", "Jan", 50, 10, 5, 20, 15, 4, 8, 2, 6, 1, 3),
		sheettest.FunnelRow("Asha", "Jan", 10, 2, 0, 4, 4, 1, 1, 1, 1, 0, 1),
		sheettest.FunnelRow("Ravi", "Feb", 30, 3, 1, 12, 14, 2, 5, 1, 2, 1, 1),
	)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspect_Text(t *testing.T) {
	path := writeWorkbook(t, "funnel.xlsx")

	out, err := execute(t, path, "--poc", "Asha", "--month", "Jan")

	require.NoError(t, err)
	assert.Contains(t, out, "funnel.xlsx")
	assert.Contains(t, out, "3 uploaded, 2 matched")
	assert.Regexp(t, `Total Resumes\s+50`, out)
	assert.Regexp(t, `Pending \(%\)\s+20\.0%`, out)
	assert.Contains(t, out, "Interview Status")
	assert.Regexp(t, `Final Select\s+3`, out)
}

func TestInspect_JSONSum(t *testing.T) {
	path := writeWorkbook(t, "funnel.xlsx")

	out, err := execute(t, path, "--poc", "Asha", "--duplicates", "sum", "--json")
	require.NoError(t, err)

	var rep report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, dashboard.StateReady, rep.Result.State)
	assert.Equal(t, 60.0, rep.Result.Metrics.TotalResumes)
	assert.Equal(t, []string{"Asha", "Ravi"}, rep.Choices.POCs)
	assert.Equal(t, "Sheet1", rep.Sheet)
}

func TestInspect_NoMatch(t *testing.T) {
	path := writeWorkbook(t, "funnel.xlsx")

	out, err := execute(t, path, "--poc", "Nobody")

	require.NoError(t, err)
	assert.Contains(t, out, "No data found for selected filters.")
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "funnel.csv")
	require.NoError(t, os.WriteFile(csv, []byte("POC,Month\n"), 0o600))
	broken := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(broken, []byte("not a workbook"), 0o600))
	good := writeWorkbook(t, "funnel.xlsx")

	_, err := execute(t, csv)
	assert.ErrorIs(t, err, sheet.ErrUnsupportedType)

	_, err = execute(t, broken)
	assert.ErrorIs(t, err, sheet.ErrParse)

	_, err = execute(t, good, "--duplicates", "average")
	assert.ErrorIs(t, err, dashboard.ErrInvalidPolicy)

	_, err = execute(t, good, "--column-map", "poc=Recruiter", "--strict")
	assert.ErrorIs(t, err, dashboard.ErrMissingColumns)

	_, err = execute(t)
	assert.Error(t, err)
}
