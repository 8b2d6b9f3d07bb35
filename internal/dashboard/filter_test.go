package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hrdash/internal/sheet"
)

func sampleRows() []sheet.Row {
	return []sheet.Row{
		{"POC": "", "__EMPTY": "Month"},
		{"POC": "Asha", "__EMPTY": "Jan"},
		{"POC": "Ravi", "__EMPTY": "Jan"},
		{"POC": "Asha", "__EMPTY": "Feb"},
		{"POC": "Ravi", "__EMPTY": int64(3)},
		{"POC": int64(0), "__EMPTY": ""},
	}
}

func TestApply_ExactSubset(t *testing.T) {
	rows := sampleRows()
	s := DefaultSchema()

	filters := []Filter{
		{},
		{POC: "Asha"},
		{Month: "Jan"},
		{POC: "Ravi", Month: "Jan"},
		{POC: "asha"},
		{Month: "3"},
		{POC: "Nobody"},
	}

	for _, f := range filters {
		got := Apply(rows, f, s)

		var want []sheet.Row
		for _, r := range rows {
			if (f.POC == "" || r.Text("POC") == f.POC) && (f.Month == "" || r.Text("__EMPTY") == f.Month) {
				want = append(want, r)
			}
		}
		assert.Equal(t, want, got, "filter %+v", f)
	}
}

func TestApply_NoFilterReturnsAllRows(t *testing.T) {
	rows := sampleRows()
	assert.Len(t, Apply(rows, Filter{}, DefaultSchema()), len(rows))
}

func TestFilterChoices(t *testing.T) {
	c := FilterChoices(sampleRows(), DefaultSchema())

	assert.Equal(t, []string{"Asha", "Ravi"}, c.POCs)
	assert.Equal(t, []string{"Jan", "Feb", "3"}, c.Months)
}

func TestFilterChoices_CustomSchema(t *testing.T) {
	rows := []sheet.Row{
		{"Recruiter": "Kim", "Period": "Q1"},
		{"Recruiter": "Kim", "Period": "Q2"},
	}
	s := DefaultSchema()
	s[FieldPOC] = "Recruiter"
	s[FieldMonth] = "Period"

	c := FilterChoices(rows, s)
	assert.Equal(t, []string{"Kim"}, c.POCs)
	assert.Equal(t, []string{"Q1", "Q2"}, c.Months)
}
