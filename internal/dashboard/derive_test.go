package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdash/internal/sheet"
)

func funnelRow(poc, month string, vals ...any) sheet.Row {
	keys := []string{
		"Number of resumes", "Screening Feedback", "__EMPTY_2", "__EMPTY_3", "__EMPTY_4",
		"__EMPTY_5", "__EMPTY_6", "__EMPTY_7", "__EMPTY_8", "__EMPTY_9", "Result",
	}
	row := sheet.Row{"POC": poc, "__EMPTY": month, "__EMPTY_1": ""}
	for i, k := range keys {
		row[k] = ""
		if i < len(vals) {
			row[k] = vals[i]
		}
	}
	return row
}

func TestDerive_SingleRowScenario(t *testing.T) {
	rows := []sheet.Row{{
		"POC":                "A",
		"__EMPTY":            "Jan",
		"Number of resumes":  "50",
		"Screening Feedback": "10",
		"__EMPTY_2":          "5",
		"__EMPTY_3":          "20",
		"__EMPTY_4":          "15",
	}}

	res := Derive(rows, Filter{}, DefaultOptions())

	require.Equal(t, StateReady, res.State)
	assert.Equal(t, 50.0, res.Metrics.TotalResumes)
	assert.Equal(t, Distribution{
		{LabelPending, 10},
		{LabelDuplicate, 5},
		{LabelSelect, 20},
		{LabelReject, 15},
	}, res.Metrics.Screening)
	assert.Equal(t, "20.0%", res.Metrics.PendingRate.String())
	assert.Equal(t, "40.0%", res.Metrics.ScreenSelectRate.String())
	assert.Equal(t, "0.0%", res.Metrics.FinalSelectRate.String())
	assert.Equal(t, 20.0, res.Metrics.ScreenSelects)
}

func TestDerive_InterviewFunnelAndSelects(t *testing.T) {
	rows := []sheet.Row{funnelRow("A", "Jan", 40, 4, 2, 10, 24, 3, 5, 2, 4, 1, 2)}

	m := Derive(rows, Filter{}, DefaultOptions()).Metrics

	assert.Equal(t, Distribution{
		{LabelL1Pending, 3},
		{LabelL1Select, 5},
		{LabelL1Reject, 2},
		{LabelL2Select, 4},
		{LabelL2Reject, 1},
		{LabelFinalSelect, 2},
	}, m.Interview)
	assert.Equal(t, 10.0+5+4+2, m.ScreenSelects)
	assert.Equal(t, "20.0%", m.FinalSelectRate.String())
}

func TestDerive_EmptyStates(t *testing.T) {
	none := Derive(nil, Filter{POC: "A"}, DefaultOptions())
	assert.Equal(t, StateNoData, none.State)
	assert.Zero(t, none.Metrics.TotalResumes)
	assert.Equal(t, "0%", none.Metrics.PendingRate.String())

	rows := []sheet.Row{funnelRow("A", "Jan", 10, 1)}
	miss := Derive(rows, Filter{POC: "B"}, DefaultOptions())
	assert.Equal(t, StateNoMatch, miss.State)
	assert.Equal(t, 1, miss.Uploaded)
	assert.Equal(t, 0, miss.Matched)
	assert.Zero(t, miss.Metrics.TotalResumes)
	assert.Zero(t, miss.Metrics.Screening.Total())
	assert.Zero(t, miss.Metrics.Interview.Total())
	assert.NotEqual(t, none.State, miss.State)
}

func TestDerive_MissingAndNonNumericFieldsAreZero(t *testing.T) {
	rows := []sheet.Row{{"POC": "A", "Number of resumes": "n/a", "Result": "yes"}}

	m := Derive(rows, Filter{}, DefaultOptions()).Metrics

	assert.Zero(t, m.TotalResumes)
	assert.Zero(t, m.Screening.Total())
	assert.Zero(t, m.Interview.Total())
	assert.Equal(t, "0%", m.PendingRate.String())
	assert.Equal(t, "0%", m.FinalSelectRate.String())
}

func TestDerive_FirstMatchWins(t *testing.T) {
	rows := []sheet.Row{
		funnelRow("A", "Jan", 10, 1),
		funnelRow("A", "Jan", 90, 9),
	}

	res := Derive(rows, Filter{POC: "A", Month: "Jan"}, DefaultOptions())

	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 10.0, res.Metrics.TotalResumes)
}

func TestDerive_SumDuplicates(t *testing.T) {
	rows := []sheet.Row{
		funnelRow("A", "Jan", 10, 1, 0, 4),
		funnelRow("B", "Jan", 5, 1, 1, 1),
		funnelRow("A", "Jan", 90, 9, 2, 6),
	}
	opts := DefaultOptions()
	opts.Duplicates = DuplicatesSum

	res := Derive(rows, Filter{POC: "A"}, opts)

	assert.Equal(t, 100.0, res.Metrics.TotalResumes)
	assert.Equal(t, 10.0, res.Metrics.Screening.Value(LabelPending))
	assert.Equal(t, 10.0, res.Metrics.Screening.Value(LabelSelect))
	assert.Equal(t, "A", res.Current.Text("POC"))
	assert.Equal(t, "10.0%", res.Metrics.PendingRate.String())
}

func TestRatio(t *testing.T) {
	tests := []struct {
		r       Ratio
		percent float64
		text    string
	}{
		{Ratio{10, 50}, 20, "20.0%"},
		{Ratio{1, 3}, 100.0 / 3, "33.3%"},
		{Ratio{0, 50}, 0, "0.0%"},
		{Ratio{5, 0}, 0, "0%"},
		{Ratio{0, 0}, 0, "0%"},
		{Ratio{80, 40}, 100, "100.0%"},
		{Ratio{-1, 10}, 0, "0.0%"},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.percent, tt.r.Percent(), 1e-9, "%+v", tt.r)
		assert.Equal(t, tt.text, tt.r.String(), "%+v", tt.r)
	}
}

func TestRatio_PercentWithinBounds(t *testing.T) {
	for num := 0.0; num <= 60; num += 7 {
		for den := 0.0; den <= 60; den += 11 {
			p := Ratio{num, den}.Percent()
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 100.0)
		}
	}
}

func TestCards(t *testing.T) {
	m := Derive([]sheet.Row{funnelRow("A", "Jan", 50, 10, 5, 20, 15, 0, 0, 0, 0, 0, 4)}, Filter{}, DefaultOptions()).Metrics

	assert.Equal(t, []Card{
		{Title: "Total Resumes", Value: "50", Color: "blue"},
		{Title: "Pending", Value: "10", Color: "orange"},
		{Title: "Screen Selects", Value: "24", Color: "green"},
		{Title: "Final Selects", Value: "4", Color: "purple"},
	}, m.CountCards())
	assert.Equal(t, []Card{
		{Title: "Final Status (%)", Value: "20.0%", Color: "purple"},
		{Title: "Pending (%)", Value: "20.0%", Color: "orange"},
		{Title: "Screening Feedback (%)", Value: "40.0%", Color: "green"},
	}, m.PercentCards())
}

func TestCards_GuardedCounts(t *testing.T) {
	m := Derive([]sheet.Row{funnelRow("A", "Jan", 0, 7, 0, 0, 0, 0, 0, 0, 0, 0, 3)}, Filter{}, DefaultOptions()).Metrics

	cards := m.CountCards()
	assert.Equal(t, "0", cards[1].Value, "pending hidden without resumes")
	assert.Equal(t, "0", cards[3].Value, "final selects hidden without screen selects")
	assert.Equal(t, "3", cards[2].Value)
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicatesFirst, p)

	p, err = ParseDuplicatePolicy(" SUM ")
	require.NoError(t, err)
	assert.Equal(t, DuplicatesSum, p)

	_, err = ParseDuplicatePolicy("average")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "12", FormatCount(12))
	assert.Equal(t, "2.5", FormatCount(2.5))
}
