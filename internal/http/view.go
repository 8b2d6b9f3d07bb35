package http

import (
	"net/url"
	"slices"
	"time"

	"hrdash/internal/dashboard"
	"hrdash/internal/session"
)

// Messages shown inline next to the upload form.
const (
	msgInvalidType    = "Please upload a valid Excel file (.xls or .xlsx)"
	msgParseFailed    = "The file could not be read as a spreadsheet. Please check it and try again."
	msgMissingColumns = "The spreadsheet is missing expected columns: "
	msgNoFile         = "Please choose a file to upload."
	msgTooLarge       = "The file is too large."
	msgBadRequest     = "The upload could not be processed."
	msgRateLimited    = "Too many uploads. Please wait a moment and try again."
)

// pageData feeds index.html.
type pageData struct {
	SessionID string
	Dashboard dashboardView
}

// dashboardView feeds the dashboard partial.
type dashboardView struct {
	SessionID    string
	State        dashboard.State
	HasData      bool
	FileName     string
	UploadedAt   string
	Rows         int
	Matched      int
	Filter       dashboard.Filter
	Choices      dashboard.Choices
	MissingPOC   string
	MissingMonth string
	CountCards   []dashboard.Card
	PercentCards []dashboard.Card
	Charts       []dashboard.PieChart
	Error        string
	SwapSession  bool
}

// apiResponse is the JSON form of the dashboard.
type apiResponse struct {
	SessionID    string            `json:"sessionId"`
	FileName     string            `json:"fileName,omitempty"`
	UploadedAt   *time.Time        `json:"uploadedAt,omitempty"`
	Choices      dashboard.Choices `json:"choices"`
	Result       dashboard.Result  `json:"result"`
	CountCards   []dashboard.Card  `json:"countCards"`
	PercentCards []dashboard.Card  `json:"percentCards"`
}

// buildView derives the dashboard for one session and filter.
func buildView(id string, st session.State, f dashboard.Filter, opts dashboard.Options) (dashboardView, dashboard.Result) {
	res := dashboard.Derive(st.Rows, f, opts)

	v := dashboardView{
		SessionID: id,
		State:     res.State,
		HasData:   !st.Empty(),
		FileName:  st.FileName,
		Rows:      res.Uploaded,
		Matched:   res.Matched,
		Filter:    f,
	}
	if !st.UploadedAt.IsZero() {
		v.UploadedAt = st.UploadedAt.Format("2006-01-02 15:04")
	}
	if v.HasData {
		v.Choices = dashboard.FilterChoices(st.Rows, opts.Schema)
		v.MissingPOC = missingChoice(f.POC, v.Choices.POCs)
		v.MissingMonth = missingChoice(f.Month, v.Choices.Months)
	}
	if res.State == dashboard.StateReady {
		v.CountCards = res.Metrics.CountCards()
		v.PercentCards = res.Metrics.PercentCards()
		v.Charts = []dashboard.PieChart{
			dashboard.NewPieChart("Screening Feedback", res.Metrics.Screening),
			dashboard.NewPieChart("Interview Status", res.Metrics.Interview),
		}
	}
	return v, res
}

// missingChoice returns selected when the dataset offers no such option, so
// the select still shows the filter in force.
func missingChoice(selected string, choices []string) string {
	if selected == "" || slices.Contains(choices, selected) {
		return ""
	}
	return selected
}

// pageURL is the shareable address of a session view.
func pageURL(id string, f dashboard.Filter) string {
	q := url.Values{}
	q.Set("session", id)
	if f.POC != "" {
		q.Set("poc", f.POC)
	}
	if f.Month != "" {
		q.Set("month", f.Month)
	}
	return "/?" + q.Encode()
}
