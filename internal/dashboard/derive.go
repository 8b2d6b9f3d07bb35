package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hrdash/internal/sheet"
)

// Category labels of the two funnels.
const (
	LabelPending     = "Pending"
	LabelDuplicate   = "Duplicate"
	LabelSelect      = "Select"
	LabelReject      = "Reject"
	LabelL1Pending   = "L1 Pending"
	LabelL1Select    = "L1 Select"
	LabelL1Reject    = "L1 Reject"
	LabelL2Select    = "L2 Select"
	LabelL2Reject    = "L2 Reject"
	LabelFinalSelect = "Final Select"
)

// DuplicatePolicy decides how several rows matching one filter combine.
type DuplicatePolicy string

const (
	// DuplicatesFirst uses the first matching row and ignores the rest.
	DuplicatesFirst DuplicatePolicy = "first"
	// DuplicatesSum adds up the metric columns of every matching row.
	DuplicatesSum DuplicatePolicy = "sum"
)

// ErrInvalidPolicy is returned for an unknown duplicate policy name.
var ErrInvalidPolicy = errors.New("invalid duplicate policy")

// ParseDuplicatePolicy accepts "first" or "sum"; empty means first.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicatesFirst:
		return DuplicatesFirst, nil
	case DuplicatesSum:
		return DuplicatesSum, nil
	}
	return "", fmt.Errorf("%w: %q (must be first or sum)", ErrInvalidPolicy, s)
}

// Options configure derivation.
type Options struct {
	Schema     Schema
	Duplicates DuplicatePolicy
}

// DefaultOptions binds the default schema with first-match semantics.
func DefaultOptions() Options {
	return Options{Schema: DefaultSchema(), Duplicates: DuplicatesFirst}
}

// State tells the presentation which view to render.
type State string

const (
	StateNoData  State = "no_data"
	StateNoMatch State = "no_match"
	StateReady   State = "ready"
)

// Slice is one category of a distribution.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Distribution is an ordered set of categories with their counts.
type Distribution []Slice

// Value returns the count of label, 0 when absent.
func (d Distribution) Value(label string) float64 {
	for _, s := range d {
		if s.Label == label {
			return s.Value
		}
	}
	return 0
}

// Total sums every category.
func (d Distribution) Total() float64 {
	var t float64
	for _, s := range d {
		t += s.Value
	}
	return t
}

// Ratio is a percentage kept as numerator and denominator so a zero
// denominator renders as "0%".
type Ratio struct {
	Num float64 `json:"num"`
	Den float64 `json:"den"`
}

// Percent returns 100*Num/Den within [0,100], or 0 when Den is not positive.
func (r Ratio) Percent() float64 {
	if r.Den <= 0 {
		return 0
	}
	p := r.Num / r.Den * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// String formats the percentage with one decimal place.
func (r Ratio) String() string {
	if r.Den <= 0 {
		return "0%"
	}
	return strconv.FormatFloat(r.Percent(), 'f', 1, 64) + "%"
}

// Metrics are the figures shown on the dashboard.
type Metrics struct {
	TotalResumes     float64      `json:"totalResumes"`
	ScreenSelects    float64      `json:"screenSelects"`
	Screening        Distribution `json:"screening"`
	Interview        Distribution `json:"interview"`
	PendingRate      Ratio        `json:"pendingRate"`
	ScreenSelectRate Ratio        `json:"screenSelectRate"`
	FinalSelectRate  Ratio        `json:"finalSelectRate"`
}

// Result is the outcome of one derivation.
type Result struct {
	State    State     `json:"state"`
	Uploaded int       `json:"uploaded"`
	Matched  int       `json:"matched"`
	Filter   Filter    `json:"filter"`
	Current  sheet.Row `json:"current,omitempty"`
	Metrics  Metrics   `json:"metrics"`
}

// Derive filters rows, picks the representative record and computes the
// metrics. With no rows or no match every metric is zero.
func Derive(rows []sheet.Row, f Filter, opts Options) Result {
	if opts.Schema == nil {
		opts.Schema = DefaultSchema()
	}

	res := Result{Uploaded: len(rows), Filter: f}
	matched := Apply(rows, f, opts.Schema)
	res.Matched = len(matched)

	switch {
	case len(rows) == 0:
		res.State = StateNoData
	case len(matched) == 0:
		res.State = StateNoMatch
	default:
		res.State = StateReady
		res.Current = representative(matched, opts)
	}
	res.Metrics = compute(res.Current, opts.Schema)
	return res
}

func representative(matched []sheet.Row, opts Options) sheet.Row {
	if opts.Duplicates != DuplicatesSum || len(matched) == 1 {
		return matched[0]
	}

	sum := make(sheet.Row, len(Fields))
	for _, f := range Fields {
		key := opts.Schema.Key(f)
		if f == FieldPOC || f == FieldMonth {
			sum[key] = matched[0][key]
			continue
		}
		var total float64
		for _, row := range matched {
			total += row.Number(key)
		}
		sum[key] = total
	}
	return sum
}

func compute(row sheet.Row, s Schema) Metrics {
	num := func(f Field) float64 { return row.Number(s.Key(f)) }

	m := Metrics{
		TotalResumes: num(FieldResumes),
		Screening: Distribution{
			{LabelPending, num(FieldPending)},
			{LabelDuplicate, num(FieldDuplicate)},
			{LabelSelect, num(FieldSelect)},
			{LabelReject, num(FieldReject)},
		},
		Interview: Distribution{
			{LabelL1Pending, num(FieldL1Pending)},
			{LabelL1Select, num(FieldL1Select)},
			{LabelL1Reject, num(FieldL1Reject)},
			{LabelL2Select, num(FieldL2Select)},
			{LabelL2Reject, num(FieldL2Reject)},
			{LabelFinalSelect, num(FieldFinalSelect)},
		},
	}
	m.ScreenSelects = num(FieldSelect) + num(FieldL1Select) + num(FieldL2Select) + num(FieldFinalSelect)

	pending := m.Screening.Value(LabelPending)
	selected := m.Screening.Value(LabelSelect)
	final := m.Interview.Value(LabelFinalSelect)
	m.PendingRate = Ratio{Num: pending, Den: m.TotalResumes}
	m.ScreenSelectRate = Ratio{Num: selected, Den: m.TotalResumes}
	m.FinalSelectRate = Ratio{Num: final, Den: selected}
	return m
}

// Card is one stat card.
type Card struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Color string `json:"color"`
}

// CountCards are the raw count cards. Pending is only reported once resumes
// were received, final selects only once someone passed screening.
func (m Metrics) CountCards() []Card {
	pending := 0.0
	if m.TotalResumes > 0 {
		pending = m.Screening.Value(LabelPending)
	}
	final := 0.0
	if m.Screening.Value(LabelSelect) > 0 {
		final = m.Interview.Value(LabelFinalSelect)
	}
	return []Card{
		{Title: "Total Resumes", Value: FormatCount(m.TotalResumes), Color: "blue"},
		{Title: "Pending", Value: FormatCount(pending), Color: "orange"},
		{Title: "Screen Selects", Value: FormatCount(m.ScreenSelects), Color: "green"},
		{Title: "Final Selects", Value: FormatCount(final), Color: "purple"},
	}
}

// PercentCards are the ratio cards.
func (m Metrics) PercentCards() []Card {
	return []Card{
		{Title: "Final Status (%)", Value: m.FinalSelectRate.String(), Color: "purple"},
		{Title: "Pending (%)", Value: m.PendingRate.String(), Color: "orange"},
		{Title: "Screening Feedback (%)", Value: m.ScreenSelectRate.String(), Color: "green"},
	}
}

// FormatCount prints a count without a trailing fraction when it is whole.
func FormatCount(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
