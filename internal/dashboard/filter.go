package dashboard

import "hrdash/internal/sheet"

// monthHeaderLabel is the sub-header cell sitting in the month column.
const monthHeaderLabel = "Month"

// Filter is the POC and month selection. Empty values impose no constraint.
type Filter struct {
	POC   string `json:"poc"`
	Month string `json:"month"`
}

// IsZero reports whether no filter is selected.
func (f Filter) IsZero() bool {
	return f.POC == "" && f.Month == ""
}

// Match compares the row's POC and month cells with the selection by exact
// string equality.
func (f Filter) Match(row sheet.Row, s Schema) bool {
	if f.POC != "" && row.Text(s.Key(FieldPOC)) != f.POC {
		return false
	}
	if f.Month != "" && row.Text(s.Key(FieldMonth)) != f.Month {
		return false
	}
	return true
}

// Apply returns the rows matching f in their original order.
func Apply(rows []sheet.Row, f Filter, s Schema) []sheet.Row {
	if f.IsZero() {
		return rows
	}
	var out []sheet.Row
	for _, row := range rows {
		if f.Match(row, s) {
			out = append(out, row)
		}
	}
	return out
}

// Choices are the values offered by the filter selects.
type Choices struct {
	POCs   []string `json:"pocs"`
	Months []string `json:"months"`
}

// FilterChoices collects distinct non-empty POC and month values in first
// seen order. The month sub-header label is not offered.
func FilterChoices(rows []sheet.Row, s Schema) Choices {
	var c Choices
	pocs := make(map[string]struct{})
	months := make(map[string]struct{})
	for _, row := range rows {
		if key := s.Key(FieldPOC); row.Truthy(key) {
			v := row.Text(key)
			if _, ok := pocs[v]; !ok {
				pocs[v] = struct{}{}
				c.POCs = append(c.POCs, v)
			}
		}
		if key := s.Key(FieldMonth); row.Truthy(key) {
			v := row.Text(key)
			if _, ok := months[v]; !ok && v != monthHeaderLabel {
				months[v] = struct{}{}
				c.Months = append(c.Months, v)
			}
		}
	}
	return c
}
