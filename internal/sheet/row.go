// Package sheet turns an uploaded spreadsheet into ordered row records.
//
// Records are keyed by the labels of the header row. Blank header cells are
// named __EMPTY, __EMPTY_1, __EMPTY_2, ... and repeated labels receive a
// numeric suffix, so every column of the sheet has a stable key.
package sheet

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Row maps a column key to a scalar cell value: string, int64 or float64.
// Every header key is present; unset cells hold the empty string.
type Row map[string]any

// Table is the parsed first sheet of a workbook.
type Table struct {
	Sheet   string
	Headers []string
	Rows    []Row
}

// Text returns the string form of the value under key, or "" when absent.
func (r Row) Text(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Number coerces the value under key to a float64. Absent keys, empty
// strings, non-numeric text and non-finite results all yield 0.
func (r Row) Number(key string) float64 {
	var f float64
	switch v := r[key].(type) {
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case float64:
		f = v
	case bool:
		if v {
			f = 1
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Truthy reports whether the value under key would count as present:
// non-empty text or a non-zero number.
func (r Row) Truthy(key string) bool {
	switch v := r[key].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	case bool:
		return v
	default:
		return false
	}
}

// Keys returns the row's keys in sorted order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseValue keeps the cell text unless it is the canonical spelling of an
// integer or a float, in which case the number is returned instead.
func parseValue(s string) any {
	if s == "" {
		return ""
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(i, 10) == s {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		if strconv.FormatFloat(f, 'f', -1, 64) == s {
			return f
		}
	}
	return s
}
