// Package dashboard derives the recruitment funnel metrics shown on the
// dashboard from parsed spreadsheet rows.
package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

// Field is a logical column the dashboard reads.
type Field string

const (
	FieldPOC         Field = "poc"
	FieldMonth       Field = "month"
	FieldResumes     Field = "resumes"
	FieldPending     Field = "pending"
	FieldDuplicate   Field = "duplicate"
	FieldSelect      Field = "select"
	FieldReject      Field = "reject"
	FieldL1Pending   Field = "l1_pending"
	FieldL1Select    Field = "l1_select"
	FieldL1Reject    Field = "l1_reject"
	FieldL2Select    Field = "l2_select"
	FieldL2Reject    Field = "l2_reject"
	FieldFinalSelect Field = "final_select"
)

// Fields lists every logical column in display order.
var Fields = []Field{
	FieldPOC, FieldMonth, FieldResumes,
	FieldPending, FieldDuplicate, FieldSelect, FieldReject,
	FieldL1Pending, FieldL1Select, FieldL1Reject, FieldL2Select, FieldL2Reject, FieldFinalSelect,
}

var (
	ErrUnknownField   = errors.New("unknown column field")
	ErrMissingColumns = errors.New("missing columns")
)

// Schema binds each field to a row key.
type Schema map[Field]string

// DefaultSchema is the layout of the recruitment tracker sheet, whose
// sub-headers sit in the second row so most metric columns have blank
// top-level headers.
func DefaultSchema() Schema {
	return Schema{
		FieldPOC:         "POC",
		FieldMonth:       "__EMPTY",
		FieldResumes:     "Number of resumes",
		FieldPending:     "Screening Feedback",
		FieldDuplicate:   "__EMPTY_2",
		FieldSelect:      "__EMPTY_3",
		FieldReject:      "__EMPTY_4",
		FieldL1Pending:   "__EMPTY_5",
		FieldL1Select:    "__EMPTY_6",
		FieldL1Reject:    "__EMPTY_7",
		FieldL2Select:    "__EMPTY_8",
		FieldL2Reject:    "__EMPTY_9",
		FieldFinalSelect: "Result",
	}
}

// Key returns the row key bound to f.
func (s Schema) Key(f Field) string {
	return s[f]
}

// ParseColumnMap overrides the default bindings with a comma separated list
// of field=header pairs, e.g. "month=Month,duplicate=Duplicate".
func ParseColumnMap(mapping string) (Schema, error) {
	schema := DefaultSchema()
	mapping = strings.TrimSpace(mapping)
	if mapping == "" {
		return schema, nil
	}

	for _, pair := range strings.Split(mapping, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, header, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("column mapping %q: expected field=header", pair)
		}
		field := Field(strings.ToLower(strings.TrimSpace(name)))
		if _, known := schema[field]; !known {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		header = strings.TrimSpace(header)
		if header == "" {
			return nil, fmt.Errorf("column mapping %q: empty header", pair)
		}
		schema[field] = header
	}
	return schema, nil
}

// Missing returns the bound keys absent from headers, in field order.
func (s Schema) Missing(headers []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	var missing []string
	for _, f := range Fields {
		if _, ok := present[s[f]]; !ok {
			missing = append(missing, s[f])
		}
	}
	return missing
}

// Check fails with ErrMissingColumns when any bound key is absent.
func (s Schema) Check(headers []string) error {
	if missing := s.Missing(headers); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}
