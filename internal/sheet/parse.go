package sheet

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Parse validates the declared content type, then decodes the first sheet of
// the workbook read from r. The decoder is picked from the file signature,
// not from the declared type.
func Parse(r io.Reader, contentType string) (Table, error) {
	if err := ValidateContentType(contentType); err != nil {
		return Table{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("%w: read upload: %v", ErrParse, err)
	}

	var (
		name string
		grid [][]string
	)
	switch {
	case bytes.HasPrefix(data, zipMagic):
		name, grid, err = decodeXLSX(data)
	case bytes.HasPrefix(data, oleMagic):
		name, grid, err = decodeXLS(data)
	default:
		err = fmt.Errorf("%w: not an Excel workbook", ErrParse)
	}
	if err != nil {
		return Table{}, err
	}

	table := tableFromGrid(grid)
	table.Sheet = name
	return table, nil
}

func decodeXLSX(data []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	if name == "" {
		return "", nil, fmt.Errorf("%w: no worksheet found", ErrParse)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("%w: sheet %q: %v", ErrParse, name, err)
	}
	return name, rows, nil
}

// decodeXLS reads the legacy BIFF format. Labels and the sheet name come
// from the xls decoder; value cells are re-read from the records because the
// decoder renders numbers through their cell format and drops formula results.
func decodeXLS(data []byte) (string, [][]string, error) {
	name, grid, err := decodeXLSLabels(data)
	if err != nil {
		return "", nil, err
	}
	values, err := biffValues(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return name, overlayValues(grid, values), nil
}

// decodeXLSLabels turns decoder panics on malformed records into parse errors.
func decodeXLSLabels(data []byte) (name string, grid [][]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			name, grid = "", nil
			err = fmt.Errorf("%w: corrupt xls: %v", ErrParse, rec)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if wb.NumSheets() == 0 {
		return "", nil, fmt.Errorf("%w: no worksheet found", ErrParse)
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return "", nil, fmt.Errorf("%w: no worksheet found", ErrParse)
	}

	for i := 0; i <= int(ws.MaxRow); i++ {
		row := sheetRow(ws, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for c := 0; c <= row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		grid = append(grid, cells)
	}
	return ws.Name, grid, nil
}

// sheetRow returns nil for rows without records; the decoder dereferences
// a missing row instead of reporting it.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// tableFromGrid builds records the way spreadsheet-to-JSON converters do:
// the first used row is the header, the used column span bounds every row,
// fully blank rows are dropped.
func tableFromGrid(grid [][]string) Table {
	headerIdx := -1
	for i, cells := range grid {
		if !blank(cells, 0, len(cells)) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return Table{}
	}

	minCol, maxCol := -1, -1
	for _, cells := range grid[headerIdx:] {
		for c, v := range cells {
			if v == "" {
				continue
			}
			if minCol < 0 || c < minCol {
				minCol = c
			}
			if c > maxCol {
				maxCol = c
			}
		}
	}

	headerCells := make([]string, maxCol-minCol+1)
	for c := range headerCells {
		headerCells[c] = cell(grid[headerIdx], minCol+c)
	}
	headers := headerKeys(headerCells)

	var rows []Row
	for _, cells := range grid[headerIdx+1:] {
		if blank(cells, minCol, maxCol+1) {
			continue
		}
		row := make(Row, len(headers))
		for c, key := range headers {
			row[key] = parseValue(cell(cells, minCol+c))
		}
		rows = append(rows, row)
	}

	return Table{Headers: headers, Rows: rows}
}

// headerKeys names blank header cells __EMPTY and disambiguates repeats with
// _1, _2, ... suffixes, skipping names already taken.
func headerKeys(cells []string) []string {
	seen := make(map[string]int, len(cells))
	keys := make([]string, len(cells))
	for i, label := range cells {
		if label == "" {
			label = "__EMPTY"
		}
		key := label
		if n := seen[label]; n > 0 {
			for {
				key = label + "_" + strconv.Itoa(n)
				n++
				if seen[key] == 0 {
					break
				}
			}
			seen[label] = n
			seen[key] = 1
		} else {
			seen[label] = 1
		}
		keys[i] = key
	}
	return keys
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func blank(cells []string, from, to int) bool {
	for i := from; i < to && i < len(cells); i++ {
		if i >= 0 && cells[i] != "" {
			return false
		}
	}
	return true
}
