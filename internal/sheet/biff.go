package sheet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// BIFF record ids read by the value scan.
const (
	recFormula    = 0x0006
	recEOF        = 0x000A
	recBoundSheet = 0x0085
	recMulRK      = 0x00BD
	recNumber     = 0x0203
	recString     = 0x0207
	recRK         = 0x027E
	recBOF        = 0x0809
)

const biff8 = 0x0600

var errTruncated = errors.New("truncated record")

// cellRef addresses a cell by 0-based row and column.
type cellRef struct {
	row, col int
}

// biffValues reads the cell values of the first worksheet of a legacy
// workbook straight from its records: numbers keep their stored value
// whatever the cell format, and formulas yield their cached result.
func biffValues(data []byte) (map[cellRef]string, error) {
	stream, err := workbookStream(data)
	if err != nil {
		return nil, err
	}
	version, offset, err := firstSheetOffset(stream)
	if err != nil {
		return nil, err
	}
	return scanSheetValues(stream, offset, version >= biff8)
}

// workbookStream returns the Workbook (BIFF8) or Book (BIFF5) stream of the
// compound file.
func workbookStream(data []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "Workbook" || entry.Name == "Book" {
			return io.ReadAll(entry)
		}
	}
	return nil, errors.New("no workbook stream")
}

type biffRecord struct {
	id   uint16
	body []byte
}

func readRecord(stream []byte, off int) (biffRecord, int, error) {
	if off < 0 || off+4 > len(stream) {
		return biffRecord{}, 0, errTruncated
	}
	id := binary.LittleEndian.Uint16(stream[off:])
	end := off + 4 + int(binary.LittleEndian.Uint16(stream[off+2:]))
	if end > len(stream) {
		return biffRecord{}, 0, errTruncated
	}
	return biffRecord{id: id, body: stream[off+4 : end]}, end, nil
}

// firstSheetOffset walks the globals substream and returns the BIFF version
// and the stream offset of the first sheet's BOF.
func firstSheetOffset(stream []byte) (version uint16, offset int, err error) {
	rec, off, err := readRecord(stream, 0)
	if err != nil {
		return 0, 0, err
	}
	if rec.id != recBOF || len(rec.body) < 2 {
		return 0, 0, errors.New("workbook stream does not start with BOF")
	}
	version = binary.LittleEndian.Uint16(rec.body)

	for {
		rec, off, err = readRecord(stream, off)
		if err != nil {
			return 0, 0, err
		}
		switch rec.id {
		case recBoundSheet:
			if len(rec.body) < 4 {
				return 0, 0, errTruncated
			}
			return version, int(binary.LittleEndian.Uint32(rec.body)), nil
		case recEOF:
			return 0, 0, errors.New("no worksheet found")
		}
	}
}

// scanSheetValues collects value cells of the sheet substream starting at
// offset. Records of embedded substreams (charts) are skipped.
func scanSheetValues(stream []byte, offset int, unicode bool) (map[cellRef]string, error) {
	rec, off, err := readRecord(stream, offset)
	if err != nil {
		return nil, err
	}
	if rec.id != recBOF {
		return nil, fmt.Errorf("sheet at offset %d does not start with BOF", offset)
	}

	values := make(map[cellRef]string)
	var pending *cellRef
	depth := 1
	for depth > 0 {
		rec, off, err = readRecord(stream, off)
		if err != nil {
			return nil, err
		}
		switch rec.id {
		case recBOF:
			depth++
			continue
		case recEOF:
			depth--
			continue
		}
		if depth > 1 {
			continue
		}

		body := rec.body
		switch rec.id {
		case recNumber:
			if len(body) < 14 {
				return nil, errTruncated
			}
			f := math.Float64frombits(binary.LittleEndian.Uint64(body[6:14]))
			values[refAt(body)] = formatNumber(f)
		case recRK:
			if len(body) < 10 {
				return nil, errTruncated
			}
			values[refAt(body)] = formatNumber(decodeRK(binary.LittleEndian.Uint32(body[6:10])))
		case recMulRK:
			if len(body) < 6 {
				return nil, errTruncated
			}
			ref := refAt(body)
			n := (len(body) - 6) / 6
			for i := 0; i < n; i++ {
				rk := binary.LittleEndian.Uint32(body[4+i*6+2:])
				values[cellRef{row: ref.row, col: ref.col + i}] = formatNumber(decodeRK(rk))
			}
		case recFormula:
			if len(body) < 14 {
				return nil, errTruncated
			}
			ref := refAt(body)
			v, isString := formulaResult(body[6:14])
			if isString {
				pending = &ref
				continue
			}
			values[ref] = v
		case recString:
			if pending != nil {
				values[*pending] = decodeString(body, unicode)
			}
		}
		pending = nil
	}
	return values, nil
}

func refAt(body []byte) cellRef {
	return cellRef{
		row: int(binary.LittleEndian.Uint16(body[0:2])),
		col: int(binary.LittleEndian.Uint16(body[2:4])),
	}
}

// decodeRK expands the 30-bit RK encoding: bit 0 divides by 100, bit 1
// marks a signed integer, otherwise the bits are the top of an IEEE double.
func decodeRK(rk uint32) float64 {
	var f float64
	if rk&0x02 != 0 {
		f = float64(int32(rk) >> 2)
	} else {
		f = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		f /= 100
	}
	return f
}

var biffErrors = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}

// formulaResult decodes the cached value of a FORMULA record. String results
// live in the STRING record that follows, which isString reports.
func formulaResult(num []byte) (v string, isString bool) {
	if num[6] != 0xFF || num[7] != 0xFF {
		return formatNumber(math.Float64frombits(binary.LittleEndian.Uint64(num))), false
	}
	switch num[0] {
	case 0:
		return "", true
	case 1:
		if num[2] != 0 {
			return "TRUE", false
		}
		return "FALSE", false
	case 2:
		return biffErrors[num[2]], false
	default:
		return "", false
	}
}

// decodeString reads a STRING record. BIFF8 strings carry a flag byte that
// selects compressed Latin-1 or UTF-16; BIFF5 strings are 8-bit.
func decodeString(body []byte, unicode bool) string {
	if len(body) < 2 {
		return ""
	}
	n := int(binary.LittleEndian.Uint16(body))
	chars := body[2:]
	wide := false
	if unicode {
		if len(chars) < 1 {
			return ""
		}
		wide = chars[0]&0x01 != 0
		chars = chars[1:]
	}

	if wide {
		if len(chars) > 2*n {
			chars = chars[:2*n]
		}
		units := make([]uint16, len(chars)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(chars[2*i:])
		}
		return string(utf16.Decode(units))
	}

	if len(chars) > n {
		chars = chars[:n]
	}
	runes := make([]rune, len(chars))
	for i, b := range chars {
		runes[i] = rune(b)
	}
	return string(runes)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// overlayValues writes values into grid, growing it as needed.
func overlayValues(grid [][]string, values map[cellRef]string) [][]string {
	for ref, v := range values {
		for len(grid) <= ref.row {
			grid = append(grid, nil)
		}
		for len(grid[ref.row]) <= ref.col {
			grid[ref.row] = append(grid[ref.row], "")
		}
		grid[ref.row][ref.col] = v
	}
	return grid
}
