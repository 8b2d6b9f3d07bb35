package sheet

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Accepted declared content types.
const (
	ContentTypeXLS  = "application/vnd.ms-excel"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	// ErrUnsupportedType is returned when the declared content type is not a spreadsheet.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrParse wraps every failure to decode an accepted file.
	ErrParse = errors.New("cannot parse spreadsheet")
)

// ValidateContentType accepts the two Excel media types. Parameters and case
// are ignored.
func ValidateContentType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case ContentTypeXLS, ContentTypeXLSX:
		return nil
	}
	if mediaType == "" {
		return fmt.Errorf("%w: missing content type", ErrUnsupportedType)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
}

// ContentTypeForExt maps a file extension (with or without the dot) to the
// content type a browser would declare for it.
func ContentTypeForExt(ext string) (string, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "xls":
		return ContentTypeXLS, true
	case "xlsx":
		return ContentTypeXLSX, true
	}
	return "", false
}
