package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"hrdash/internal/dashboard"
	"hrdash/internal/sheet"
)

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// parseFilter reads the poc and month selection from query or form values.
// Values are compared verbatim, so they are not trimmed.
func parseFilter(r *http.Request) dashboard.Filter {
	return filterFrom(r.FormValue)
}

func filterFrom(get func(string) string) dashboard.Filter {
	return dashboard.Filter{
		POC:   stripControl(get("poc")),
		Month: stripControl(get("month")),
	}
}

// sanitizeFileName keeps the base name of an uploaded file for display.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.TrimSpace(stripControl(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// stripControl removes control characters except tab, newline and carriage return.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatLabel names the decoder family of a declared content type for metrics.
func formatLabel(contentType string) string {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(contentType, sheet.ContentTypeXLSX):
		return "xlsx"
	case strings.HasPrefix(contentType, sheet.ContentTypeXLS):
		return "xls"
	default:
		return "other"
	}
}
