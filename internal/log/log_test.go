package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Output: &buf})

	l.Info("plain")
	l.WithComponent(ComponentIngest).Warn("tagged", FieldRows, 3)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, ComponentApp, recs[0][FieldComponent])
	assert.Equal(t, ComponentIngest, recs[1][FieldComponent])
	assert.EqualValues(t, 3, recs[1][FieldRows])
}

func TestLogHTTPEndLevel(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: FormatJSON, Output: &buf}))
	r := httptest.NewRequest(http.MethodPost, "/upload", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusOK, 3*time.Millisecond, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, http.StatusUnsupportedMediaType, time.Millisecond, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, http.StatusInternalServerError, time.Millisecond, "10.0.0.1")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 3)
	assert.Equal(t, "INFO", recs[0]["level"])
	assert.Equal(t, "WARN", recs[1]["level"])
	assert.Equal(t, "ERROR", recs[2]["level"])
	assert.Equal(t, ComponentHTTP, recs[0][FieldComponent])
	assert.EqualValues(t, 3, recs[0][FieldDuration])
}

func TestLogUploadRejected(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

	sl.LogUploadRejected(context.Background(), "sid", "notes.txt", "text/plain", errors.New("unsupported file type"), ErrorTypeUnsupported)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "sid", recs[0][FieldSessionID])
	assert.Equal(t, ErrorTypeUnsupported, recs[0][FieldErrorType])
	assert.Equal(t, OpParse, recs[0][FieldOperation])
	assert.NotContains(t, recs[0], FieldSizeBytes)
}

func TestLogUploadRejected_Operation(t *testing.T) {
	tests := []struct {
		errorType string
		want      string
	}{
		{ErrorTypeParse, OpParse},
		{ErrorTypeValidation, OpValidate},
		{ErrorTypeTooLarge, OpUpload},
	}
	for _, tt := range tests {
		t.Run(tt.errorType, func(t *testing.T) {
			var buf bytes.Buffer
			sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

			sl.LogUploadRejected(context.Background(), "sid", "", "", errors.New("boom"), tt.errorType)

			recs := decodeLines(t, &buf)
			require.Len(t, recs, 1)
			assert.Equal(t, tt.want, recs[0][FieldOperation])
		})
	}
}

func TestLogUploadAccepted(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

	sl.LogUploadAccepted(context.Background(), "sid", "funnel.xls", "application/vnd.ms-excel", "Sheet1", 2048, 12)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "Sheet1", recs[0][FieldSheet])
	assert.EqualValues(t, 12, recs[0][FieldRows])
	assert.EqualValues(t, 2048, recs[0][FieldSizeBytes])
	assert.Equal(t, ComponentIngest, recs[0][FieldComponent])
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

	fields := NewFields().WithErrorType(ErrorTypeInternal)
	fields[FieldTemplate] = "dashboard"
	sl.LogError(context.Background(), "Template execution failed", errors.New("bad"), ComponentTemplate, OpRender, fields)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "ERROR", recs[0]["level"])
	assert.Equal(t, "dashboard", recs[0][FieldTemplate])
	assert.Equal(t, OpRender, recs[0][FieldOperation])
	assert.Equal(t, ComponentTemplate, recs[0][FieldComponent])
}

func TestFromContext(t *testing.T) {
	l := New(DefaultConfig()).WithComponent(ComponentSession)

	assert.Same(t, l, FromContext(WithLogger(context.Background(), l)))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestLogFieldsToSliceIsSorted(t *testing.T) {
	got := NewFields().WithFilter("Asha", "").WithSession("s1").WithComponent(ComponentHTTP).ToSlice()
	assert.Equal(t, []any{FieldPOC, "Asha", FieldSessionID, "s1"}, got)
}
