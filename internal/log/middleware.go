package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLogger stores logger in ctx
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides domain logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request at a level derived from
// the status code
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, duration.Milliseconds(), statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogUploadAccepted logs a dataset stored for a session
func (sl *StructuredLogger) LogUploadAccepted(ctx context.Context, sessionID, fileName, contentType, sheet string, size int64, rows int) {
	fields := NewFields().
		WithSession(sessionID).
		WithUpload(fileName, contentType, size).
		WithOperation(OpUpload)
	fields[FieldSheet] = sheet
	fields[FieldRows] = rows

	sl.logger.WithComponent(ComponentIngest).InfoContext(ctx, "Dataset uploaded", fields.ToSlice()...)
}

// LogUploadRejected logs an upload that left the session untouched. The
// operation names the stage that refused it.
func (sl *StructuredLogger) LogUploadRejected(ctx context.Context, sessionID, fileName, contentType string, err error, errorType string) {
	op := OpUpload
	switch errorType {
	case ErrorTypeParse, ErrorTypeUnsupported:
		op = OpParse
	case ErrorTypeValidation:
		op = OpValidate
	}
	fields := NewFields().
		WithSession(sessionID).
		WithUpload(fileName, contentType, 0).
		WithOperation(op).
		WithError(err).
		WithErrorType(errorType)
	delete(fields, FieldSizeBytes)

	sl.logger.WithComponent(ComponentIngest).WarnContext(ctx, "Upload rejected", fields.ToSlice()...)
}

// LogDashboard logs one derivation
func (sl *StructuredLogger) LogDashboard(ctx context.Context, sessionID, poc, month, state string, matched int) {
	fields := NewFields().
		WithSession(sessionID).
		WithFilter(poc, month).
		WithOperation(OpDerive)
	fields[FieldState] = state
	fields[FieldMatched] = matched

	sl.logger.WithComponent(ComponentDashboard).DebugContext(ctx, "Dashboard derived", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
