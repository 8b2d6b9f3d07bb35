package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldSessionID   = "session_id"
	FieldFileName    = "file_name"
	FieldContentType = "content_type"
	FieldSizeBytes   = "size_bytes"
	FieldSheet       = "sheet"
	FieldTemplate    = "template"
	FieldRows        = "rows"
	FieldPOC         = "poc"
	FieldMonth       = "month"
	FieldState       = "state"
	FieldMatched     = "matched"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentIngest    = "ingest"
	ComponentDashboard = "dashboard"
	ComponentSession   = "session"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpUpload   = "upload"
	OpParse    = "parse"
	OpDerive   = "derive"
	OpRender   = "render"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeUnsupported = "unsupported_type_error"
	ErrorTypeParse       = "parse_error"
	ErrorTypeTooLarge    = "too_large_error"
	ErrorTypeInternal    = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSession adds the session id
func (f LogFields) WithSession(id string) LogFields {
	f[FieldSessionID] = id
	return f
}

// WithUpload adds uploaded file fields
func (f LogFields) WithUpload(fileName, contentType string, size int64) LogFields {
	f[FieldFileName] = fileName
	f[FieldContentType] = contentType
	f[FieldSizeBytes] = size
	return f
}

// WithFilter adds the POC and month selection, skipping empty values
func (f LogFields) WithFilter(poc, month string) LogFields {
	if poc != "" {
		f[FieldPOC] = poc
	}
	if month != "" {
		f[FieldMonth] = month
	}
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a key-sorted slice for slog
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		if k == FieldComponent {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
