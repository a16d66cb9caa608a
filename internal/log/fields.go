package log

import (
	"sort"
	"time"
)

// Field names shared by every binary
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldPeriodKind    = "period_kind"
	FieldPeriodStart   = "period_start"
	FieldPeriodEnd     = "period_end"
	FieldServicesCount = "services_count"
	FieldTotalRevenue  = "total_revenue"
	FieldRecipients    = "recipients"
	FieldChannel       = "channel"
	FieldMessageID     = "message_id"
	FieldDiagnostic    = "diagnostic"
	FieldTrigger       = "trigger"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentReport    = "report"
	ComponentAMQP      = "amqp"
	ComponentScheduler = "scheduler"
	ComponentDelivery  = "delivery"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Pipeline operations
const (
	OpAggregate = "aggregate"
	OpDispatch  = "dispatch"
)

// Error categories reported by the HTTP layer
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeInternal   = "internal_error"
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

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithPeriod adds report period fields
func (f LogFields) WithPeriod(kind string, start, end time.Time) LogFields {
	f[FieldPeriodKind] = kind
	f[FieldPeriodStart] = start.Format(time.RFC3339Nano)
	f[FieldPeriodEnd] = end.Format(time.RFC3339Nano)
	return f
}

// WithDelivery adds delivery channel fields
func (f LogFields) WithDelivery(channel string, recipients int, messageID string) LogFields {
	f[FieldChannel] = channel
	f[FieldRecipients] = recipients
	if messageID != "" {
		f[FieldMessageID] = messageID
	}
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog args, keys sorted.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}