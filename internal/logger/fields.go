package logger

// Fields is a set of structured log fields.
type Fields map[string]interface{}

// Tracing fields, carried on the context through the call chain.
const (
	FieldRequestID = "request_id"
	FieldPostID    = "post_id"
	FieldTrigger   = "trigger" // auto, manual, backfill
	FieldComponent = "component"
	FieldProvider  = "provider" // remote LLM backend
	FieldUserID    = "user_id"
)

// Metric fields, attached per line through With.
const (
	FieldDurationMs       = "duration_ms"
	FieldCount            = "count"
	FieldSize             = "size"
	FieldStatus           = "status"
	FieldGenerationSource = "generation_source" // remote, local, fallback
)
