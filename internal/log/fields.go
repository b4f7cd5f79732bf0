package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldUserID     = "user_id"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldFrom       = "from_station"
	FieldTo         = "to_station"
	FieldFare       = "calculated_fare"
	FieldCount      = "count"
	FieldBackend    = "backend"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentExpense = "expense"
	ComponentPass    = "commuter_pass"
	ComponentFare    = "fare"
	ComponentAuth    = "auth"
	ComponentStorage = "storage"
)

// Operation names.
const (
	OpCreate     = "create"
	OpCreateBulk = "create_bulk"
	OpList       = "list"
	OpUpdate     = "update"
	OpImport     = "import"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
