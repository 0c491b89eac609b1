package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldAttempt     = "attempt"
	FieldDuration    = "duration_ms"
	FieldPeriod      = "period"
	FieldWindowStart = "window_start"
	FieldWindowEnd   = "window_end"
	FieldKWhPerMonth = "kwh_per_month"
	FieldAmountCents = "amount_cents"
	FieldReason      = "reason"
	FieldCategoryID  = "category_id"
	FieldESIID       = "esiid"
	FieldBackend     = "backend"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentMeter   = "meter"
	ComponentBudget  = "budget"
	ComponentEngine  = "engine"
	ComponentWorker  = "worker"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentNotify  = "notify"
	ComponentBackend = "backend"
)

// Operations defines standard operation names.
const (
	OpFetch    = "fetch"
	OpCompute  = "compute"
	OpRead     = "read"
	OpWrite    = "write"
	OpPublish  = "publish"
	OpRecord   = "record"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
