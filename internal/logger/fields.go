package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldSessionToken is the Web Connector session ticket
	FieldSessionToken = "session_token"

	// FieldCall is the protocol call name (sendRequestXML, ...)
	FieldCall = "call"

	// FieldMigration is the export migration ID (customer, order, ...)
	FieldMigration = "migration"

	// FieldSourceKey is the source record key of the row in flight
	FieldSourceKey = "source_key"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldUserID is the authenticated user ID
	FieldUserID = "user_id"
)

// Standard metric fields, used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldSize is the data size in bytes
	FieldSize = "size"
)
