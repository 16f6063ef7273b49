package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "forecast-pipeline context key " + string(c)
}

// RunIDKey is the key for the batch run ID in context.Context
const RunIDKey = contextKey("runID")

// JobKindKey is the key for the job kind in context.Context
const JobKindKey = contextKey("jobKind")

// ComponentKey is the key for the component name in context.Context
const ComponentKey = contextKey("component")

// OperationKey is the key for the current operation in context.Context
const OperationKey = contextKey("operation")

// RequestIDKey is the key for the HTTP request ID in context.Context (web API only)
const RequestIDKey = contextKey("requestID")
