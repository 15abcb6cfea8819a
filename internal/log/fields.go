package log

// Canonical field name constants for structured logging, kept stable so
// dashboards and log queries can rely on them across packages.
const (
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldTaskID        = "task_id"
	FieldDocumentID    = "document_id"

	FieldEvent     = "event"
	FieldComponent = "component"

	FieldAdapter  = "adapter"
	FieldModality = "modality"
	FieldLabel    = "label"
	FieldKind     = "kind"

	FieldOldStatus = "old_status"
	FieldNewStatus = "new_status"
)
