package telemetry

import "go.opentelemetry.io/otel/attribute"

// Common attribute keys for consistent span/metric labeling across adapters,
// the enrichment pipeline, the index engine, and the worker loop.
const (
	AdapterNameKey = "adapter.name"
	AdapterKindKey = "adapter.kind"

	TaskIDKey     = "task.id"
	TaskKindKey   = "task.kind"
	TaskStatusKey = "task.status"

	IndexOpKey = "index.op"

	ErrorKey     = "error"
	ErrorKindKey = "error.kind"
)

// AdapterAttributes creates span attributes for a single adapter call.
func AdapterAttributes(name, kind string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AdapterNameKey, name),
		attribute.String(AdapterKindKey, kind),
	}
}

// TaskAttributes creates span attributes describing a task manager
// operation.
func TaskAttributes(id, kind, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(TaskIDKey, id),
		attribute.String(TaskKindKey, kind),
		attribute.String(TaskStatusKey, status),
	}
}

// ErrorAttributes creates span attributes recording an error's kind.
func ErrorAttributes(errorKind string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorKindKey, errorKind),
	}
}
