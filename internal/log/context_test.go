package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{name: "nil context", ctx: nil, requestID: "test-id-123", want: "test-id-123"},
		{name: "background context", ctx: context.Background(), requestID: "req-456", want: "req-456"},
		{name: "empty request ID", ctx: context.Background(), requestID: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			got := RequestIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextWithTaskID(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		taskID string
		want   string
	}{
		{name: "nil context", ctx: nil, taskID: "task-123", want: "task-123"},
		{name: "background context", ctx: context.Background(), taskID: "task-456", want: "task-456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithTaskID(tt.ctx, tt.taskID)
			got := TaskIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("TaskIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextWithDocumentID(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		documentID string
		want       string
	}{
		{name: "nil context", ctx: nil, documentID: "doc-123", want: "doc-123"},
		{name: "background context", ctx: context.Background(), documentID: "doc-456", want: "doc-456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithDocumentID(tt.ctx, tt.documentID)
			got := DocumentIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("DocumentIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestIDFromContextEmpty(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "nil context", ctx: nil, want: ""},
		{name: "context without request ID", ctx: context.Background(), want: ""},
		{name: "context with wrong type", ctx: context.WithValue(context.Background(), requestIDKey, 123), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequestIDFromContext(tt.ctx)
			if got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	baseLogger := WithComponent("test")

	ctx1 := ContextWithRequestID(context.Background(), "req-123")
	logger1 := WithContext(ctx1, baseLogger)
	if logger1.GetLevel() != baseLogger.GetLevel() {
		t.Error("logger level should be preserved")
	}

	ctx2 := ContextWithTaskID(ctx1, "task-456")
	logger2 := WithContext(ctx2, baseLogger)
	if logger2.GetLevel() != baseLogger.GetLevel() {
		t.Error("logger level should be preserved")
	}

	ctx3 := ContextWithDocumentID(ctx2, "doc-789")
	logger3 := WithContext(ctx3, baseLogger)
	if logger3.GetLevel() != baseLogger.GetLevel() {
		t.Error("logger level should be preserved")
	}

	logger4 := WithContext(context.Background(), baseLogger)
	if logger4.GetLevel() != baseLogger.GetLevel() {
		t.Error("logger level should be preserved")
	}
}

func TestWithComponentFromContext(t *testing.T) {
	logger := WithComponentFromContext(context.Background(), "test-component")
	if logger.GetLevel() > zerolog.PanicLevel {
		t.Error("expected valid logger from WithComponentFromContext")
	}
}

func TestBase(t *testing.T) {
	baseLogger := Base()
	if baseLogger.GetLevel() > zerolog.PanicLevel {
		t.Error("expected valid base logger with reasonable log level")
	}
}

func TestAuditInfoWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})

	AuditInfo(context.Background(), "task.created", "task created", map[string]any{"kind": "single-insert"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse audit log output: %v", err)
	}
	if entry["event"] != "task.created" {
		t.Errorf("expected event task.created, got %v", entry["event"])
	}
	if entry["component"] != "audit" {
		t.Errorf("expected component audit, got %v", entry["component"])
	}

	Configure(Config{})
}
