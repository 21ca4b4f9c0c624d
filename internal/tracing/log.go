package tracing

import (
	"context"

	"github.com/looplj/ai-gateway-agent/internal/log"
)

// SetupLogger wires CorrelationFieldsHook into logger so every log line
// written with a context carrying a correlation id or operation name gets
// those fields automatically.
func SetupLogger(logger *log.Logger) {
	logger.AddHook(log.HookFunc(CorrelationFieldsHook))
}

// CorrelationFieldsHook adds correlation id and operation name to log
// entries when present in ctx.
func CorrelationFieldsHook(ctx context.Context, _ string, fields ...log.Field) []log.Field {
	if ctx == nil {
		return fields
	}

	if id, ok := CorrelationID(ctx); ok {
		fields = append(fields, log.String("correlation_id", id))
	}

	if name, ok := OperationName(ctx); ok {
		fields = append(fields, log.String("operation_name", name))
	}

	return fields
}
