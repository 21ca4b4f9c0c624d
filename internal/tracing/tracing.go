// Package tracing carries a correlation id and an operation name through a
// context.Context. This agent persists no request state, so only the
// correlation id and operation name travel; there is no database-backed
// request context to thread through handlers.
package tracing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type contextKey int

const (
	correlationIDKey contextKey = iota
	operationNameKey
)

// GenerateCorrelationID synthesizes a correlation id for transports that
// omit one on the headers event, format "aig-{uuid}".
func GenerateCorrelationID() string {
	return fmt.Sprintf("aig-%s", uuid.New().String())
}

// WithCorrelationID stores the correlation id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID reads the correlation id from ctx.
func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	id, ok := ctx.Value(correlationIDKey).(string)

	return id, ok
}

// WithOperationName stores the operation name ("configure", "headers",
// "body_chunk") in ctx.
func WithOperationName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationNameKey, name)
}

// OperationName reads the operation name from ctx.
func OperationName(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	name, ok := ctx.Value(operationNameKey).(string)

	return name, ok
}
