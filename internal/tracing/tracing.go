package tracing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/looplj/oppressor/internal/contexts"
)

// GenerateExecutionID generate execution id, format as ox-{{uuid}}.
func GenerateExecutionID() string {
	id := uuid.New()
	return fmt.Sprintf("ox-%s", id.String())
}

// StartExecution returns a context bound to a fresh execution, with its own suppression registry.
func StartExecution(ctx context.Context) context.Context {
	return contexts.NewExecution(ctx, GenerateExecutionID())
}

// WithExecutionID store execution id to context.
func WithExecutionID(ctx context.Context, executionID string) context.Context {
	return contexts.WithExecutionID(ctx, executionID)
}

// GetExecutionID get execution id from context.
func GetExecutionID(ctx context.Context) (string, bool) {
	return contexts.GetExecutionID(ctx)
}
