package contexts

import (
	"context"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// WithExecutionID stores the execution id in the context.
func WithExecutionID(ctx context.Context, executionID string) context.Context {
	container := getContainer(ctx)

	container.mu.Lock()
	container.ExecutionID = &executionID
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetExecutionID retrieves the execution id from the context.
func GetExecutionID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)

	container.mu.RLock()
	defer container.mu.RUnlock()

	if container.ExecutionID != nil {
		return *container.ExecutionID, true
	}

	return "", false
}

// NewExecution returns a child of ctx with a fresh container, detached from any
// container attached to ctx. Use it when handing ctx to a new goroutine that must
// not observe or change the suppression state of its parent.
func NewExecution(ctx context.Context, executionID string) context.Context {
	container := &contextContainer{ExecutionID: &executionID}
	return context.WithValue(ctx, containerContextKey, container)
}
