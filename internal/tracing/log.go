package tracing

import (
	"context"

	"github.com/looplj/oppressor/internal/contexts"
	"github.com/looplj/oppressor/internal/log"
)

func SetupLogger(logger *log.Logger) {
	logger.AddHook(log.HookFunc(ExecutionFieldsHooks))
}

// ExecutionFieldsHooks adds the execution id and active suppressions to log entries if they exist in the context.
func ExecutionFieldsHooks(ctx context.Context, msg string, fields ...log.Field) []log.Field {
	if ctx == nil {
		return fields
	}

	if executionID, ok := GetExecutionID(ctx); ok {
		fields = append(fields, log.String("execution_id", executionID))
	}

	if suppressions := contexts.Suppressions(ctx); len(suppressions) > 0 {
		fields = append(fields, log.Any("suppressions", suppressions))
	}

	return fields
}
