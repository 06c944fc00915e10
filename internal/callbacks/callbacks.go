// Package callbacks dispatches ent mutation lifecycle callbacks through an oppressor class,
// so oppressing the class keeps its side-effecting callbacks from firing.
package callbacks

import (
	"context"
	"errors"
	"fmt"

	"entgo.io/ent"

	"github.com/looplj/oppressor/internal/log"
	"github.com/looplj/oppressor/internal/oppressor"
)

// Func is a plain mutation callback.
type Func func(ctx context.Context, m ent.Mutation) error

// Callback adapts fn to a class method. The method expects the mutation as its first argument.
func Callback(fn Func) oppressor.Method {
	return func(ctx context.Context, recv *oppressor.Instance, args ...any) (any, error) {
		if len(args) == 0 {
			return nil, errors.New("callback: missing mutation argument")
		}

		m, ok := args[0].(ent.Mutation)
		if !ok {
			return nil, fmt.Errorf("callback: expected ent.Mutation, got %T", args[0])
		}

		return nil, fn(ctx, m)
	}
}

// After returns an ent hook that dispatches method on class once a mutation matching op has succeeded.
// The receiver is an instance of class built from the mutation fields.
func After(class *oppressor.Class, method string, op ent.Op) ent.Hook {
	return func(next ent.Mutator) ent.Mutator {
		return ent.MutateFunc(func(ctx context.Context, m ent.Mutation) (ent.Value, error) {
			v, err := next.Mutate(ctx, m)
			if err != nil || !m.Op().Is(op) {
				return v, err
			}

			if err := dispatch(ctx, class, method, m); err != nil {
				return nil, err
			}

			return v, nil
		})
	}
}

// Before returns an ent hook that dispatches method on class before a mutation matching op runs.
// An error from the callback aborts the mutation.
func Before(class *oppressor.Class, method string, op ent.Op) ent.Hook {
	return func(next ent.Mutator) ent.Mutator {
		return ent.MutateFunc(func(ctx context.Context, m ent.Mutation) (ent.Value, error) {
			if m.Op().Is(op) {
				if err := dispatch(ctx, class, method, m); err != nil {
					return nil, err
				}
			}

			return next.Mutate(ctx, m)
		})
	}
}

func dispatch(ctx context.Context, class *oppressor.Class, method string, m ent.Mutation) error {
	result, err := class.New(fields(m)).Call(ctx, method, m)
	if err != nil {
		return fmt.Errorf("%s callback %s: %w", m.Type(), method, err)
	}

	if result == oppressor.Suppressed {
		log.Debug(ctx, "callback suppressed",
			log.String("class", class.Name()),
			log.String("method", method),
			log.String("mutation", m.Type()),
			log.String("op", m.Op().String()),
		)
	}

	return nil
}

func fields(m ent.Mutation) map[string]any {
	attrs := make(map[string]any, len(m.Fields()))

	for _, name := range m.Fields() {
		if v, ok := m.Field(name); ok {
			attrs[name] = v
		}
	}

	return attrs
}
