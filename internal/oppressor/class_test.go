package oppressor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(value any) Method {
	return func(ctx context.Context, recv *Instance, args ...any) (any, error) {
		return value, nil
	}
}

func TestClass_Methods(t *testing.T) {
	class := NewClass("Notification").
		Define("to_s", echo("notification")).
		Define("save", echo(nil)).
		Define("inspect", echo("#<Notification>"))

	assert.Equal(t, "Notification", class.Name())
	assert.Equal(t, []string{"inspect", "save", "to_s"}, class.Methods())
	assert.Empty(t, NewClass("Empty").Methods())
}

func TestClass_Call(t *testing.T) {
	class := NewClass("Notification").
		Define("recipient", func(ctx context.Context, recv *Instance, args ...any) (any, error) {
			v, _ := recv.Get("recipient")
			return v, nil
		})

	instance := class.New(map[string]any{"recipient": "david"})
	assert.Same(t, class, instance.Class())

	got, err := instance.Call(context.Background(), "recipient")
	require.NoError(t, err)
	assert.Equal(t, "david", got)

	_, err = instance.Call(context.Background(), "missing")
	require.ErrorIs(t, err, ErrMethodNotFound)
}

func TestClass_Override(t *testing.T) {
	class := NewClass("Notification").Define("to_s", echo("notification"))

	wrapped := 0
	wrap := func(super Method) Method {
		wrapped++

		return func(ctx context.Context, recv *Instance, args ...any) (any, error) {
			v, err := super(ctx, recv, args...)
			return "wrapped " + v.(string), err
		}
	}

	require.NoError(t, class.Override("to_s", wrap))
	require.NoError(t, class.Override("to_s", wrap))
	assert.Equal(t, 1, wrapped, "a method is overridden at most once")
	assert.True(t, class.Overridden("to_s"))

	got, err := class.New(nil).Call(context.Background(), "to_s")
	require.NoError(t, err)
	assert.Equal(t, "wrapped notification", got)

	err = class.Override("missing", wrap)
	assert.True(t, errors.Is(err, ErrMethodNotFound))
}

func TestClass_DefineReplacesOverride(t *testing.T) {
	class := NewClass("Notification").Define("to_s", echo("notification"))
	require.NoError(t, class.Override("to_s", func(super Method) Method { return echo("override") }))

	class.Define("to_s", echo("redefined"))
	assert.False(t, class.Overridden("to_s"))

	got, err := class.New(nil).Call(context.Background(), "to_s")
	require.NoError(t, err)
	assert.Equal(t, "redefined", got)
}

func TestInstance_Attributes(t *testing.T) {
	instance := NewClass("Comment").New(map[string]any{"body": "hi"})

	attrs := instance.Attributes()
	attrs["body"] = "changed"

	v, ok := instance.Get("body")
	require.True(t, ok)
	assert.Equal(t, "hi", v)

	_, ok = instance.Get("missing")
	assert.False(t, ok)
}
