package oppressor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/looplj/oppressor/internal/contexts"
	"github.com/looplj/oppressor/internal/metrics"
	"github.com/looplj/oppressor/internal/tracing"
)

// newNotification returns a class exposing only to_s, like the Notification model.
func newNotification(opts ...ClassOption) *Class {
	return NewClass("Notification", opts...).Define("to_s", echo("notification"))
}

func TestOppress_SuppressesChosenMethod(t *testing.T) {
	notification := newNotification()

	err := notification.Oppress(context.Background(), func(ctx context.Context) error {
		got, err := notification.New(nil).Call(ctx, "to_s")
		require.NoError(t, err)
		assert.Equal(t, Suppressed, got)

		method, ok := IsSuppressed(ctx, notification)
		assert.True(t, ok)
		assert.Equal(t, "to_s", method)

		return nil
	})
	require.NoError(t, err)
}

func TestOppress_NestedKeepsOuterSuppression(t *testing.T) {
	notification := newNotification()

	err := notification.Oppress(context.Background(), func(ctx context.Context) error {
		require.NoError(t, notification.Oppress(ctx, func(ctx context.Context) error { return nil }))

		got, err := notification.New(nil).Call(ctx, "to_s")
		require.NoError(t, err)
		assert.Equal(t, Suppressed, got)

		return nil
	})
	require.NoError(t, err)
}

func TestOppress_EmptyClass(t *testing.T) {
	ctx := contexts.WithRegistry(context.Background())
	ran := false

	err := NewClass("Empty").Oppress(ctx, func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.ErrorIs(t, err, ErrEmptyCandidateSet)
	assert.False(t, ran, "block must not run without a suppression target")

	_, ok := contexts.GetSuppression(ctx, "Empty")
	assert.False(t, ok)
}

var errCopyFailed = errors.New("copy failed")

func TestOppress_BlockErrorRestoresRegistry(t *testing.T) {
	notification := newNotification()
	ctx := contexts.WithRegistry(context.Background())

	err := notification.Oppress(ctx, func(ctx context.Context) error {
		return errCopyFailed
	})

	assert.Same(t, errCopyFailed, err, "block errors are returned as is")

	_, ok := contexts.GetSuppression(ctx, notification.Name())
	assert.False(t, ok)

	got, err := notification.New(nil).Call(ctx, "to_s")
	require.NoError(t, err)
	assert.Equal(t, "notification", got, "override is inert once the scope is left")
	assert.True(t, notification.Overridden("to_s"), "override stays installed")
}

func TestOppress_PanicRestoresRegistry(t *testing.T) {
	notification := newNotification()
	ctx := contexts.WithSuppression(context.Background(), notification.Name(), "previous")

	assert.PanicsWithValue(t, "boom", func() {
		_ = notification.Oppress(ctx, func(ctx context.Context) error {
			panic("boom")
		})
	})

	method, ok := contexts.GetSuppression(ctx, notification.Name())
	require.True(t, ok)
	assert.Equal(t, "previous", method)
}

func TestOppress_RestoresAtEveryDepth(t *testing.T) {
	for _, depth := range []int{1, 2, 5} {
		for _, fail := range []bool{false, true} {
			t.Run(fmt.Sprintf("depth=%d fail=%v", depth, fail), func(t *testing.T) {
				class := NewClass("Comment").
					Define("save", echo(nil)).
					Define("to_s", echo("comment")).
					Define("destroy", echo(nil))

				ctx := contexts.WithRegistry(context.Background())
				before := contexts.SnapshotSuppression(ctx, class.Name())

				var nest func(ctx context.Context, level int) error

				nest = func(ctx context.Context, level int) error {
					return class.Oppress(ctx, func(ctx context.Context) error {
						outer, ok := IsSuppressed(ctx, class)
						require.True(t, ok)

						if level < depth {
							if err := nest(ctx, level+1); err != nil {
								return err
							}
						} else if fail {
							return errCopyFailed
						}

						after, ok := IsSuppressed(ctx, class)
						require.True(t, ok)
						assert.Equal(t, outer, after, "inner scopes restore the outer marker")

						return nil
					})
				}

				err := nest(ctx, 1)
				if fail {
					require.ErrorIs(t, err, errCopyFailed)
				} else {
					require.NoError(t, err)
				}

				assert.Equal(t, before, contexts.SnapshotSuppression(ctx, class.Name()))
			})
		}
	}
}

func TestOppress_SingleCandidateIsAlwaysChosen(t *testing.T) {
	notification := newNotification()

	for range 20 {
		err := notification.Oppress(context.Background(), func(ctx context.Context) error {
			method, _ := IsSuppressed(ctx, notification)
			assert.Equal(t, "to_s", method)

			return nil
		})
		require.NoError(t, err)
	}
}

func TestOppress_UsesInjectedRandomness(t *testing.T) {
	picks := []int{2, 0, 1}
	calls := 0

	suppressor := NewSuppressor(WithIntn(func(n int) int {
		assert.Equal(t, 3, n)

		pick := picks[calls%len(picks)]
		calls++

		return pick
	}))

	class := NewClass("Comment", WithSuppressor(suppressor)).
		Define("destroy", echo("destroyed")).
		Define("save", echo("saved")).
		Define("to_s", echo("comment"))

	var chosen []string

	for range picks {
		err := class.Oppress(context.Background(), func(ctx context.Context) error {
			method, _ := IsSuppressed(ctx, class)
			chosen = append(chosen, method)

			for _, name := range class.Methods() {
				got, err := class.New(nil).Call(ctx, name)
				require.NoError(t, err)

				if name == method {
					assert.Equal(t, Suppressed, got)
				} else {
					assert.NotEqual(t, Suppressed, got)
				}
			}

			return nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"to_s", "destroy", "save"}, chosen)

	for _, name := range chosen {
		assert.True(t, class.Overridden(name))
	}
}

func TestOppress_SeededSelectionIsReproducible(t *testing.T) {
	pick := func() []string {
		class := NewClass("Comment", WithSuppressor(NewSuppressor(WithSeed(42)))).
			Define("destroy", echo(nil)).
			Define("save", echo(nil)).
			Define("to_s", echo(nil)).
			Define("update", echo(nil))

		var chosen []string

		for range 10 {
			_ = class.Oppress(context.Background(), func(ctx context.Context) error {
				method, _ := IsSuppressed(ctx, class)
				chosen = append(chosen, method)

				return nil
			})
		}

		return chosen
	}

	assert.Equal(t, pick(), pick())
}

func TestOppress_ExecutionsAreIsolated(t *testing.T) {
	notification := newNotification()
	started := make(chan struct{})
	release := make(chan struct{})

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return notification.Oppress(tracing.StartExecution(ctx), func(ctx context.Context) error {
			close(started)
			<-release

			return nil
		})
	})

	g.Go(func() error {
		<-started
		defer close(release)

		execCtx := tracing.StartExecution(ctx)
		if _, ok := IsSuppressed(execCtx, notification); ok {
			return errors.New("suppression leaked into another execution")
		}

		got, err := notification.New(nil).Call(execCtx, "to_s")
		if err != nil {
			return err
		}

		if got != "notification" {
			return fmt.Errorf("expected notification, got %v", got)
		}

		return nil
	})

	require.NoError(t, g.Wait())
}

func TestOppress_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	notification := newNotification(WithSuppressor(NewSuppressorFromConfig(Config{Seed: 7}, m)))

	require.NoError(t, notification.Oppress(context.Background(), func(ctx context.Context) error {
		_, err := notification.New(nil).Call(ctx, "to_s")
		return err
	}))
	require.ErrorIs(t, notification.Oppress(context.Background(), func(ctx context.Context) error {
		return errCopyFailed
	}), errCopyFailed)

	assert.InDelta(t, 2, testutil.ToFloat64(m.OppressTotal.WithLabelValues("Notification")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OppressFailuresTotal.WithLabelValues("Notification")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SuppressedCallsTotal.WithLabelValues("Notification", "to_s")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ActiveSuppressions), 0)
}

func TestOppress_PanicCountsAsFailure(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	notification := newNotification(WithSuppressor(NewSuppressor(WithMetrics(m))))

	assert.PanicsWithValue(t, "boom", func() {
		_ = notification.Oppress(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.OppressTotal.WithLabelValues("Notification")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OppressFailuresTotal.WithLabelValues("Notification")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ActiveSuppressions), 0)
}

func TestOppress_SuppressedCallsCountForScopeOwner(t *testing.T) {
	notification := newNotification()
	first := metrics.New(prometheus.NewRegistry())
	second := metrics.New(prometheus.NewRegistry())

	for _, m := range []*metrics.Metrics{first, second} {
		s := NewSuppressor(WithMetrics(m))

		require.NoError(t, s.Oppress(context.Background(), notification, func(ctx context.Context) error {
			got, err := notification.New(nil).Call(ctx, "to_s")
			require.NoError(t, err)
			assert.Equal(t, Suppressed, got)

			return nil
		}))
	}

	assert.InDelta(t, 1, testutil.ToFloat64(first.SuppressedCallsTotal.WithLabelValues("Notification", "to_s")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(second.SuppressedCallsTotal.WithLabelValues("Notification", "to_s")), 0)
}
