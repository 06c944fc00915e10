package contexts

import (
	"context"
	"maps"
)

// Marker is the suppression state of one class: the method whose override
// short-circuits, or no suppression at all when Present is false.
type Marker struct {
	Method  string
	Present bool
}

// WithRegistry makes sure a suppression registry is attached to the context.
// The registry is created lazily and lives as long as the container does.
func WithRegistry(ctx context.Context) context.Context {
	container := getContainer(ctx)

	container.mu.Lock()
	if container.Suppressions == nil {
		container.Suppressions = map[string]string{}
	}
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// WithSuppression marks the class as suppressed through the given method.
func WithSuppression(ctx context.Context, classID, method string) context.Context {
	ctx = WithRegistry(ctx)
	container := getContainer(ctx)

	container.mu.Lock()
	container.Suppressions[classID] = method
	container.mu.Unlock()

	return ctx
}

// WithoutSuppression clears the suppression marker of the class.
func WithoutSuppression(ctx context.Context, classID string) context.Context {
	container := getContainer(ctx)

	container.mu.Lock()
	delete(container.Suppressions, classID)
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetSuppression returns the method through which the class is suppressed.
func GetSuppression(ctx context.Context, classID string) (string, bool) {
	container := getContainer(ctx)

	container.mu.RLock()
	defer container.mu.RUnlock()

	method, ok := container.Suppressions[classID]

	return method, ok
}

// SnapshotSuppression captures the current marker of the class so it can be restored later.
func SnapshotSuppression(ctx context.Context, classID string) Marker {
	method, ok := GetSuppression(ctx, classID)
	return Marker{Method: method, Present: ok}
}

// RestoreSuppression puts the class marker back to a previously captured snapshot.
func RestoreSuppression(ctx context.Context, classID string, marker Marker) context.Context {
	if marker.Present {
		return WithSuppression(ctx, classID, marker.Method)
	}

	return WithoutSuppression(ctx, classID)
}

// Suppressions returns a copy of all suppression markers in the context.
func Suppressions(ctx context.Context) map[string]string {
	container := getContainer(ctx)

	container.mu.RLock()
	defer container.mu.RUnlock()

	return maps.Clone(container.Suppressions)
}
