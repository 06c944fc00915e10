package oppressor

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Method is one entry of a class dispatch table.
type Method func(ctx context.Context, recv *Instance, args ...any) (any, error)

// Suppressible is a class whose methods can be intercepted by a Suppressor.
type Suppressible interface {
	// Name identifies the class in the suppression registry.
	Name() string
	// Methods lists the names currently defined on the class.
	Methods() []string
	// Override replaces the named method with wrap(current definition).
	// Overriding an already overridden name again is a no-op.
	Override(name string, wrap func(super Method) Method) error
}

// Class is a model class backed by an explicit dispatch table.
type Class struct {
	name       string
	suppressor *Suppressor

	mu         sync.RWMutex
	methods    map[string]Method
	overridden map[string]bool
}

type ClassOption func(*Class)

// WithSuppressor sets the suppressor used by Class.Oppress.
func WithSuppressor(s *Suppressor) ClassOption {
	return func(c *Class) {
		c.suppressor = s
	}
}

func NewClass(name string, opts ...ClassOption) *Class {
	c := &Class{
		name:       name,
		methods:    map[string]Method{},
		overridden: map[string]bool{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.suppressor == nil {
		c.suppressor = NewSuppressor()
	}

	return c
}

func (c *Class) Name() string {
	return c.name
}

// Define installs fn under name, replacing any previous definition including a suppression override.
func (c *Class) Define(name string, fn Method) *Class {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.methods[name] = fn
	delete(c.overridden, name)

	return c
}

func (c *Class) Methods() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := lo.Keys(c.methods)
	slices.Sort(names)

	return names
}

func (c *Class) Lookup(name string) (Method, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fn, ok := c.methods[name]

	return fn, ok
}

// Overridden reports whether a suppression override is installed for name.
func (c *Class) Overridden(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.overridden[name]
}

func (c *Class) Override(name string, wrap func(super Method) Method) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	super, ok := c.methods[name]
	if !ok {
		return fmt.Errorf("override %s#%s: %w", c.name, name, ErrMethodNotFound)
	}

	if c.overridden[name] {
		return nil
	}

	c.methods[name] = wrap(super)
	c.overridden[name] = true

	return nil
}

func (c *Class) Call(ctx context.Context, name string, recv *Instance, args ...any) (any, error) {
	fn, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("call %s#%s: %w", c.name, name, ErrMethodNotFound)
	}

	return fn(ctx, recv, args...)
}

// New builds an instance of the class holding the given attributes.
func (c *Class) New(attrs map[string]any) *Instance {
	if attrs == nil {
		attrs = map[string]any{}
	}

	return &Instance{class: c, attrs: attrs}
}

// Oppress runs block with one randomly chosen method of the class suppressed.
func (c *Class) Oppress(ctx context.Context, block func(ctx context.Context) error) error {
	return c.suppressor.Oppress(ctx, c, block)
}

type Instance struct {
	class *Class
	attrs map[string]any
}

func (i *Instance) Class() *Class {
	return i.class
}

func (i *Instance) Get(key string) (any, bool) {
	v, ok := i.attrs[key]
	return v, ok
}

func (i *Instance) Attributes() map[string]any {
	return maps.Clone(i.attrs)
}

func (i *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	return i.class.Call(ctx, name, i, args...)
}
