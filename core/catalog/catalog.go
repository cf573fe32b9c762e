// Package catalog maps type names to constructors so that components can be
// built from configuration maps.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ErrUnknownType is returned by Create for unregistered type names.
var ErrUnknownType = errors.New("unknown type")

// Constructor builds a T from a raw configuration map.
type Constructor[T any] func(conf map[string]any) (T, error)

// Registry stores constructors keyed by type name.
type Registry[T any] struct {
	mu    sync.RWMutex
	ctors map[string]Constructor[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{ctors: make(map[string]Constructor[T])}
}

// Register adds a constructor for the given type name.
func (r *Registry[T]) Register(typ string, c Constructor[T]) error {
	if c == nil {
		return fmt.Errorf("constructor nil for %s", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[typ]; ok {
		return fmt.Errorf("constructor already registered for %s", typ)
	}
	r.ctors[typ] = c
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func (r *Registry[T]) MustRegister(typ string, c Constructor[T]) {
	if err := r.Register(typ, c); err != nil {
		panic(err)
	}
}

// Create instantiates typ with conf.
func (r *Registry[T]) Create(typ string, conf map[string]any) (T, error) {
	r.mu.RLock()
	c, ok := r.ctors[typ]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w %s", ErrUnknownType, typ)
	}
	return c(conf)
}

// Types lists registered type names in sorted order.
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctors))
	for t := range r.ctors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Decode fills out the provided struct using json tags. Numeric strings and
// floats are converted to the target field types.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
