package flux

import (
	"fmt"
	"sort"
)

// DefaultNamespace is used for action descriptors that declare no name.
const DefaultNamespace = "global"

// ActionFunc turns the arguments of an action call into the dispatched payload.
type ActionFunc func(args ...any) (any, error)

// ActionDescriptor describes the actions an ActionSet exposes.
type ActionDescriptor struct {
	// Name is the namespace prefixed to action ids. Optional.
	Name string
	// Actions maps action names to payload builders. A nil builder passes
	// its arguments through: none gives nil, one gives the argument itself
	// and several give a []any.
	Actions map[string]ActionFunc
}

// Actions is the surface shared by every action set, real or proxied.
type Actions interface {
	Names() []string
	Lookup(name string) (*Action, bool)
}

// Action is a named trigger bound to the runtime that created it.
type Action struct {
	id   string
	name string
	fn   ActionFunc
	rt   *Runtime
}

// ID returns the runtime-unique identifier, "namespace.name".
func (a *Action) ID() string { return a.id }

// Name returns the name declared in the descriptor.
func (a *Action) Name() string { return a.name }

// Runtime returns the runtime the action dispatches into.
func (a *Action) Runtime() *Runtime { return a.rt }

// Invoke builds the payload from args and dispatches it. Errors from the
// payload builder and from store handlers are returned to the caller.
func (a *Action) Invoke(args ...any) error {
	payload, err := a.payload(args)
	if err != nil {
		return fmt.Errorf("action %s: %w", a.id, err)
	}
	return a.rt.dispatch(a, payload)
}

func (a *Action) payload(args []any) (any, error) {
	if a.fn != nil {
		return a.fn(args...)
	}
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return args[0], nil
	default:
		return append([]any(nil), args...), nil
	}
}

// ActionSet is the collection of actions synthesized from one descriptor.
type ActionSet struct {
	rt        *Runtime
	namespace string
	actions   map[string]*Action
	names     []string
}

// Namespace returns the unique namespace assigned by the runtime.
func (s *ActionSet) Namespace() string { return s.namespace }

// Runtime returns the owning runtime.
func (s *ActionSet) Runtime() *Runtime { return s.rt }

// Names lists action names in sorted order. A nil set has no names.
func (s *ActionSet) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Lookup returns the named action. A nil set finds nothing.
func (s *ActionSet) Lookup(name string) (*Action, bool) {
	if s == nil {
		return nil, false
	}
	a, ok := s.actions[name]
	return a, ok
}

// Call invokes the named action.
func (s *ActionSet) Call(name string, args ...any) error {
	a, ok := s.Lookup(name)
	if !ok {
		ns := ""
		if s != nil {
			ns = s.namespace
		}
		return fmt.Errorf("%s.%s: %w", ns, name, ErrUnknownAction)
	}
	return a.Invoke(args...)
}

func newActionSet(rt *Runtime, namespace string, desc ActionDescriptor) *ActionSet {
	set := &ActionSet{
		rt:        rt,
		namespace: namespace,
		actions:   make(map[string]*Action, len(desc.Actions)),
		names:     make([]string, 0, len(desc.Actions)),
	}
	for name, fn := range desc.Actions {
		set.actions[name] = &Action{id: namespace + "." + name, name: name, fn: fn, rt: rt}
		set.names = append(set.names, name)
	}
	sort.Strings(set.names)
	return set
}
