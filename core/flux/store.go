package flux

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kilianp07/altproxy/internal/eventbus"
)

// StoreDescriptor defines a store's logic. DisplayName is used to derive the
// registration name; Setup declares initial state and action handlers.
type StoreDescriptor interface {
	DisplayName() string
	Setup(b *Binder) error
}

// StoreSpec is a StoreDescriptor built from plain values.
type StoreSpec struct {
	Name string
	Init func(b *Binder) error
}

func (s StoreSpec) DisplayName() string { return s.Name }

func (s StoreSpec) Setup(b *Binder) error {
	if s.Init == nil {
		return nil
	}
	return s.Init(b)
}

// Handler reacts to a dispatched payload.
type Handler func(s *Store, p Payload) error

// Change is published on a store's change stream after each state update.
type Change struct {
	Store string
	State any
}

// Store holds state updated by handlers in response to dispatched actions.
type Store struct {
	name     string
	rt       *Runtime
	proxy    *ActionSet
	real     Actions
	token    string
	handlers map[string]Handler
	fallback Handler
	initial  func() any
	changes  *eventbus.Bus[Change]

	mu    sync.RWMutex
	state any
}

// Name returns the registration name.
func (s *Store) Name() string { return s.name }

// Token returns the dispatcher token the store is subscribed under.
func (s *Store) Token() string { return s.token }

// Runtime returns the owning runtime.
func (s *Store) Runtime() *Runtime { return s.rt }

// ProxyActions returns the action set the store is subscribed to.
func (s *Store) ProxyActions() *ActionSet { return s.proxy }

// RealActions returns the action set the store may read from or delegate to.
func (s *Store) RealActions() Actions { return s.real }

// State returns the current state.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState replaces the state and notifies listeners.
func (s *Store) SetState(v any) {
	s.mu.Lock()
	s.state = v
	s.mu.Unlock()
	s.changes.Publish(Change{Store: s.name, State: v})
}

// Recycle resets the store to a fresh initial state.
func (s *Store) Recycle() {
	var v any
	if s.initial != nil {
		v = s.initial()
	}
	s.SetState(v)
}

// Changes subscribes to state changes.
func (s *Store) Changes() <-chan Change { return s.changes.Subscribe() }

// Unlisten drops a subscription returned by Changes.
func (s *Store) Unlisten(ch <-chan Change) { s.changes.Unsubscribe(ch) }

// WaitFor makes the given stores handle the current payload first.
// It may only be called from a handler.
func (s *Store) WaitFor(stores ...*Store) error {
	toks := make([]string, 0, len(stores))
	for _, o := range stores {
		if o == nil {
			continue
		}
		if o.rt != s.rt {
			return fmt.Errorf("wait for %s: %w", o.name, ErrForeignActions)
		}
		toks = append(toks, o.token)
	}
	return s.rt.disp.waitFor(toks...)
}

func (s *Store) handle(p Payload) error {
	h, ok := s.handlers[p.Action.id]
	if !ok {
		h = s.fallback
	}
	if h == nil {
		return nil
	}
	if err := h(s, p); err != nil {
		return fmt.Errorf("store %s handling %s: %w", s.name, p.Action.id, err)
	}
	return nil
}

// StateAs returns the store state asserted to S.
func StateAs[S any](s *Store) (S, bool) {
	v, ok := s.State().(S)
	return v, ok
}

// Binder is handed to StoreDescriptor.Setup to declare state and handlers.
type Binder struct {
	store *Store
	errs  []error
}

// StoreName returns the name the store is being registered under.
func (b *Binder) StoreName() string { return b.store.name }

// ProxyActions returns the action set the store subscribes to.
func (b *Binder) ProxyActions() *ActionSet { return b.store.proxy }

// RealActions returns the host action set passed through to the store.
func (b *Binder) RealActions() Actions { return b.store.real }

// InitialState sets the constructor used for the initial state and for Recycle.
func (b *Binder) InitialState(fn func() any) { b.store.initial = fn }

// Bind attaches h to an action. The action must belong to the store's runtime.
func (b *Binder) Bind(a *Action, h Handler) error {
	if a == nil || h == nil {
		return b.fail(errors.New("bind requires an action and a handler"))
	}
	if a.rt != b.store.rt {
		return b.fail(fmt.Errorf("bind %s: %w", a.id, ErrForeignActions))
	}
	b.store.handlers[a.id] = h
	return nil
}

// BindName attaches h to the named action of the proxy action set.
func (b *Binder) BindName(name string, h Handler) error {
	a, ok := b.store.proxy.Lookup(name)
	if !ok {
		return b.fail(fmt.Errorf("bind %s: %w", name, ErrUnknownAction))
	}
	return b.Bind(a, h)
}

// BindAll attaches h to every action without a dedicated handler.
func (b *Binder) BindAll(h Handler) { b.store.fallback = h }

func (b *Binder) fail(err error) error {
	b.errs = append(b.errs, err)
	return err
}
