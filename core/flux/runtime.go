package flux

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/altproxy/infra/logger"
	"github.com/kilianp07/altproxy/internal/eventbus"
)

// DuplicatePolicy decides what CreateStore does with a name already in use.
type DuplicatePolicy int

const (
	// DuplicateReject fails the registration with ErrDuplicateStore.
	DuplicateReject DuplicatePolicy = iota
	// DuplicateReplace unregisters the previous store and registers the new one.
	DuplicateReplace
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateReject:
		return "reject"
	case DuplicateReplace:
		return "replace"
	default:
		return "DuplicatePolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseDuplicatePolicy maps "reject" or "replace" to a policy. Empty means reject.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return DuplicateReject, nil
	case "replace":
		return DuplicateReplace, nil
	default:
		return 0, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Option configures a Runtime.
type Option func(*Runtime) error

// WithDuplicatePolicy sets the store name collision policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(r *Runtime) error {
		if p != DuplicateReject && p != DuplicateReplace {
			return fmt.Errorf("invalid duplicate policy %d", int(p))
		}
		r.policy = p
		return nil
	}
}

// WithLogger sets the logger. Entries carry the runtime id.
func WithLogger(l logger.Logger) Option {
	return func(r *Runtime) error {
		if l == nil {
			return errors.New("nil logger")
		}
		r.log = l
		return nil
	}
}

// WithID overrides the generated runtime id.
func WithID(id string) Option {
	return func(r *Runtime) error {
		if strings.TrimSpace(id) == "" {
			return errors.New("blank runtime id")
		}
		r.id = id
		return nil
	}
}

// WithEventBuffer sets the per-subscriber capacity of the event stream.
func WithEventBuffer(n int) Option {
	return func(r *Runtime) error {
		if n < 0 {
			return fmt.Errorf("negative event buffer %d", n)
		}
		r.eventBuffer = n
		return nil
	}
}

// Runtime is an isolated dispatch context with its own action and store registries.
type Runtime struct {
	id          string
	policy      DuplicatePolicy
	log         logger.Logger
	eventBuffer int
	disp        *dispatcher
	events      *eventbus.Bus[Event]

	mu         sync.RWMutex
	namespaces map[string]bool
	suffixes   map[string]int
	stores     map[string]*Store
	order      []string
	closed     bool
}

// New creates an isolated runtime.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		id:          uuid.NewString(),
		policy:      DuplicateReject,
		log:         logger.NopLogger{},
		eventBuffer: eventbus.DefaultBuffer,
		disp:        newDispatcher(),
		namespaces:  make(map[string]bool),
		suffixes:    make(map[string]int),
		stores:      make(map[string]*Store),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, &ConstructionError{Err: err}
		}
	}
	r.log = r.log.With("runtime", r.id)
	r.events = eventbus.NewBuffered[Event](r.eventBuffer)
	return r, nil
}

// ID returns the runtime identifier.
func (r *Runtime) ID() string { return r.id }

// Policy returns the duplicate name policy.
func (r *Runtime) Policy() DuplicatePolicy { return r.policy }

// CreateActions synthesizes an action set from desc.
func (r *Runtime) CreateActions(desc ActionDescriptor) (*ActionSet, error) {
	if len(desc.Actions) == 0 {
		return nil, &ShapeError{Descriptor: "action", Name: desc.Name, Reason: "no actions declared"}
	}
	for name := range desc.Actions {
		if strings.TrimSpace(name) == "" {
			return nil, &ShapeError{Descriptor: "action", Name: desc.Name, Reason: "blank action name"}
		}
	}
	ns := strings.TrimSpace(desc.Name)
	if ns == "" {
		ns = DefaultNamespace
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	// every emitted namespace stays reserved so suffixed ids never collide
	// with a namespace a caller picked
	unique := ns
	for r.namespaces[unique] {
		r.suffixes[ns]++
		unique = ns + strconv.Itoa(r.suffixes[ns])
	}
	r.namespaces[unique] = true
	r.mu.Unlock()

	set := newActionSet(r, unique, desc)
	r.log.Debugw("actions created", map[string]any{"namespace": unique, "actions": set.names})
	return set, nil
}

// CreateStore runs desc.Setup and registers the store under name, subscribed
// to actions and exposing hostActions to its handlers. Setup runs before anything is
// registered, so a failed call leaves the runtime unchanged.
func (r *Runtime) CreateStore(desc StoreDescriptor, name string, actions *ActionSet, hostActions Actions) (*Store, error) {
	if desc == nil {
		return nil, &ShapeError{Descriptor: "store", Name: name, Reason: "nil descriptor"}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &NamingError{Err: ErrBlankName}
	}
	if actions == nil {
		return nil, &ShapeError{Descriptor: "store", Name: name, Reason: "nil action set"}
	}
	if actions.rt != r {
		return nil, &ShapeError{Descriptor: "store", Name: name, Err: ErrForeignActions}
	}

	st := &Store{
		name:     name,
		rt:       r,
		proxy:    actions,
		real:     hostActions,
		handlers: make(map[string]Handler),
		changes:  eventbus.New[Change](),
	}
	b := &Binder{store: st}
	if err := desc.Setup(b); err != nil {
		return nil, &ShapeError{Descriptor: "store", Name: name, Err: err}
	}
	if err := errors.Join(b.errs...); err != nil {
		return nil, &ShapeError{Descriptor: "store", Name: name, Err: err}
	}
	if st.initial != nil {
		st.state = st.initial()
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	prev, exists := r.stores[name]
	if exists && r.policy == DuplicateReject {
		r.mu.Unlock()
		return nil, &NamingError{Name: name, Err: ErrDuplicateStore}
	}
	if exists {
		r.disp.unregister(prev.token)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	st.token = r.disp.register(name, st.handle)
	r.stores[name] = st
	r.order = append(r.order, name)
	r.mu.Unlock()

	if exists {
		prev.changes.Close()
		r.log.Warnf("store %s replaced", name)
	} else {
		r.log.Infof("store %s registered", name)
	}
	r.events.Publish(RegisterEvent{RuntimeID: r.id, Store: name, Replaced: exists})
	return st, nil
}

// Store returns a registered store.
func (r *Runtime) Store(name string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.stores[name]
	return st, ok
}

// StoreNames lists registered stores in registration order.
func (r *Runtime) StoreNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Recycle resets the named stores, or every store when no name is given.
func (r *Runtime) Recycle(names ...string) error {
	if len(names) == 0 {
		names = r.StoreNames()
	}
	stores := make([]*Store, 0, len(names))
	for _, n := range names {
		st, ok := r.Store(n)
		if !ok {
			return &NamingError{Name: n, Err: ErrUnknownStore}
		}
		stores = append(stores, st)
	}
	for _, st := range stores {
		st.Recycle()
	}
	return nil
}

// IsDispatching reports whether a dispatch is running.
func (r *Runtime) IsDispatching() bool { return r.disp.isDispatching() }

// Events subscribes to the runtime's dispatch and registration events.
func (r *Runtime) Events() <-chan Event { return r.events.Subscribe() }

// Unsubscribe drops a subscription returned by Events.
func (r *Runtime) Unsubscribe(ch <-chan Event) { r.events.Unsubscribe(ch) }

// Close stops dispatching and closes every event stream.
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	stores := make([]*Store, 0, len(r.stores))
	for _, st := range r.stores {
		stores = append(stores, st)
	}
	r.mu.Unlock()

	for _, st := range stores {
		st.changes.Close()
	}
	r.events.Close()
}

func (r *Runtime) dispatch(a *Action, data any) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	start := time.Now()
	deliveries, started, err := r.disp.dispatch(Payload{Action: a, Data: data})
	if !started {
		r.log.Warnf("dispatch of %s rejected: another dispatch is running", a.id)
		return fmt.Errorf("dispatch %s: %w", a.id, err)
	}
	r.events.Publish(DispatchEvent{
		RuntimeID:  r.id,
		ActionID:   a.id,
		Data:       data,
		Deliveries: deliveries,
		Duration:   time.Since(start),
		Err:        err,
	})
	if err != nil {
		r.log.Errorf("dispatch %s: %v", a.id, err)
		return fmt.Errorf("dispatch %s: %w", a.id, err)
	}
	r.log.Debugw("dispatched", map[string]any{"action": a.id, "stores": len(deliveries)})
	return nil
}
