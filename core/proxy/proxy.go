// Package proxy builds isolated copies of a flux action/store graph.
//
// A Factory owns one private flux.Runtime and one action set synthesized in
// it. Every store it creates is subscribed to that proxy action set and is
// handed the host's real action set untouched, so store logic can observe
// private dispatches while still reading from or delegating to production
// actions.
package proxy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/altproxy/core/flux"
	"github.com/kilianp07/altproxy/infra/logger"
)

// NamePrefix is prepended to a store's display name to form its registration name.
const NamePrefix = "Proxy"

// Factory creates proxy stores inside one isolated runtime.
type Factory struct {
	rt    *flux.Runtime
	proxy *flux.ActionSet
	real  flux.Actions
	log   logger.Logger
}

// New creates a private runtime and synthesizes the proxy action set from
// desc. realActions is kept by reference and passed to every store. Any
// failure aborts construction and is returned unchanged.
func New(realActions flux.Actions, desc flux.ActionDescriptor, opts ...Option) (*Factory, error) {
	o := options{log: logger.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.err != nil {
		return nil, &flux.ConstructionError{Err: o.err}
	}
	if o.strict {
		if err := checkActions(realActions, desc); err != nil {
			return nil, err
		}
	}

	rt, err := flux.New(
		flux.WithDuplicatePolicy(o.policy),
		flux.WithLogger(o.log),
	)
	if err != nil {
		return nil, err
	}
	actions, err := rt.CreateActions(desc)
	if err != nil {
		rt.Close()
		return nil, err
	}
	f := &Factory{
		rt:    rt,
		proxy: actions,
		real:  realActions,
		log:   o.log.With("runtime", rt.ID()),
	}
	f.log.Debugw("proxy factory ready", map[string]any{"namespace": actions.Namespace(), "actions": actions.Names()})
	return f, nil
}

// CreateStoreProxy registers a store named NamePrefix+desc.DisplayName(),
// wired to the proxy action set and the real action set. Name collisions
// follow the runtime's duplicate policy.
func (f *Factory) CreateStoreProxy(desc flux.StoreDescriptor) (*flux.Store, error) {
	if desc == nil {
		return nil, &flux.NamingError{Err: flux.ErrMissingDisplayName}
	}
	display := desc.DisplayName()
	if strings.TrimSpace(display) == "" {
		return nil, &flux.NamingError{Err: flux.ErrMissingDisplayName}
	}
	name := NamePrefix + display
	st, err := f.rt.CreateStore(desc, name, f.proxy, f.real)
	if err != nil {
		f.log.Debugw("proxy store rejected", map[string]any{"store": name, "error": err.Error()})
		return nil, err
	}
	f.log.Debugw("proxy store created", map[string]any{"store": name, "token": st.Token()})
	return st, nil
}

// Runtime returns the isolated runtime.
func (f *Factory) Runtime() *flux.Runtime { return f.rt }

// ProxyActions returns the action set synthesized for this factory.
func (f *Factory) ProxyActions() *flux.ActionSet { return f.proxy }

// RealActions returns the host action set given at construction.
func (f *Factory) RealActions() flux.Actions { return f.real }

// checkActions verifies that realActions exposes every action desc declares.
func checkActions(realActions flux.Actions, desc flux.ActionDescriptor) error {
	var names []string
	if realActions != nil {
		names = realActions.Names()
	}
	if len(names) == 0 {
		return &flux.ShapeError{Descriptor: "action", Name: desc.Name, Reason: "strict mode requires real actions"}
	}
	have := make(map[string]struct{}, len(names))
	for _, n := range names {
		have[n] = struct{}{}
	}
	var missing []string
	for name := range desc.Actions {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &flux.ShapeError{
			Descriptor: "action",
			Name:       desc.Name,
			Reason:     fmt.Sprintf("real actions lack %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}
