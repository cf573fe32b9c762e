package plugins

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kilianp07/altproxy/core/catalog"
	"github.com/kilianp07/altproxy/core/flux"
)

func init() {
	RegisterStore("counter", newCounter)
	RegisterStore("recorder", newRecorder)
	RegisterStore("mirror", newMirror)
}

type baseConf struct {
	DisplayName string `json:"display_name"`
}

func (c baseConf) validate() error {
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("display_name is required")
	}
	return nil
}

// CounterConf configures a counter store.
type CounterConf struct {
	DisplayName string `json:"display_name"`
	// Step multiplies every increment and decrement. Defaults to 1.
	Step int `json:"step"`
}

func newCounter(conf map[string]any) (flux.StoreDescriptor, error) {
	var c CounterConf
	if err := catalog.Decode(conf, &c); err != nil {
		return nil, err
	}
	if err := (baseConf{DisplayName: c.DisplayName}).validate(); err != nil {
		return nil, err
	}
	if c.Step == 0 {
		c.Step = 1
	}
	return Counter(c), nil
}

// Counter keeps an int that increment/decrement move by Step times the
// payload (1 when absent) and that reset sets to the payload (0 when absent).
// Actions missing from the proxy set are ignored.
func Counter(c CounterConf) flux.StoreDescriptor {
	step := c.Step
	if step == 0 {
		step = 1
	}
	return flux.StoreSpec{Name: c.DisplayName, Init: func(b *flux.Binder) error {
		b.InitialState(func() any { return 0 })
		move := func(sign int) flux.Handler {
			return func(s *flux.Store, p flux.Payload) error {
				n, err := toInt(p.Data, 1)
				if err != nil {
					return err
				}
				cur, _ := flux.StateAs[int](s)
				s.SetState(cur + sign*step*n)
				return nil
			}
		}
		handlers := map[string]flux.Handler{
			"increment": move(1),
			"decrement": move(-1),
			"reset": func(s *flux.Store, p flux.Payload) error {
				n, err := toInt(p.Data, 0)
				if err != nil {
					return err
				}
				s.SetState(n)
				return nil
			},
		}
		for name, h := range handlers {
			if _, ok := b.ProxyActions().Lookup(name); !ok {
				continue
			}
			if err := b.BindName(name, h); err != nil {
				return err
			}
		}
		return nil
	}}
}

func newRecorder(conf map[string]any) (flux.StoreDescriptor, error) {
	var c baseConf
	if err := catalog.Decode(conf, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return Recorder(c.DisplayName), nil
}

// Recorder keeps the ids of every action it has seen, oldest first.
func Recorder(name string) flux.StoreDescriptor {
	return flux.StoreSpec{Name: name, Init: func(b *flux.Binder) error {
		b.InitialState(func() any { return []string{} })
		b.BindAll(func(s *flux.Store, p flux.Payload) error {
			prev, _ := flux.StateAs[[]string](s)
			next := make([]string, len(prev), len(prev)+1)
			copy(next, prev)
			s.SetState(append(next, p.Action.ID()))
			return nil
		})
		return nil
	}}
}

// MirrorConf configures a mirror store.
type MirrorConf struct {
	DisplayName string `json:"display_name"`
	// Actions restricts forwarding to these names. Empty forwards every
	// proxy action that the real set also exposes.
	Actions []string `json:"actions"`
}

func newMirror(conf map[string]any) (flux.StoreDescriptor, error) {
	var c MirrorConf
	if err := catalog.Decode(conf, &c); err != nil {
		return nil, err
	}
	if err := (baseConf{DisplayName: c.DisplayName}).validate(); err != nil {
		return nil, err
	}
	return Mirror(c), nil
}

// Mirror forwards proxy dispatches to the real action of the same name and
// counts forwarded calls in its state.
func Mirror(c MirrorConf) flux.StoreDescriptor {
	return flux.StoreSpec{Name: c.DisplayName, Init: func(b *flux.Binder) error {
		host := b.RealActions()
		if host == nil || len(host.Names()) == 0 {
			return errors.New("mirror requires real actions")
		}
		names := c.Actions
		if len(names) == 0 {
			names = b.ProxyActions().Names()
		}
		b.InitialState(func() any { return 0 })
		for _, name := range names {
			target, ok := host.Lookup(name)
			if !ok {
				if len(c.Actions) > 0 {
					return fmt.Errorf("real actions lack %s", name)
				}
				continue
			}
			if err := b.BindName(name, func(s *flux.Store, p flux.Payload) error {
				if err := target.Invoke(p.Data); err != nil {
					return err
				}
				n, _ := flux.StateAs[int](s)
				s.SetState(n + 1)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}}
}

// toInt accepts the numeric shapes produced by YAML and JSON decoding.
func toInt(v any, def int) (int, error) {
	switch n := v.(type) {
	case nil:
		return def, nil
	case int:
		return n, nil
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, fmt.Errorf("payload %d overflows int", n)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("payload %d overflows int", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("payload %v is not a whole number", n)
		}
		if n < math.MinInt || n >= math.MaxInt {
			return 0, fmt.Errorf("payload %v overflows int", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("payload %v (%T) is not a number", v, v)
	}
}
