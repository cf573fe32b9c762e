package flux

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderStore appends its name to log for every action it sees, waiting for
// the stores returned by deps first.
func orderStore(name string, log *[]string, deps func() []*Store) StoreSpec {
	return StoreSpec{Name: name, Init: func(b *Binder) error {
		b.BindAll(func(s *Store, _ Payload) error {
			if deps != nil {
				if err := s.WaitFor(deps()...); err != nil {
					return err
				}
			}
			*log = append(*log, s.Name())
			return nil
		})
		return nil
	}}
}

func TestDispatchOrderFollowsRegistration(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)

	var log []string
	for _, n := range []string{"A", "B", "C"} {
		_, err := rt.CreateStore(orderStore(n, &log, nil), n, acts, nil)
		require.NoError(t, err)
	}
	require.NoError(t, acts.Call("increment"))
	assert.Equal(t, []string{"A", "B", "C"}, log)
}

func TestWaitForRunsDependenciesFirst(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)

	var log []string
	var b *Store
	_, err = rt.CreateStore(orderStore("A", &log, func() []*Store { return []*Store{b} }), "A", acts, nil)
	require.NoError(t, err)
	b, err = rt.CreateStore(orderStore("B", &log, nil), "B", acts, nil)
	require.NoError(t, err)

	require.NoError(t, acts.Call("increment"))
	assert.Equal(t, []string{"B", "A"}, log, "B handled once, before A")
}

func TestWaitForCycle(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)

	var log []string
	var a, b *Store
	a, err = rt.CreateStore(orderStore("A", &log, func() []*Store { return []*Store{b} }), "A", acts, nil)
	require.NoError(t, err)
	b, err = rt.CreateStore(orderStore("B", &log, func() []*Store { return []*Store{a} }), "B", acts, nil)
	require.NoError(t, err)

	err = acts.Call("increment")
	assert.ErrorIs(t, err, ErrWaitForCycle)
	assert.False(t, rt.IsDispatching())
}

func TestWaitForOutsideDispatch(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)
	a, err := rt.CreateStore(counterStore("A"), "A", acts, nil)
	require.NoError(t, err)
	b, err := rt.CreateStore(counterStore("B"), "B", acts, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, a.WaitFor(b), ErrNotDispatching)

	other := newRuntime(t)
	otherActs, err := other.CreateActions(counterActions())
	require.NoError(t, err)
	c, err := other.CreateStore(counterStore("C"), "C", otherActs, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, a.WaitFor(c), ErrForeignActions)
}

func TestNestedDispatchRejected(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)

	var nested error
	_, err = rt.CreateStore(StoreSpec{Name: "Chain", Init: func(b *Binder) error {
		return b.BindName("increment", func(s *Store, _ Payload) error {
			nested = s.ProxyActions().Call("decrement")
			return nil
		})
	}}, "Chain", acts, nil)
	require.NoError(t, err)

	require.NoError(t, acts.Call("increment"))
	assert.ErrorIs(t, nested, ErrDispatchInProgress)
	assert.False(t, rt.IsDispatching())
	require.NoError(t, acts.Call("decrement"))
}

func TestNestedDispatchFailureStillReportsOuterDispatch(t *testing.T) {
	rt := newRuntime(t)
	events := rt.Events()
	defer rt.Unsubscribe(events)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)
	_, err = rt.CreateStore(StoreSpec{Name: "Chain", Init: func(b *Binder) error {
		return b.BindName("increment", func(s *Store, _ Payload) error {
			return s.ProxyActions().Call("decrement")
		})
	}}, "Chain", acts, nil)
	require.NoError(t, err)
	<-events // registration

	err = acts.Call("increment")
	require.ErrorIs(t, err, ErrDispatchInProgress)

	ev, ok := (<-events).(DispatchEvent)
	require.True(t, ok)
	assert.Equal(t, "global.increment", ev.ActionID)
	require.Len(t, ev.Deliveries, 1)
	assert.ErrorIs(t, ev.Err, ErrDispatchInProgress)
	select {
	case extra := <-events:
		t.Fatalf("unexpected event %#v", extra)
	default:
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	failing := func(name string, e error) StoreSpec {
		return StoreSpec{Name: name, Init: func(b *Binder) error {
			b.BindAll(func(*Store, Payload) error { return e })
			return nil
		}}
	}
	_, err = rt.CreateStore(failing("A", errA), "A", acts, nil)
	require.NoError(t, err)
	counter, err := rt.CreateStore(counterStore("Counter"), "Counter", acts, nil)
	require.NoError(t, err)
	_, err = rt.CreateStore(failing("B", errB), "B", acts, nil)
	require.NoError(t, err)

	err = acts.Call("increment", 1)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 1, counter.State(), "delivery continues past failing stores")
}

func TestActionPayloads(t *testing.T) {
	rt := newRuntime(t)
	bad := errors.New("bad args")
	acts, err := rt.CreateActions(ActionDescriptor{Actions: map[string]ActionFunc{
		"pass": nil,
		"sum": func(args ...any) (any, error) {
			total := 0
			for _, a := range args {
				n, ok := a.(int)
				if !ok {
					return nil, bad
				}
				total += n
			}
			return total, nil
		},
	}})
	require.NoError(t, err)

	var seen []any
	_, err = rt.CreateStore(StoreSpec{Name: "Rec", Init: func(b *Binder) error {
		b.BindAll(func(_ *Store, p Payload) error {
			seen = append(seen, p.Data)
			return nil
		})
		return nil
	}}, "Rec", acts, nil)
	require.NoError(t, err)

	require.NoError(t, acts.Call("pass"))
	require.NoError(t, acts.Call("pass", "x"))
	require.NoError(t, acts.Call("pass", "x", 2))
	require.NoError(t, acts.Call("sum", 1, 2, 3))
	assert.ErrorIs(t, acts.Call("sum", "nope"), bad)
	assert.ErrorIs(t, acts.Call("missing"), ErrUnknownAction)

	assert.Equal(t, []any{nil, "x", []any{"x", 2}, 6}, seen)
}
