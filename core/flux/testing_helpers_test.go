package flux

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func counterActions() ActionDescriptor {
	return ActionDescriptor{Actions: map[string]ActionFunc{
		"increment": nil,
		"decrement": nil,
		"reset":     func(...any) (any, error) { return 0, nil },
	}}
}

// counterStore adds the payload to an int state on increment.
func counterStore(name string) StoreSpec {
	return StoreSpec{Name: name, Init: func(b *Binder) error {
		b.InitialState(func() any { return 0 })
		if err := b.BindName("increment", func(s *Store, p Payload) error {
			n, _ := StateAs[int](s)
			step, _ := p.Data.(int)
			s.SetState(n + step)
			return nil
		}); err != nil {
			return err
		}
		return b.BindName("reset", func(s *Store, p Payload) error {
			s.SetState(p.Data)
			return nil
		})
	}}
}

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	rt, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}
