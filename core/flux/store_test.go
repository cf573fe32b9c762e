package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreChanges(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)
	st, err := rt.CreateStore(counterStore("Counter"), "Counter", acts, nil)
	require.NoError(t, err)

	ch := st.Changes()
	require.NoError(t, acts.Call("increment", 2))
	c := <-ch
	assert.Equal(t, Change{Store: "Counter", State: 2}, c)

	st.Unlisten(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestStoreAccessors(t *testing.T) {
	host := newRuntime(t)
	hostActs, err := host.CreateActions(counterActions())
	require.NoError(t, err)

	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)

	var binderName string
	st, err := rt.CreateStore(StoreSpec{Name: "S", Init: func(b *Binder) error {
		binderName = b.StoreName()
		assert.Same(t, acts, b.ProxyActions())
		assert.Same(t, hostActs, b.RealActions())
		return nil
	}}, "ProxyS", acts, hostActs)
	require.NoError(t, err)

	assert.Equal(t, "ProxyS", binderName)
	assert.Same(t, acts, st.ProxyActions())
	assert.Same(t, hostActs, st.RealActions())
	assert.Same(t, rt, st.Runtime())
	assert.NotEmpty(t, st.Token())
	assert.Nil(t, st.State())
}

func TestBindRejectsForeignAction(t *testing.T) {
	host := newRuntime(t)
	hostActs, err := host.CreateActions(counterActions())
	require.NoError(t, err)
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)

	_, err = rt.CreateStore(StoreSpec{Name: "S", Init: func(b *Binder) error {
		inc, _ := b.RealActions().Lookup("increment")
		return b.Bind(inc, func(*Store, Payload) error { return nil })
	}}, "S", acts, hostActs)
	assert.ErrorIs(t, err, ErrForeignActions)

	_, err = rt.CreateStore(StoreSpec{Name: "T", Init: func(b *Binder) error {
		return b.Bind(nil, nil)
	}}, "T", acts, hostActs)
	var se *ShapeError
	assert.ErrorAs(t, err, &se)
}

func TestStateAs(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)
	st, err := rt.CreateStore(counterStore("Counter"), "Counter", acts, nil)
	require.NoError(t, err)

	n, ok := StateAs[int](st)
	assert.True(t, ok)
	assert.Equal(t, 0, n)
	_, ok = StateAs[string](st)
	assert.False(t, ok)
}

func TestStoreSpecWithoutInit(t *testing.T) {
	rt := newRuntime(t)
	acts, err := rt.CreateActions(counterActions())
	require.NoError(t, err)
	st, err := rt.CreateStore(StoreSpec{Name: "Empty"}, "Empty", acts, nil)
	require.NoError(t, err)
	require.NoError(t, acts.Call("increment", 1))
	assert.Nil(t, st.State())
	st.Recycle()
	assert.Nil(t, st.State())
}
