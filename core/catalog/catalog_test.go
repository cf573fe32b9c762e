package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct{ A int }

type sampleConf struct {
	A int `json:"a"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create("s", map[string]any{"a": 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.A != 3 {
		t.Fatalf("expected 3 got %d", inst.A)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("z", nil); err == nil {
		t.Fatal("expected nil constructor error")
	}
	_, err := reg.Create("y", nil)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Panics(t, func() { reg.MustRegister("x", func(map[string]any) (int, error) { return 3, nil }) })
}

func TestRegistry_Types(t *testing.T) {
	reg := NewRegistry[int]()
	reg.MustRegister("b", func(map[string]any) (int, error) { return 0, nil })
	reg.MustRegister("a", func(map[string]any) (int, error) { return 0, nil })
	assert.Equal(t, []string{"a", "b"}, reg.Types())
}

func TestDecode(t *testing.T) {
	var c sampleConf
	require.NoError(t, Decode(map[string]any{"a": 2.0}, &c))
	assert.Equal(t, 2, c.A)
	require.NoError(t, Decode(map[string]any{"a": "7"}, &c))
	assert.Equal(t, 7, c.A)
	assert.Error(t, Decode(map[string]any{"b": 1}, &c), "unknown keys are rejected")
}
