package flux

import "time"

// Event is published on a runtime's event stream.
type Event interface {
	Runtime() string
}

// DispatchEvent describes one completed dispatch.
type DispatchEvent struct {
	RuntimeID  string
	ActionID   string
	Data       any
	Deliveries []Delivery
	Duration   time.Duration
	Err        error
}

func (e DispatchEvent) Runtime() string { return e.RuntimeID }

// RegisterEvent is published when a store is registered.
type RegisterEvent struct {
	RuntimeID string
	Store     string
	Replaced  bool
}

func (e RegisterEvent) Runtime() string { return e.RuntimeID }
