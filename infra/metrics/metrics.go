// Package metrics records runtime activity into observability backends.
package metrics

import "time"

// DispatchRecord describes one dispatch of an action in a runtime.
type DispatchRecord struct {
	RuntimeID string
	ActionID  string
	Stores    int
	Failed    bool
	Duration  time.Duration
}

// HandlerRecord describes how long one store took to handle a dispatch.
type HandlerRecord struct {
	RuntimeID string
	Store     string
	ActionID  string
	Failed    bool
	Duration  time.Duration
}

// RegistrationRecord describes a store registration.
type RegistrationRecord struct {
	RuntimeID string
	Store     string
	Replaced  bool
}

// Sink records runtime activity.
type Sink interface {
	RecordDispatch(DispatchRecord) error
	RecordHandler(HandlerRecord) error
	RecordRegistration(RegistrationRecord) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchRecord) error         { return nil }
func (NopSink) RecordHandler(HandlerRecord) error           { return nil }
func (NopSink) RecordRegistration(RegistrationRecord) error { return nil }
