package flux

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDisplayName is reported when a store descriptor declares no display name.
	ErrMissingDisplayName = errors.New("store descriptor has no display name")
	// ErrBlankName is reported when a store is registered under an empty name.
	ErrBlankName = errors.New("store name is blank")
	// ErrDuplicateStore is reported when a name is already taken and the runtime rejects duplicates.
	ErrDuplicateStore = errors.New("store name already registered")
	// ErrUnknownStore is reported when a lookup targets an unregistered store.
	ErrUnknownStore = errors.New("unknown store")
	// ErrDispatchInProgress is returned when an action is dispatched while another dispatch runs.
	ErrDispatchInProgress = errors.New("cannot dispatch in the middle of a dispatch")
	// ErrNotDispatching is returned by WaitFor outside of a dispatch.
	ErrNotDispatching = errors.New("wait requested outside of a dispatch")
	// ErrWaitForCycle is returned when stores wait for each other.
	ErrWaitForCycle = errors.New("circular wait between stores")
	// ErrUnknownAction is returned when an action name is not part of a set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrForeignActions is returned when actions from another runtime are wired into a store.
	ErrForeignActions = errors.New("actions belong to another runtime")
	// ErrClosed is returned once the runtime has been closed.
	ErrClosed = errors.New("runtime closed")
)

// ShapeError reports a descriptor that does not satisfy the shape the runtime requires.
type ShapeError struct {
	// Descriptor is "action" or "store".
	Descriptor string
	// Name identifies the offending descriptor when known.
	Name   string
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("flux: invalid %s descriptor", e.Descriptor)
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShapeError) Unwrap() error { return e.Err }

// NamingError reports a store name that cannot be derived or registered.
type NamingError struct {
	Name string
	Err  error
}

func (e *NamingError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("flux: store naming: %v", e.Err)
	}
	return fmt.Sprintf("flux: store %q: %v", e.Name, e.Err)
}

func (e *NamingError) Unwrap() error { return e.Err }

// ConstructionError reports a runtime that failed to initialize.
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("flux: runtime construction: %v", e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }
