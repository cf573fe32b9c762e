package flux

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Payload is what stores receive for each dispatched action.
type Payload struct {
	Action *Action
	Data   any
}

// Delivery records how one subscriber handled a payload.
type Delivery struct {
	Store    string
	Duration time.Duration
	Err      error
}

type subscriber struct {
	label string
	cb    func(Payload) error
}

// dispatcher delivers payloads synchronously to registered callbacks.
type dispatcher struct {
	mu          sync.Mutex
	seq         int
	subs        map[string]subscriber
	order       []string
	dispatching bool
	pending     map[string]bool
	handled     map[string]bool
	current     Payload
	deliveries  []Delivery
}

func newDispatcher() *dispatcher {
	return &dispatcher{subs: make(map[string]subscriber)}
}

// register adds a callback and returns its token.
func (d *dispatcher) register(label string, cb func(Payload) error) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	tok := "ID_" + strconv.Itoa(d.seq)
	d.subs[tok] = subscriber{label: label, cb: cb}
	d.order = append(d.order, tok)
	return tok
}

func (d *dispatcher) unregister(tok string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subs[tok]; !ok {
		return
	}
	delete(d.subs, tok)
	for i, t := range d.order {
		if t == tok {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *dispatcher) isDispatching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatching
}

// dispatch runs every callback once for p. Callback errors do not stop
// delivery; they are joined into the returned error. started is false only
// when p was refused because another dispatch is running.
func (d *dispatcher) dispatch(p Payload) (deliveries []Delivery, started bool, err error) {
	d.mu.Lock()
	if d.dispatching {
		d.mu.Unlock()
		return nil, false, ErrDispatchInProgress
	}
	d.dispatching = true
	d.current = p
	d.pending = make(map[string]bool, len(d.order))
	d.handled = make(map[string]bool, len(d.order))
	d.deliveries = nil
	order := append([]string(nil), d.order...)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.dispatching = false
		d.current = Payload{}
		d.pending = nil
		d.handled = nil
		d.deliveries = nil
		d.mu.Unlock()
	}()

	for _, tok := range order {
		d.invoke(tok)
	}

	d.mu.Lock()
	out := append([]Delivery(nil), d.deliveries...)
	d.mu.Unlock()
	var errs []error
	for _, dl := range out {
		if dl.Err != nil {
			errs = append(errs, dl.Err)
		}
	}
	return out, true, errors.Join(errs...)
}

// waitFor runs the callbacks behind toks before the caller continues.
func (d *dispatcher) waitFor(toks ...string) error {
	for _, tok := range toks {
		d.mu.Lock()
		if !d.dispatching {
			d.mu.Unlock()
			return ErrNotDispatching
		}
		if d.pending[tok] {
			done := d.handled[tok]
			label := d.subs[tok].label
			d.mu.Unlock()
			if !done {
				return fmt.Errorf("waiting for %s: %w", label, ErrWaitForCycle)
			}
			continue
		}
		_, ok := d.subs[tok]
		d.mu.Unlock()
		if !ok {
			return fmt.Errorf("token %s: %w", tok, ErrUnknownStore)
		}
		d.invoke(tok)
	}
	return nil
}

func (d *dispatcher) invoke(tok string) {
	d.mu.Lock()
	sub, ok := d.subs[tok]
	if !ok || d.pending[tok] {
		d.mu.Unlock()
		return
	}
	d.pending[tok] = true
	p := d.current
	d.mu.Unlock()

	start := time.Now()
	err := sub.cb(p)
	dl := Delivery{Store: sub.label, Duration: time.Since(start), Err: err}

	d.mu.Lock()
	d.handled[tok] = true
	d.deliveries = append(d.deliveries, dl)
	d.mu.Unlock()
}
