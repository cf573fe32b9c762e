package metrics

import (
	"context"

	"github.com/kilianp07/altproxy/core/flux"
)

// StartEventCollector subscribes to the runtime's event stream and records
// metrics for each event. It stops when the context is canceled or the
// runtime is closed. The returned channel is closed once collection stops.
func StartEventCollector(ctx context.Context, rt *flux.Runtime, sink Sink) <-chan struct{} {
	done := make(chan struct{})
	if rt == nil || sink == nil {
		close(done)
		return done
	}
	sub := rt.Events()
	go func() {
		defer close(done)
		defer rt.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
	return done
}

func record(sink Sink, ev flux.Event) {
	switch e := ev.(type) {
	case flux.DispatchEvent:
		_ = sink.RecordDispatch(DispatchRecord{
			RuntimeID: e.RuntimeID,
			ActionID:  e.ActionID,
			Stores:    len(e.Deliveries),
			Failed:    e.Err != nil,
			Duration:  e.Duration,
		})
		for _, d := range e.Deliveries {
			_ = sink.RecordHandler(HandlerRecord{
				RuntimeID: e.RuntimeID,
				Store:     d.Store,
				ActionID:  e.ActionID,
				Failed:    d.Err != nil,
				Duration:  d.Duration,
			})
		}
	case flux.RegisterEvent:
		_ = sink.RecordRegistration(RegistrationRecord{
			RuntimeID: e.RuntimeID,
			Store:     e.Store,
			Replaced:  e.Replaced,
		})
	}
}
