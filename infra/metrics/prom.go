package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromSink records runtime activity in Prometheus metrics.
type PromSink struct {
	dispatches    *prometheus.CounterVec
	handlers      *prometheus.HistogramVec
	registrations *prometheus.CounterVec
}

// NewPromSink registers the collectors on reg. A nil registerer defaults to
// the global Prometheus registerer. Collectors already registered are reused,
// so several runtimes can share one sink.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "altproxy_dispatch_total",
		Help: "Total number of dispatched actions",
	}, []string{"runtime", "action", "failed"})
	handlers := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "altproxy_handler_seconds",
		Help:    "Time a store spent handling a dispatched action",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"runtime", "store"})
	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "altproxy_store_registrations_total",
		Help: "Total number of store registrations",
	}, []string{"runtime", "store", "mode"})

	var err error
	if dispatches, err = register(reg, dispatches); err != nil {
		return nil, err
	}
	if handlers, err = register(reg, handlers); err != nil {
		return nil, err
	}
	if registrations, err = register(reg, registrations); err != nil {
		return nil, err
	}
	return &PromSink{dispatches: dispatches, handlers: handlers, registrations: registrations}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDispatch increments the dispatch counter.
func (s *PromSink) RecordDispatch(r DispatchRecord) error {
	s.dispatches.WithLabelValues(r.RuntimeID, r.ActionID, strconv.FormatBool(r.Failed)).Inc()
	return nil
}

// RecordHandler observes the handler duration.
func (s *PromSink) RecordHandler(r HandlerRecord) error {
	s.handlers.WithLabelValues(r.RuntimeID, r.Store).Observe(r.Duration.Seconds())
	return nil
}

// RecordRegistration counts a store registration.
func (s *PromSink) RecordRegistration(r RegistrationRecord) error {
	mode := "new"
	if r.Replaced {
		mode = "replaced"
	}
	s.registrations.WithLabelValues(r.RuntimeID, r.Store, mode).Inc()
	return nil
}

// StartPromServer exposes the gatherer on /metrics at the given port.
// It blocks until the server stops.
func StartPromServer(port int, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
