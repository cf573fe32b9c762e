package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/altproxy/app/plugins"
	"github.com/kilianp07/altproxy/config"
	"github.com/kilianp07/altproxy/core/flux"
	"github.com/kilianp07/altproxy/core/proxy"
	"github.com/kilianp07/altproxy/infra/logger"
	"github.com/kilianp07/altproxy/infra/metrics"
)

// HostStoreName is the counter store registered in the host graph.
const HostStoreName = "Host"

// Service runs a scenario: a host graph owning the real actions, a proxy
// factory mirroring them and a script of action calls against either side.
type Service struct {
	Host      *flux.Runtime
	HostStore *flux.Store
	Real      *flux.ActionSet
	Factory   *proxy.Factory
	Stores    []*flux.Store

	cfg      *config.Config
	log      logger.Logger
	registry *prometheus.Registry
	stop     context.CancelFunc
	done     []<-chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the default zerolog logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithRegistry sets the Prometheus registry metrics are recorded on.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Service) { s.registry = reg }
}

// Report summarizes a scenario run.
type Report struct {
	Steps  int
	Failed int
	// States holds the final state of every store, keyed by registration name.
	States map[string]any
	// MeanLatency and StdDevLatency describe step durations.
	MeanLatency   time.Duration
	StdDevLatency time.Duration
}

// New builds the host graph, the proxy factory and every configured store.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		if err := logger.SetLevel(cfg.Logging.Level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		s.log = logger.New("service")
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	var sinks []metrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		prom, err := metrics.NewPromSink(s.registry)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, prom)
	}
	if cfg.Metrics.LogEnabled {
		sinks = append(sinks, metrics.NewLogSink(s.log.With("component", "metrics")))
	}
	var sink metrics.Sink = metrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	desc := actionDescriptor(cfg.Actions)
	host, err := flux.New(flux.WithLogger(s.log.With("graph", "host")))
	if err != nil {
		return nil, fmt.Errorf("host runtime: %w", err)
	}
	s.Host = host
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = append(s.done, metrics.StartEventCollector(ctx, host, sink))

	if s.Real, err = host.CreateActions(desc); err != nil {
		s.Close()
		return nil, fmt.Errorf("host actions: %w", err)
	}
	s.HostStore, err = host.CreateStore(plugins.Counter(plugins.CounterConf{DisplayName: HostStoreName}), HostStoreName, s.Real, nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("host store: %w", err)
	}

	s.Factory, err = proxy.New(s.Real, desc,
		proxy.FromConfig(cfg.Runtime),
		proxy.WithLogger(s.log.With("graph", "proxy")),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("proxy factory: %w", err)
	}
	s.done = append(s.done, metrics.StartEventCollector(ctx, s.Factory.Runtime(), sink))

	for i, sc := range cfg.Stores {
		sd, err := plugins.NewStore(sc.Type, sc.Conf)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("stores[%d] %s: %w", i, sc.Type, err)
		}
		st, err := s.Factory.CreateStoreProxy(sd)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("stores[%d] %s: %w", i, sc.Type, err)
		}
		s.Stores = append(s.Stores, st)
	}
	s.log.Infof("scenario ready: %d actions, %d proxy stores", len(cfg.Actions), len(s.Stores))
	return s, nil
}

// Gatherer exposes the metrics registry.
func (s *Service) Gatherer() prometheus.Gatherer { return s.registry }

// Run replays the configured steps. Step failures are logged and counted;
// only context cancellation aborts the run.
func (s *Service) Run(ctx context.Context) (Report, error) {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(s.cfg.Metrics.PrometheusPort, s.registry); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	rep := Report{States: make(map[string]any)}
	durations := make([]float64, 0, len(s.cfg.Steps))
	for i, step := range s.cfg.Steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		set := s.Factory.ProxyActions()
		if step.Target == config.TargetReal {
			set = s.Real
		}
		start := time.Now()
		err := set.Call(step.Action, step.Args...)
		durations = append(durations, float64(time.Since(start)))
		rep.Steps++
		if err != nil {
			rep.Failed++
			s.log.Warnf("step %d %s/%s: %v", i, step.Target, step.Action, err)
		}
	}

	if len(durations) > 0 {
		mean, std := stat.MeanStdDev(durations, nil)
		if len(durations) == 1 {
			std = 0
		}
		rep.MeanLatency = time.Duration(mean)
		rep.StdDevLatency = time.Duration(std)
	}
	rep.States[HostStoreName] = s.HostStore.State()
	for _, st := range s.Stores {
		rep.States[st.Name()] = st.State()
	}
	for name, state := range rep.States {
		s.log.Infof("store %s: %v", name, state)
	}
	s.log.Infof("ran %d steps, %d failed, mean %s, stddev %s", rep.Steps, rep.Failed, rep.MeanLatency, rep.StdDevLatency)
	return rep, nil
}

// Close releases the runtimes and stops metric collection.
func (s *Service) Close() error {
	if s.Factory != nil {
		s.Factory.Runtime().Close()
	}
	if s.Host != nil {
		s.Host.Close()
	}
	// closed runtimes end their collectors once buffered events are drained
	for _, d := range s.done {
		<-d
	}
	s.done = nil
	if s.stop != nil {
		s.stop()
	}
	return nil
}

func actionDescriptor(names []string) flux.ActionDescriptor {
	acts := make(map[string]flux.ActionFunc, len(names))
	for _, n := range names {
		acts[n] = nil
	}
	return flux.ActionDescriptor{Actions: acts}
}
