package proxy

import (
	"errors"

	"github.com/kilianp07/altproxy/config"
	"github.com/kilianp07/altproxy/core/flux"
	"github.com/kilianp07/altproxy/infra/logger"
)

type options struct {
	policy flux.DuplicatePolicy
	strict bool
	log    logger.Logger
	err    error
}

// Option configures a Factory.
type Option func(*options)

// WithDuplicatePolicy selects what happens when two stores share a display name.
func WithDuplicatePolicy(p flux.DuplicatePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithStrictActions makes construction fail unless the real action set
// exposes every action of the descriptor.
func WithStrictActions(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithLogger sets the logger used by the factory and its runtime.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l == nil {
			o.err = errors.New("nil logger")
			return
		}
		o.log = l
	}
}

// FromConfig applies the runtime section of the configuration.
func FromConfig(cfg config.RuntimeConfig) Option {
	return func(o *options) {
		p, err := flux.ParseDuplicatePolicy(cfg.OnDuplicate)
		if err != nil {
			o.err = err
			return
		}
		o.policy = p
		o.strict = cfg.ActionCheck == config.ActionCheckStrict
	}
}
