package metrics

import "github.com/kilianp07/altproxy/infra/logger"

// LogSink writes every record as a structured debug entry.
type LogSink struct {
	log logger.Logger
}

// NewLogSink returns a sink logging through l. A nil logger discards records.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.NopLogger{}
	}
	return &LogSink{log: l}
}

func (s *LogSink) RecordDispatch(r DispatchRecord) error {
	s.log.Debugw("dispatch", map[string]any{
		"runtime":  r.RuntimeID,
		"action":   r.ActionID,
		"stores":   r.Stores,
		"failed":   r.Failed,
		"duration": r.Duration,
	})
	return nil
}

func (s *LogSink) RecordHandler(r HandlerRecord) error {
	s.log.Debugw("handler", map[string]any{
		"runtime":  r.RuntimeID,
		"store":    r.Store,
		"action":   r.ActionID,
		"failed":   r.Failed,
		"duration": r.Duration,
	})
	return nil
}

func (s *LogSink) RecordRegistration(r RegistrationRecord) error {
	s.log.Debugw("registration", map[string]any{
		"runtime":  r.RuntimeID,
		"store":    r.Store,
		"replaced": r.Replaced,
	})
	return nil
}
