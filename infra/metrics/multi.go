package metrics

// MultiSink fanouts records to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordDispatch(r DispatchRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordHandler forwards handler timings.
func (m *MultiSink) RecordHandler(r HandlerRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordHandler(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordRegistration forwards registrations.
func (m *MultiSink) RecordRegistration(r RegistrationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRegistration(r); err != nil {
			return err
		}
	}
	return nil
}
