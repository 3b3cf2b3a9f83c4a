package fault

// A Sink receives fault reports. Report must not block.
type Sink interface {
	Report(r *Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r *Report)

// Report calls f.
func (f SinkFunc) Report(r *Report) {
	f(r)
}

// MultiSink hands every report to each of its sinks in order.
type MultiSink []Sink

// Report forwards r.
func (m MultiSink) Report(r *Report) {
	for _, s := range m {
		s.Report(r)
	}
}
