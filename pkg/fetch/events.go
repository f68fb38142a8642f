package fetch

// Timing is one discrete measurement event for a completed tree request,
// keyed by request id. Purely observational; nothing reads these back.
type Timing struct {
	RequestID int64
	Source    Source
	// RequestMs is the HTTP round trip, including reading the body.
	RequestMs float64
	// ParseMs is the JSON decode of the response body.
	ParseMs float64
	// TotalMs covers the whole strategy, encode to decode.
	TotalMs float64
}

// Sink receives timing events. The sink is injected into the Coordinator so
// measurement tooling can subscribe without the core depending on any shared
// global hook.
type Sink interface {
	Emit(Timing)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Timing)

// Emit calls f.
func (f SinkFunc) Emit(t Timing) { f(t) }

// NopSink returns a Sink that discards every event.
func NopSink() Sink {
	return SinkFunc(func(Timing) {})
}
