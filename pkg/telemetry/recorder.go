// Package telemetry provides metrics and tracing for engines and the live
// server.
//
// Engines report through the Recorder interface. Nop discards everything and
// is the default; Prometheus exports counters and gauges. Tracing helpers
// wrap the global OpenTelemetry tracer provider.
package telemetry

import "time"

// Recorder receives engine and server measurements. Methods are called
// synchronously on the mutation path and must be cheap.
type Recorder interface {
	// Dispatched records one change notification by operation name.
	Dispatched(op string)

	// Patched records one DOM mutation by updater op name.
	Patched(op string)

	// ListPatched records one list render step by strategy
	// (initial, push, unshift, pop, shift, rebuild).
	ListPatched(strategy string)

	// Reported records one reported error.
	Reported(code, severity string)

	// Bindings adjusts the number of live bindings.
	Bindings(delta int)

	// Event records one handled client event.
	Event(typ string, d time.Duration, err error)

	// Sessions adjusts the number of live sessions.
	Sessions(delta int)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) Dispatched(string)                  {}
func (Nop) Patched(string)                     {}
func (Nop) ListPatched(string)                 {}
func (Nop) Reported(string, string)            {}
func (Nop) Bindings(int)                       {}
func (Nop) Event(string, time.Duration, error) {}
func (Nop) Sessions(int)                       {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
