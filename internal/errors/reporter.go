package errors

import (
	"context"
	"log/slog"
)

// Handler receives every reported error.
type Handler func(err *VangoError)

// Reporter is the single reporting channel of an engine. It logs each error
// (warnings at warn level, fatal errors at error level), keeps a bounded
// history and forwards to an optional handler.
type Reporter struct {
	logger  *slog.Logger
	handler Handler
	history []*VangoError
	limit   int
	total   int
}

// DefaultHistory is the number of errors a Reporter retains.
const DefaultHistory = 256

// NewReporter creates a Reporter. A nil logger uses slog.Default().
func NewReporter(logger *slog.Logger, handler Handler) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger:  logger,
		handler: handler,
		limit:   DefaultHistory,
	}
}

// Report records err and returns it so callers can write `return r.Report(...)`.
func (r *Reporter) Report(err *VangoError) *VangoError {
	if r == nil || err == nil {
		return err
	}

	level := slog.LevelWarn
	if err.Severity == SeverityError {
		level = slog.LevelError
	}
	attrs := []any{"code", err.Code, "category", string(err.Category)}
	if err.Location != nil {
		attrs = append(attrs, "node", err.Location.Node)
		if err.Location.Directive != "" {
			attrs = append(attrs, "directive", err.Location.Directive)
		}
	}
	if err.Wrapped != nil {
		attrs = append(attrs, "error", err.Wrapped)
	}
	r.logger.Log(context.Background(), level, err.Message, attrs...)

	if len(r.history) >= r.limit {
		r.history = r.history[1:]
	}
	r.history = append(r.history, err)
	r.total++

	if r.handler != nil {
		r.handler(err)
	}
	return err
}

// Errors returns the retained errors, oldest first.
func (r *Reporter) Errors() []*VangoError {
	if r == nil {
		return nil
	}
	out := make([]*VangoError, len(r.history))
	copy(out, r.history)
	return out
}

// Total returns how many errors were reported, including those no longer
// retained.
func (r *Reporter) Total() int {
	if r == nil {
		return 0
	}
	return r.total
}

// Count returns how many retained errors carry the given code.
func (r *Reporter) Count(code string) int {
	n := 0
	for _, e := range r.Errors() {
		if e.Code == code {
			n++
		}
	}
	return n
}

// Reset drops the retained history.
func (r *Reporter) Reset() {
	if r != nil {
		r.history = nil
	}
}
