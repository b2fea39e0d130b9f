package vbind

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/compiler"
	"github.com/vango-dev/vbind/pkg/telemetry"
)

// Handler is the signature of an event handler method. It receives the
// evaluated argument list of the v-on expression, or the *dom.Event when the
// markup names the handler without parentheses. Methods may also be plain
// func(), func(...any) or func(*dom.Event).
type Handler = compiler.Handler

// Option configures an Engine.
type Option func(*options)

type options struct {
	methods  map[string]any
	ignore   []string
	logger   *slog.Logger
	reporter *errors.Reporter
	handler  errors.Handler
	recorder telemetry.Recorder
	tracer   trace.Tracer
}

func defaultOptions() options {
	return options{
		methods: make(map[string]any),
	}
}

// WithMethods registers every entry of methods as an event handler.
func WithMethods(methods map[string]any) Option {
	return func(o *options) {
		for name, h := range methods {
			o.methods[name] = h
		}
	}
}

// WithMethod registers one event handler.
func WithMethod(name string, h any) Option {
	return func(o *options) {
		o.methods[name] = h
	}
}

// WithIgnorePrefixes keeps model properties whose access path starts with
// one of prefixes out of change detection. They are stored raw and never
// notify.
func WithIgnorePrefixes(prefixes ...string) Option {
	return func(o *options) {
		o.ignore = append(o.ignore, prefixes...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReporter routes errors through an existing reporter, for example one
// shared by several engines.
func WithReporter(r *errors.Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithErrorHandler receives every error the engine reports. Ignored when
// WithReporter is given.
func WithErrorHandler(h errors.Handler) Option {
	return func(o *options) {
		o.handler = h
	}
}

// WithRecorder sets the metrics recorder. Default: telemetry.Nop.
func WithRecorder(r telemetry.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithTracer sets the tracer for compile and dispatch spans. Default: the
// global OpenTelemetry provider's "vbind" tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}
