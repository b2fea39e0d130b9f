package live

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/session"
	"github.com/vango-dev/vbind/pkg/telemetry"
)

// Config configures a live Server.
type Config struct {
	// Template is the parsed page. Every session mounts its own copy.
	Template *html.Node

	// Mount is the id of the element whose children are compiled.
	// The body is used when empty.
	Mount string

	// Model returns a fresh model for a new session. Restored sessions start
	// from a fresh model with the snapshot laid over it, so fields dropped
	// from snapshots (handlers, captured nodes) come back.
	Model func() (map[string]any, error)

	// Methods are the event handlers available to every session.
	Methods map[string]any

	// SessionMethods builds handlers bound to one session's model. They
	// override Methods of the same name.
	SessionMethods func(model *reactive.Object) map[string]any

	// IgnorePrefixes are passed to each engine.
	IgnorePrefixes []string

	// Title overrides the page title taken from the template.
	Title string

	// Store persists session snapshots. Defaults to a MemoryStore.
	Store session.Store

	// Sessions configures detached session handling.
	Sessions session.ManagerConfig

	// Recorder receives engine and session metrics.
	Recorder telemetry.Recorder

	// Tracer is used for engine spans.
	Tracer trace.Tracer

	// Metrics mounts promhttp on /metrics when set.
	Metrics http.Handler

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// MaxMessageSize limits inbound frames. Default: 64 KiB.
	MaxMessageSize int64

	// ReadTimeout closes connections silent for this long. Pongs count as
	// activity. Default: 60s.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single write. Default: 10s.
	WriteTimeout time.Duration

	// HeartbeatInterval is the ping period. Default: 25s.
	HeartbeatInterval time.Duration

	// CheckOrigin validates the WebSocket origin. Defaults to same host.
	CheckOrigin func(r *http.Request) bool

	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP.
	TrustProxy bool
}

func (c *Config) withDefaults() {
	if c.Model == nil {
		c.Model = func() (map[string]any, error) { return map[string]any{}, nil }
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 << 10
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 25 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Recorder = telemetry.OrNop(c.Recorder)
}
