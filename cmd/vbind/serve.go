package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vbind/pkg/live"
	"github.com/vango-dev/vbind/pkg/session"
	"github.com/vango-dev/vbind/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		sources sourceFlags
		port    int
		host    string
	)

	cmd := &cobra.Command{
		Use:   "serve [template]",
		Short: "Serve a template live",
		Long: `Serve a template over HTTP with a live connection per browser tab.

Each tab gets its own copy of the model. Form input and events in the
browser update the model on the server, and the changed markup is sent
back. Closed tabs can resume their session within the resume window.

Examples:
  vbind serve
  vbind serve index.html --model data.yaml --mount app --port 8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(args, sources, nil)
			if err != nil {
				return err
			}
			if port > 0 {
				p.cfg.Server.Port = port
			}
			if host != "" {
				p.cfg.Server.Host = host
			}
			return runServe(p)
		},
	}

	sources.register(cmd)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from vbind.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vbind.json)")

	return cmd
}

func runServe(p *project) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := p.loader.Template(ctx, p.cfg.TemplatePath())
	if err != nil {
		return err
	}
	// The model source is read once and every session starts from a copy.
	base, err := p.model(ctx)
	if err != nil {
		return err
	}

	store, err := openStore(p)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := live.Config{
		Template: doc,
		Mount:    p.cfg.Mount,
		Title:    p.cfg.Title,
		Model: func() (map[string]any, error) {
			return copyModel(base), nil
		},
		IgnorePrefixes: p.cfg.IgnorePrefixes,
		Store:          store,
		Sessions: session.ManagerConfig{
			ResumeWindow: p.cfg.ResumeWindow(),
			MaxDetached:  p.cfg.Session.MaxDetached,
			MaxPerIP:     p.cfg.Session.MaxPerIP,
		},
		Logger:            p.logger,
		MaxMessageSize:    p.cfg.Server.MaxMessageSize,
		ReadTimeout:       p.cfg.ReadTimeout(),
		HeartbeatInterval: p.cfg.Heartbeat(),
		TrustProxy:        p.cfg.Server.TrustProxy,
	}
	if p.cfg.Metrics.Enabled {
		cfg.Recorder = telemetry.NewPrometheus(telemetry.WithNamespace(p.cfg.Metrics.Namespace))
		cfg.Metrics = promhttp.Handler()
	}

	srv, err := live.New(cfg)
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Serving %s on %s", p.cfg.Template, p.cfg.URL())
	info("Sessions: %s store, resume window %s", p.cfg.Session.Store.Driver, p.cfg.ResumeWindow())
	if p.cfg.Metrics.Enabled {
		info("Metrics:  %s/metrics", p.cfg.URL())
	}

	if err := srv.ListenAndServe(ctx, p.cfg.Address()); err != nil {
		errorMsg("server stopped: %v", err)
		return err
	}
	return nil
}

func openStore(p *project) (session.Store, error) {
	switch p.cfg.Session.Store.Driver {
	case "bolt":
		store, err := session.OpenBoltStore(p.cfg.StorePath())
		if err != nil {
			return nil, err
		}
		if n, err := store.Sweep(time.Now()); err != nil {
			warn("could not sweep expired sessions: %v", err)
		} else if n > 0 {
			info("Dropped %d expired sessions", n)
		}
		return store, nil
	default:
		return session.NewMemoryStore(), nil
	}
}

// copyModel deep copies the plain value tree so sessions never share maps
// or slices.
func copyModel(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyModel(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
