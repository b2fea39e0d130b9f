package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/config"
	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/source"
)

// sourceFlags are shared by the commands that read a template.
type sourceFlags struct {
	model  string
	mount  string
	config string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model file, JSON or YAML (default from vbind.json)")
	cmd.Flags().StringVar(&f.mount, "mount", "", "Id of the element to bind (default: body)")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "Path to vbind.json")
}

// project is a loaded configuration with its source loader and logger.
type project struct {
	cfg    *config.Config
	loader *source.Loader
	logger *slog.Logger
}

// loadProject resolves the configuration. A template argument makes
// vbind.json optional; otherwise it is looked up from the working
// directory. Flags override the file.
func loadProject(args []string, flags sourceFlags, logOut io.Writer) (*project, error) {
	var cfg *config.Config
	var err error
	switch {
	case flags.config != "":
		cfg, err = config.LoadFile(flags.config)
	case len(args) > 0:
		cfg = config.New()
	default:
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Template = fromWorkingDir(args[0])
	}
	if flags.model != "" {
		cfg.Model = fromWorkingDir(flags.model)
	}
	if flags.mount != "" {
		cfg.Mount = flags.mount
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log, logOut)
	opts := []source.Option{source.WithLogger(logger)}
	if cfg.UsesS3() {
		opts = append(opts, source.WithS3(source.NewS3Client(source.S3Config{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})))
	}
	return &project{cfg: cfg, loader: source.New(opts...), logger: logger}, nil
}

// load reads the template and the model. The model is empty when none is
// configured.
func (p *project) load(ctx context.Context) (*html.Node, map[string]any, error) {
	doc, err := p.loader.Template(ctx, p.cfg.TemplatePath())
	if err != nil {
		return nil, nil, err
	}
	model, err := p.model(ctx)
	if err != nil {
		return nil, nil, err
	}
	return doc, model, nil
}

func (p *project) model(ctx context.Context) (map[string]any, error) {
	if p.cfg.Model == "" {
		return map[string]any{}, nil
	}
	return p.loader.Model(ctx, p.cfg.ModelPath())
}

// mount returns the configured mount element of doc.
func (p *project) mount(doc *html.Node) (*html.Node, error) {
	if p.cfg.Mount != "" {
		if n := dom.FindByID(doc, p.cfg.Mount); n != nil {
			return n, nil
		}
		return nil, errors.New("E420").WithNode("#" + p.cfg.Mount)
	}
	var body *html.Node
	dom.Walk(doc, func(n *html.Node) bool {
		if body == nil && n.Type == html.ElementNode && n.Data == "body" {
			body = n
		}
		return body == nil
	})
	if body == nil {
		return nil, errors.New("E420").WithNode("body")
	}
	return body, nil
}

// fromWorkingDir makes a local path given on the command line absolute, so
// it is not resolved against the config directory.
func fromWorkingDir(loc string) string {
	if strings.Contains(loc, "://") || filepath.IsAbs(loc) {
		return loc
	}
	if abs, err := filepath.Abs(loc); err == nil {
		return abs
	}
	return loc
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
