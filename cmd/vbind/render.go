package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/render"
)

type renderOptions struct {
	sources       sourceFlags
	sets          []string
	pushes        []string
	output        string
	pretty        bool
	stripComments bool
	fragment      bool
}

func renderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template bound to a model",
		Long: `Render a template bound to a model and print the resulting HTML.

Mutations given with --set and --push are applied after the template is
compiled, so the output shows the view after those changes.

Examples:
  vbind render index.html --model data.yaml
  vbind render index.html --set 'title="Hello"' --push 'items={"name":"x"}'
  vbind render s3://bucket/page.html --mount app --fragment`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args, opts, cmd.OutOrStdout())
		},
	}

	opts.sources.register(cmd)
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "Set a top-level field: field=json (repeatable)")
	cmd.Flags().StringArrayVar(&opts.pushes, "push", nil, "Append to a list field: field=json (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the output")
	cmd.Flags().BoolVar(&opts.stripComments, "strip-comments", false, "Drop comments and directive anchors")
	cmd.Flags().BoolVar(&opts.fragment, "fragment", false, "Print only the mount element's content")

	return cmd
}

func runRender(ctx context.Context, args []string, opts renderOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := loadProject(args, opts.sources, nil)
	if err != nil {
		return err
	}
	doc, model, err := p.load(ctx)
	if err != nil {
		return err
	}
	root, err := p.mount(doc)
	if err != nil {
		return err
	}

	engine, err := vbind.New(root, model,
		vbind.WithLogger(p.logger),
		vbind.WithIgnorePrefixes(p.cfg.IgnorePrefixes...),
	)
	if err != nil {
		return err
	}
	if err := applyMutations(engine, opts.sets, opts.pushes); err != nil {
		return err
	}
	for _, e := range engine.Errors() {
		warn("%s", e.FormatCompact())
	}

	r := render.NewRenderer(render.RendererConfig{
		Pretty:        opts.pretty,
		StripComments: opts.stripComments,
	})
	var out string
	if opts.fragment {
		out, err = r.InnerHTML(root)
	} else {
		out, err = r.RenderToString(doc)
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(out), 0644); err != nil {
		return err
	}
	success("Wrote %s (%d bindings)", opts.output, engine.Bindings())
	return nil
}

// applyMutations applies --set assignments, then --push appends, in the
// order given.
func applyMutations(engine *vbind.Engine, sets, pushes []string) error {
	for _, s := range sets {
		field, value, err := parseAssignment(s)
		if err != nil {
			return err
		}
		if err := engine.Set(field, value); err != nil {
			return err
		}
	}
	for _, s := range pushes {
		field, value, err := parseAssignment(s)
		if err != nil {
			return err
		}
		list, ok := engine.Model().Peek(field).(*reactive.Array)
		if !ok {
			return errors.New("E301").
				WithNode(field).
				WithDetail(fmt.Sprintf("--push needs a list field, %q is not one", field))
		}
		list.Push(value)
	}
	return nil
}

// parseAssignment splits field=value. The value is decoded as JSON and
// taken as a plain string when it is not valid JSON.
func parseAssignment(s string) (string, any, error) {
	field, raw, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return "", nil, fmt.Errorf("invalid mutation %q, want field=value", s)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	return field, v, nil
}
