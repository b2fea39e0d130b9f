package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/internal/errors"
)

func checkCmd() *cobra.Command {
	var (
		sources sourceFlags
		asJSON  bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "check [template]",
		Short: "Report directive errors in a template",
		Long: `Compile a template against its model and report every problem found.

Errors fail the command. Warnings fail it only with --strict.

Examples:
  vbind check
  vbind check index.html --model data.json --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args, sources, asJSON, strict, cmd.OutOrStdout())
		},
	}

	sources.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per problem")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func runCheck(ctx context.Context, args []string, sources sourceFlags, asJSON, strict bool, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := loadProject(args, sources, io.Discard)
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

	reporter := errors.NewReporter(p.logger, nil)
	engine, err := vbind.New(root, model,
		vbind.WithReporter(reporter),
		vbind.WithIgnorePrefixes(p.cfg.IgnorePrefixes...),
	)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	problems := engine.Errors()
	failed := 0
	for _, e := range problems {
		if asJSON {
			fmt.Fprintln(stdout, e.FormatJSON())
		} else {
			fmt.Fprint(stdout, e.Format())
		}
		if e.IsFatal() || strict {
			failed++
		}
	}

	if !asJSON {
		if len(problems) == 0 {
			success("%s: %d bindings, no problems", p.cfg.Template, engine.Bindings())
		} else {
			info("%d problems, %d bindings", len(problems), engine.Bindings())
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d problems in %s", failed, p.cfg.Template)
	}
	return nil
}
