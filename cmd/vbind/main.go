package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ╦┌┐ ┬┌┐┌┌┬┐
  ╚╗╔╝├┴┐││││ ││
   ╚╝ └─┘┴┘└┘─┴┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vbind",
		Short: "Bind HTML templates to data models",
		Long: `vbind binds an HTML template to a data model.

Directives in the markup ({{ }}, v-if, v-for, v-model, v-on, ...) are
compiled against the model. Every later change of the model updates
exactly the nodes that depend on it.

  • render a template with a model to static HTML
  • check a template for directive errors
  • serve a template live, with browser events bound to the model`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		renderCmd(),
		checkCmd(),
		serveCmd(),
		versionCmd(),
	)
	return cmd
}

// printBanner prints the vbind ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
