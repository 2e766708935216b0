package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Organization string
	BaseURL      string
	Store        string // "memory" | "redis" | "sqlite"
	SQLitePath   string
	Origin       string
	LogLevel     string
	Format       string // "json" | "text"
}

// ValidStores defines the allowed identity store backends.
var ValidStores = []string{"memory", "redis", "sqlite"}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the profiler CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "profiler",
		Short: "Visitor identity and personalization client",
		Long: `Run the profiler tracking client from the command line.

Settings come from PROFILER_* environment variables (and .env) unless
--org and --base-url are given.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidStores, opts.Store) {
				return fmt.Errorf("invalid store %q: must be one of %v", opts.Store, ValidStores)
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Organization, "org", "", "organization identifier")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "tracking service base URL")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "memory", "identity store (memory|redis|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite", "profiler.db", "sqlite database path for --store sqlite")
	cmd.PersistentFlags().StringVar(&opts.Origin, "origin", "", "origin the identity is scoped to (defaults to the page host)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))

	return cmd
}
