package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/profiler"
	"github.com/dmitrymomot/profiler/pkg/dom"
	"github.com/dmitrymomot/profiler/pkg/session"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	HTMLPath string
	PageURL  string
	Referrer string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Personalize an HTML page for the stored visitor",
		Long: `Load an HTML page, run the tracking client against it as if the page
was opened at --url, and print the personalized document.

The visitor identity is read from and written to the selected store, so
consecutive runs behave like consecutive page loads of one visitor.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.HTMLPath, "html", "", "path to the HTML page (required)")
	cmd.Flags().StringVar(&opts.PageURL, "url", "", "URL the page is opened at (required)")
	cmd.Flags().StringVar(&opts.Referrer, "referrer", "", "referrer of the page view")
	_ = cmd.MarkFlagRequired("html")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	// The client is closed as soon as the page is rendered, which would
	// cancel a delayed metadata push.
	cfg.DataPointDelay = 0

	f, err := os.Open(opts.HTMLPath)
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	doc, err := dom.Parse(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	env := profiler.Environment{
		Navigation:         session.StaticNavigation{ReferrerURL: opts.Referrer, LocationURL: opts.PageURL},
		DOM:                doc,
		BackgroundDelivery: true,
	}
	h, err := openClient(ctx, rootOpts, cfg, env, opts.PageURL, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := h.Close(ctx); err != nil {
		return err
	}

	out, err := doc.HTML()
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
