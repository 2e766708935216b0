package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/profiler"
	"github.com/dmitrymomot/profiler/pkg/metadata"
	"github.com/dmitrymomot/profiler/pkg/session"
)

// PushResult is printed after a push.
type PushResult struct {
	Ref       string `json:"ref,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Pushed    int    `json:"pushed"`
}

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	var pageURL string

	cmd := &cobra.Command{
		Use:   "push <name[:weight],...>",
		Short: "Push interest data points for the stored visitor",
		Long: `Push a comma separated list of interests, using the same syntax as
the profiler:interests meta tag, and print the resulting visitor identity.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, rootOpts, args[0], pageURL)
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "page URL the data points are pushed from")

	return cmd
}

func runPush(cmd *cobra.Command, rootOpts *RootOptions, list, pageURL string) error {
	ctx := cmd.Context()

	dps := metadata.Parse(list)
	if len(dps) == 0 {
		return fmt.Errorf("no valid data points in %q", list)
	}

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	cfg.TrackPageViews = false

	env := profiler.Environment{}
	if pageURL != "" {
		env.Navigation = session.StaticNavigation{LocationURL: pageURL}
	}
	h, err := openClient(ctx, rootOpts, cfg, env, pageURL, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	h.client.PushDataPoints(ctx, dps...)
	res := PushResult{Ref: h.client.Ref(), SessionID: h.client.SessionID(), Pushed: len(dps)}
	if err := h.Close(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return json.NewEncoder(out).Encode(res)
	}
	if res.Ref == "" {
		_, err = fmt.Fprintf(out, "pushed %d data point(s), visitor unknown\n", res.Pushed)
		return err
	}
	_, err = fmt.Fprintf(out, "pushed %d data point(s) for visitor %s\n", res.Pushed, res.Ref)
	return err
}
