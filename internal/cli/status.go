package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/launchcache/pkg/client"
)

func createStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the server and its cache are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return showStatus(ctx, cmd.OutOrStdout(), newClient())
		},
	}
}

func showStatus(ctx context.Context, w io.Writer, c *client.Client) error {
	status, readyErr := c.Ready(ctx)
	if status == nil {
		return fmt.Errorf("failed to reach %s: %w", getServer(), readyErr)
	}

	if err := render(w, status, func() error {
		names := make([]string, 0, len(status.Checks))
		for name := range status.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Server:\t%s\n", status.Status)
		fmt.Fprintf(tw, "Upstream:\t%s\n", status.Upstream)
		for _, name := range names {
			fmt.Fprintf(tw, "%s:\t%s\n", name, status.Checks[name])
		}
		return tw.Flush()
	}); err != nil {
		return err
	}

	return readyErr
}
