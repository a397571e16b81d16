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

type rocketEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func createRocketsCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "rockets",
		Short: "List rocket names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return listRockets(ctx, cmd.OutOrStdout(), newClient(), refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch from the upstream API instead of the cache")

	return cmd
}

func createRocketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rocket <id>",
		Short: "Show one rocket",
		Long: `Show a rocket's specs, cost per launch and success rate.

EXAMPLES:
  launchcache rocket 5e9d0d95eda69973a809d1ec
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return showRocket(ctx, cmd.OutOrStdout(), newClient(), args[0])
		},
	}
}

func listRockets(ctx context.Context, w io.Writer, c *client.Client, refresh bool) error {
	names, err := c.GetRocketNames(ctx, nil, refresh)
	if err != nil {
		return fmt.Errorf("failed to list rockets: %w", err)
	}

	rockets := make([]rocketEntry, 0, len(names))
	for id, name := range names {
		rockets = append(rockets, rocketEntry{ID: id, Name: name})
	}
	sort.Slice(rockets, func(i, j int) bool {
		if rockets[i].Name != rockets[j].Name {
			return rockets[i].Name < rockets[j].Name
		}
		return rockets[i].ID < rockets[j].ID
	})

	return render(w, rockets, func() error {
		if len(rockets) == 0 {
			fmt.Fprintln(w, "No rockets found")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME")
		for _, r := range rockets {
			fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Name)
		}
		return tw.Flush()
	})
}

func showRocket(ctx context.Context, w io.Writer, c *client.Client, id string) error {
	rocket, err := c.GetRocket(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get rocket: %w", err)
	}

	return render(w, rocket, func() error {
		active := "no"
		if rocket.Active {
			active = "yes"
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Name:\t%s\n", rocket.Name)
		fmt.Fprintf(tw, "Active:\t%s\n", active)
		fmt.Fprintf(tw, "Cost per launch:\t%s\n", rocket.CostDisplay)
		fmt.Fprintf(tw, "Success rate:\t%s\n", rocket.SuccessRateDisplay)
		fmt.Fprintf(tw, "Wikipedia:\t%s\n", orDash(rocket.Wikipedia))
		if err := tw.Flush(); err != nil {
			return err
		}
		if rocket.Description != "" {
			fmt.Fprintf(w, "\n%s\n", rocket.Description)
		}
		return nil
	})
}
