package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/launchcache/pkg/client"
)

func createCompanyCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "company",
		Short: "Show SpaceX company info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return showCompany(ctx, cmd.OutOrStdout(), newClient(), refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch from the upstream API instead of the cache")

	return cmd
}

func showCompany(ctx context.Context, w io.Writer, c *client.Client, refresh bool) error {
	company, err := c.GetCompany(ctx, refresh)
	if err != nil {
		return fmt.Errorf("failed to get company info: %w", err)
	}

	return render(w, company, func() error {
		fmt.Fprintln(w, company.Description)
		fmt.Fprintln(w)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Headquarters:\t%s, %s, %s\n", company.Headquarters.Address, company.Headquarters.City, company.Headquarters.State)
		fmt.Fprintf(tw, "CEO:\t%s\n", company.CEO)
		fmt.Fprintf(tw, "Website:\t%s\n", orDash(company.Links.Website))
		fmt.Fprintf(tw, "Twitter:\t%s\n", orDash(company.Links.Twitter))
		if err := tw.Flush(); err != nil {
			return err
		}

		if company.Summary != "" {
			fmt.Fprintf(w, "\n%s\n", company.Summary)
		}
		return nil
	})
}
