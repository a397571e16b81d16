package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/launchcache/pkg/client"
)

// unknownRocket is shown for rocket ids the server could not resolve
const unknownRocket = "Unknown Rocket"

// launchRow is a launch with its resolved rocket name
type launchRow struct {
	client.Launch
	RocketName string `json:"rocketName"`
}

type launchList struct {
	Launches    []launchRow `json:"launches"`
	TotalCount  int         `json:"totalCount"`
	CurrentPage int         `json:"currentPage"`
	TotalPages  int         `json:"totalPages"`
	HasNextPage bool        `json:"hasNextPage"`
	Sort        string      `json:"sort"`
	Filter      string      `json:"filter"`
}

type launchDetail struct {
	client.LaunchDetail
	RocketName string `json:"rocketName"`
}

func createLaunchesCmd() *cobra.Command {
	var opts client.ListLaunchesOptions

	cmd := &cobra.Command{
		Use:   "launches",
		Short: "List launches",
		Long: `List one page of launches with their rocket names and status.

Without --sort or --limit the defaults come from launchcache.toml.

EXAMPLES:
  # First page, newest first
  launchcache launches --sort date_desc

  # Successful launches of 2020 and 2021
  launchcache launches --year 2020 --year 2021 --success successful

  # Bypass the cache
  launchcache launches --refresh
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg := loadProjectConfigSilent(); cfg != nil {
				if !cmd.Flags().Changed("limit") && cfg.PageSize > 0 {
					opts.Limit = cfg.PageSize
				}
				if !cmd.Flags().Changed("sort") && cfg.Sort != "" {
					opts.Sort = cfg.Sort
				}
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return listLaunches(ctx, cmd.OutOrStdout(), newClient(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "launches per page (default from server)")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "sort: date_asc, date_desc, name_asc or name_desc")
	cmd.Flags().IntSliceVar(&opts.Years, "year", nil, "only launches in these years (repeatable)")
	cmd.Flags().StringVar(&opts.Success, "success", "", "all, successful or failed")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "fetch from the upstream API instead of the cache")

	return cmd
}

func createLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch <id>",
		Short: "Show one cached launch",
		Long: `Show the details of a launch that is already in the server's cache.

EXAMPLES:
  launchcache launch 5eb87cd9ffd86e000604b32a
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return showLaunch(ctx, cmd.OutOrStdout(), newClient(), args[0])
		},
	}
}

func createYearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the years with launches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return listYears(ctx, cmd.OutOrStdout(), newClient())
		},
	}
}

func listLaunches(ctx context.Context, w io.Writer, c *client.Client, opts client.ListLaunchesOptions) error {
	page, err := c.ListLaunches(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list launches: %w", err)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, l := range page.Launches {
		if l.RocketID != "" && !seen[l.RocketID] {
			seen[l.RocketID] = true
			ids = append(ids, l.RocketID)
		}
	}
	names := resolveRocketNames(ctx, c, ids)

	out := launchList{
		Launches:    make([]launchRow, len(page.Launches)),
		TotalCount:  page.TotalCount,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		HasNextPage: page.HasNextPage,
		Sort:        page.Sort,
		Filter:      page.Filter,
	}
	for i, l := range page.Launches {
		out.Launches[i] = launchRow{Launch: l, RocketName: rocketName(names, l.RocketID)}
	}

	return render(w, out, func() error {
		if len(out.Launches) == 0 {
			fmt.Fprintln(w, "No launches found")
			fmt.Fprintf(w, "Filter: %s\n", out.Filter)
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FLIGHT\tNAME\tDATE\tROCKET\tSTATUS")
		for _, l := range out.Launches {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.FlightNumber, l.Name, formatDate(l.DateUTC), l.RocketName, statusLabel(l.Status))
		}
		tw.Flush()

		fmt.Fprintf(w, "\nPage %d of %d (%d launches) • %s\n", out.CurrentPage, out.TotalPages, out.TotalCount, out.Filter)
		if out.HasNextPage {
			fmt.Fprintf(w, "Next: --page %d\n", out.CurrentPage+1)
		}
		return nil
	})
}

func showLaunch(ctx context.Context, w io.Writer, c *client.Client, id string) error {
	launch, err := c.GetLaunch(ctx, id)
	if err != nil {
		if client.IsCode(err, "NOT_FOUND") {
			return fmt.Errorf("launch %s is not cached yet; list launches first", id)
		}
		return fmt.Errorf("failed to get launch: %w", err)
	}

	var ids []string
	if launch.RocketID != "" {
		ids = []string{launch.RocketID}
	}
	out := launchDetail{
		LaunchDetail: *launch,
		RocketName:   rocketName(resolveRocketNames(ctx, c, ids), launch.RocketID),
	}

	return render(w, out, func() error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Name:\t%s\n", out.Name)
		fmt.Fprintf(tw, "Flight:\t%d\n", out.FlightNumber)
		fmt.Fprintf(tw, "Date:\t%s\n", formatDate(out.DateUTC))
		fmt.Fprintf(tw, "Rocket:\t%s\n", out.RocketName)
		fmt.Fprintf(tw, "Status:\t%s\n", statusLabel(out.Status))
		if out.Upcoming {
			fmt.Fprintf(tw, "Days until:\t%d\n", out.DaysUntil)
		} else {
			fmt.Fprintf(tw, "Days since:\t%d\n", out.DaysSince)
		}
		if out.Details != nil {
			fmt.Fprintf(tw, "Details:\t%s\n", *out.Details)
		}
		for _, link := range []struct {
			label string
			url   *string
		}{
			{"Webcast", out.Links.Webcast},
			{"Wikipedia", out.Links.Wikipedia},
			{"Article", out.Links.Article},
		} {
			if link.url != nil {
				fmt.Fprintf(tw, "%s:\t%s\n", link.label, *link.url)
			}
		}
		return tw.Flush()
	})
}

func listYears(ctx context.Context, w io.Writer, c *client.Client) error {
	years, err := c.GetLaunchYears(ctx)
	if err != nil {
		return fmt.Errorf("failed to list years: %w", err)
	}

	return render(w, map[string][]int{"years": years}, func() error {
		if len(years) == 0 {
			fmt.Fprintln(w, "No launch years available")
			return nil
		}
		for _, y := range years {
			fmt.Fprintln(w, y)
		}
		return nil
	})
}

// resolveRocketNames looks up names for ids. A failed lookup leaves every
// launch with the unknown placeholder rather than failing the command
func resolveRocketNames(ctx context.Context, c *client.Client, ids []string) map[string]string {
	if len(ids) == 0 {
		return nil
	}
	names, err := c.GetRocketNames(ctx, ids, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not resolve rocket names: %v\n", err)
		return nil
	}
	return names
}

func rocketName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return unknownRocket
}
