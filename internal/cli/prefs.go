package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/launchcache/pkg/client"
)

// prefsUpdate holds the flags of "prefs set". Nil fields keep the saved value
type prefsUpdate struct {
	Sort        *string
	Years       *[]int
	Success     *string
	ClearFilter bool
}

func (u prefsUpdate) apply(p client.LaunchPreferences) client.LaunchPreferences {
	if u.ClearFilter {
		p.Filter = client.Filter{}
	}
	if u.Sort != nil {
		p.SortOption = *u.Sort
	}
	if u.Years != nil {
		p.Filter.Years = *u.Years
	}
	if u.Success != nil {
		p.Filter.SuccessStatus = *u.Success
	}
	return p
}

func createPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Saved launch list preferences",
	}

	cmd.AddCommand(createPrefsGetCmd())
	cmd.AddCommand(createPrefsSetCmd())

	return cmd
}

func createPrefsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the saved sort and filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return getPrefs(ctx, cmd.OutOrStdout(), newClient())
		},
	}
}

func createPrefsSetCmd() *cobra.Command {
	var sortOption string
	var years []int
	var success string
	var clearFilter bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the saved sort and filter",
		Long: `Update the saved launch list preferences. Flags that are not given
keep their saved value.

EXAMPLES:
  # Newest first
  launchcache prefs set --sort date_desc

  # Only successful launches in 2022
  launchcache prefs set --year 2022 --success successful

  # Drop the filter
  launchcache prefs set --clear-filter
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u prefsUpdate
			u.ClearFilter = clearFilter
			if cmd.Flags().Changed("sort") {
				u.Sort = &sortOption
			}
			if cmd.Flags().Changed("year") {
				u.Years = &years
			}
			if cmd.Flags().Changed("success") {
				u.Success = &success
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return setPrefs(ctx, cmd.OutOrStdout(), newClient(), u)
		},
	}

	cmd.Flags().StringVar(&sortOption, "sort", "", "date_asc, date_desc, name_asc or name_desc")
	cmd.Flags().IntSliceVar(&years, "year", nil, "filter years (repeatable)")
	cmd.Flags().StringVar(&success, "success", "", "all, successful or failed")
	cmd.Flags().BoolVar(&clearFilter, "clear-filter", false, "remove the saved filter")

	return cmd
}

func getPrefs(ctx context.Context, w io.Writer, c *client.Client) error {
	prefs, err := c.GetLaunchPreferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to get preferences: %w", err)
	}
	return printPrefs(w, prefs)
}

func setPrefs(ctx context.Context, w io.Writer, c *client.Client, u prefsUpdate) error {
	current, err := c.GetLaunchPreferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to get preferences: %w", err)
	}

	saved, err := c.SetLaunchPreferences(ctx, u.apply(*current))
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return printPrefs(w, saved)
}

func printPrefs(w io.Writer, prefs *client.LaunchPreferences) error {
	return render(w, prefs, func() error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Sort:\t%s\n", prefs.SortDisplay)
		fmt.Fprintf(tw, "Filter:\t%s\n", prefs.FilterDisplay)
		return tw.Flush()
	})
}
