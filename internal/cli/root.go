package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/launchcache/pkg/client"
)

var (
	cfgFile      string
	server       string
	outputFormat string
)

// requestTimeout bounds every command's round trips to the server
const requestTimeout = 30 * time.Second

// Execute runs the CLI
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "launchcache",
		Short: "Browse SpaceX launches, rockets and company info",
		Long: `launchcache is a terminal client for a launchcache server.

The server keeps an offline cache of the public SpaceX dataset, so every
command keeps working when the upstream API is unreachable.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: launchcache.toml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "server URL (default from config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json or yaml (default: table on a terminal, json otherwise)")

	rootCmd.AddCommand(createLaunchesCmd())
	rootCmd.AddCommand(createLaunchCmd())
	rootCmd.AddCommand(createYearsCmd())
	rootCmd.AddCommand(createRocketsCmd())
	rootCmd.AddCommand(createRocketCmd())
	rootCmd.AddCommand(createCompanyCmd())
	rootCmd.AddCommand(createPrefsCmd())
	rootCmd.AddCommand(createStatusCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// getServer returns the server URL from flag, env or config file
func getServer() string {
	// 1. Command line flag
	if server != "" {
		return server
	}

	// 2. Environment variable
	if env := os.Getenv("LAUNCHCACHE_SERVER"); env != "" {
		return env
	}

	// 3. Project config file (TOML)
	if config := loadProjectConfigSilent(); config != nil && config.Server != "" {
		return config.Server
	}

	// 4. Default
	return "http://localhost:8080"
}

func newClient() *client.Client {
	return client.New(getServer())
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}
