package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// projectConfigFiles is the search order for project config files
var projectConfigFiles = []string{"launchcache.toml", ".launchcache.toml"}

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	Server   string `toml:"server"`
	PageSize int    `toml:"page_size,omitempty"`
	Sort     string `toml:"sort,omitempty"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var serverURL string
	var pageSize int
	var sort string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a launchcache.toml configuration file in the current directory.

EXAMPLES:
  # Create config with default server
  launchcache config init

  # Create config for a specific server with 50 launches per page
  launchcache config init --server https://launches.example.com --page-size 50

  # Overwrite existing config
  launchcache config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), "launchcache.toml", serverURL, pageSize, sort, force)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "server URL")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "launches per page")
	cmd.Flags().StringVar(&sort, "sort", "date_desc", "default sort: date_asc, date_desc, name_asc or name_desc")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		Long: `Display the configuration sources and the effective settings.

EXAMPLES:
  launchcache config show
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func runConfigInit(w io.Writer, configPath, serverURL string, pageSize int, sort string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}
	if pageSize < 1 || pageSize > 100 {
		return fmt.Errorf("page size must be between 1 and 100, got %d", pageSize)
	}
	if !validSort(sort) {
		return fmt.Errorf("unknown sort %q", sort)
	}

	content := fmt.Sprintf(`# launchcache client configuration

server = %q

# Launches per page (1-100)
page_size = %d

# date_asc, date_desc, name_asc or name_desc
sort = %q
`, serverURL, pageSize, sort)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(w, "Created %s\n", configPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Server:    %s\n", serverURL)
	fmt.Fprintf(w, "  Page size: %d\n", pageSize)
	fmt.Fprintf(w, "  Sort:      %s\n", sort)

	return nil
}

func runConfigShow(w io.Writer) error {
	fmt.Fprintln(w, "Configuration sources (in order of precedence):")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "1. Command line flags")
	fmt.Fprintln(w, "   --server, --config, --output")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "2. Environment variables")
	if env := os.Getenv("LAUNCHCACHE_SERVER"); env != "" {
		fmt.Fprintf(w, "   LAUNCHCACHE_SERVER=%s\n", env)
	} else {
		fmt.Fprintln(w, "   LAUNCHCACHE_SERVER=(not set)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "3. Project config (launchcache.toml)")
	projectConfig, configPath, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "   (not found)")
		} else {
			fmt.Fprintf(w, "   Error: %v\n", err)
		}
	} else {
		fmt.Fprintf(w, "   Loaded from: %s\n", configPath)
		if projectConfig.Server != "" {
			fmt.Fprintf(w, "   server: %s\n", projectConfig.Server)
		}
		if projectConfig.PageSize != 0 {
			fmt.Fprintf(w, "   page_size: %d\n", projectConfig.PageSize)
		}
		if projectConfig.Sort != "" {
			fmt.Fprintf(w, "   sort: %s\n", projectConfig.Sort)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Effective configuration:")
	fmt.Fprintf(w, "   Server: %s\n", getServer())

	return nil
}

func validSort(s string) bool {
	switch s {
	case "date_asc", "date_desc", "name_asc", "name_desc":
		return true
	}
	return false
}

// loadProjectConfig loads the project config from the first matching config file.
// Returns the config, the path it was loaded from, and an error
func loadProjectConfig() (*ProjectConfig, string, error) {
	if cfgFile != "" {
		config, err := loadProjectConfigFromPath(cfgFile)
		if err != nil {
			return nil, cfgFile, err
		}
		return config, cfgFile, nil
	}

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil {
			config, err := loadProjectConfigFromPath(name)
			if err != nil {
				return nil, name, err
			}
			return config, name, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func loadProjectConfigFromPath(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ProjectConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	return &config, nil
}

// loadProjectConfigSilent returns nil when no config file exists and
// warns on stderr when one exists but does not parse
func loadProjectConfigSilent() *ProjectConfig {
	config, _, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		return nil
	}
	return config
}
