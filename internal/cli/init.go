package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kris-hansen/sitekit/internal/config"
)

// InitCmd returns the init command
func InitCmd(opts *Options) *cobra.Command {
	var site, terminus string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the sitekit configuration file",
		Long:  `Writes a configuration file with the default settings and creates an empty scaffold journal.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, site, terminus, force)
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "default site name")
	cmd.Flags().StringVar(&terminus, "terminus", "", "command used to invoke terminus")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, opts *Options, site, terminus string, force bool) error {
	out := cmd.OutOrStdout()
	configPath := opts.ConfigPath

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.Default()
	cfg.SiteName = site
	if terminus != "" {
		cfg.Terminus = terminus
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	statePath := config.GetStatePath()
	state, err := config.LoadState(statePath)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if err := state.Save(statePath); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	check := color.GreenString("✓")
	fmt.Fprintf(out, "%s Configuration saved to %s\n", check, configPath)
	fmt.Fprintf(out, "%s State file at %s\n", check, statePath)
	fmt.Fprintf(out, "\nRun 'sitekit lando:setup' in a project to generate its Lando configuration\n")

	return nil
}
