package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kris-hansen/sitekit/internal/addons"
	"github.com/kris-hansen/sitekit/internal/config"
	"github.com/kris-hansen/sitekit/internal/logging"
	"github.com/kris-hansen/sitekit/internal/process"
	"github.com/kris-hansen/sitekit/internal/scaffold"
	"github.com/kris-hansen/sitekit/internal/template"
	"github.com/kris-hansen/sitekit/internal/vcs"
)

// Options holds the persistent flags shared by every command
type Options struct {
	ConfigPath string
	Dir        string
	LogLevel   string
	Strict     bool

	cfg *config.Config
}

// RootCmd returns the sitekit root command with every subcommand attached
func RootCmd() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           "sitekit",
		Short:         "sitekit scaffolds local development for decoupled Pantheon projects",
		Long:          `sitekit generates Lando and Behat configuration from project templates, commits it to the local repository and enables Pantheon site plan add-ons.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", config.GetConfigPath(), "path to the sitekit config file")
	flags.StringVarP(&opts.Dir, "dir", "C", "", "project directory (defaults to the current directory)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.Strict, "strict", false, "exit non-zero when an operation fails")

	rootCmd.AddCommand(InitCmd(opts))
	rootCmd.AddCommand(StatusCmd(opts))
	rootCmd.AddCommand(OperationsCmd())
	for _, cmd := range OperationCmds(opts) {
		rootCmd.AddCommand(cmd)
	}

	return rootCmd
}

func (o *Options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = o.Strict
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	o.cfg = cfg

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Output: cmd.ErrOrStderr(),
		Pretty: true,
	})

	dir := o.Dir
	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}
	o.Dir = dir

	return nil
}

// settings returns the loaded configuration, falling back to defaults when the
// command was run without the root pre-run hook.
func (o *Options) settings() *config.Config {
	if o.cfg == nil {
		return config.Default()
	}
	return o.cfg
}

// ResolveSite picks the site name: explicit flag, then config, then the
// project directory name.
func ResolveSite(flagSite, cfgSite, dir string) string {
	if flagSite != "" {
		return flagSite
	}
	if cfgSite != "" {
		return cfgSite
	}
	return filepath.Base(dir)
}

// dispatcher wires a dispatcher for the project directory.
func (o *Options) dispatcher(cmd *cobra.Command) (*scaffold.Dispatcher, error) {
	cfg := o.settings()

	terminus, err := process.ParseCommand(cfg.Terminus)
	if err != nil {
		return nil, err
	}

	materializer := template.NewProjectMaterializer(o.Dir)
	svc := scaffold.NewService(scaffold.Deps{
		Materializer: materializer,
		Recorder:     vcs.NewRecorder(vcs.NewGit(o.Dir), materializer),
		Provisioner:  addons.NewTerminus(terminus, process.NewPassthrough(o.Dir)),
		Journal:      config.NewJournal(config.GetStatePath()),
		Log:          logging.Logger,
		Out:          cmd.OutOrStdout(),
		Config:       cfg,
	})

	d := scaffold.NewDispatcher(logging.Logger, cfg.Strict)
	if err := svc.Register(d); err != nil {
		return nil, err
	}
	return d, nil
}
