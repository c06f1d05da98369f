package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/kris-hansen/sitekit/internal/addons"
	"github.com/kris-hansen/sitekit/internal/config"
	"github.com/kris-hansen/sitekit/internal/template"
	"github.com/kris-hansen/sitekit/internal/vcs"
)

// Scaffold describes one materialize, commit and cleanup flow.
type Scaffold struct {
	Operation     string
	Notice        string
	Template      string
	Destination   string
	CommitMessage string
	Hint          string
}

// LandoSetup generates the Lando local development environment.
var LandoSetup = Scaffold{
	Operation:     "build:lando:setup",
	Notice:        "Generating Lando local development environment configuration",
	Template:      "template.lando.yml",
	Destination:   ".lando.yml",
	CommitMessage: "Added .lando.yml local development environment configuration.",
	Hint:          `Lando configuration was generated and committed to the local repository. Start lando with "lando start"`,
}

// BehatSetup generates the Behat configuration used under Lando.
var BehatSetup = Scaffold{
	Operation:     "build:lando:behat",
	Notice:        "Generating tests/behat/behat-lando.yml for Behat configuration",
	Template:      ".ci/test/template.behat-lando.yml",
	Destination:   "tests/behat/behat-lando.yml",
	CommitMessage: "Added tests/behat/behat-lando.yml local behat testing configuration.",
	Hint:          `Behat configuration was generated and committed to the local repository. Run Behat by running "lando behat"`,
}

// Recorder commits materialized files.
type Recorder interface {
	Record(ctx context.Context, change vcs.Change) (string, error)
}

// Journal stores scaffold records per project.
type Journal interface {
	Append(project string, rec config.Record) error
}

// Deps wires a Service.
type Deps struct {
	Materializer *template.Materializer
	Recorder     Recorder
	Provisioner  addons.Provisioner
	// Journal is optional.
	Journal Journal
	Log     zerolog.Logger
	Out     io.Writer
	Config  *config.Config
}

// Service implements the scaffold operations.
type Service struct {
	materializer *template.Materializer
	recorder     Recorder
	provisioner  addons.Provisioner
	journal      Journal
	log          zerolog.Logger
	out          io.Writer
	cfg          *config.Config
	now          func() time.Time
}

// NewService creates a Service.
func NewService(deps Deps) *Service {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &Service{
		materializer: deps.Materializer,
		recorder:     deps.Recorder,
		provisioner:  deps.Provisioner,
		journal:      deps.Journal,
		log:          deps.Log,
		out:          out,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Register adds every operation to d.
func (s *Service) Register(d *Dispatcher) error {
	ops := []Operation{
		{
			Name:    LandoSetup.Operation,
			Aliases: []string{"lando:setup"},
			Short:   "Configure the Lando local development environment",
			Long:    "Generates .lando.yml from template.lando.yml, commits it to the local repository and removes the template.",
			Handler: s.scaffoldHandler(LandoSetup),
		},
		{
			Name:    BehatSetup.Operation,
			Aliases: []string{"lando:behat"},
			Short:   "Configure Lando for local Behat testing",
			Long:    "Generates tests/behat/behat-lando.yml from .ci/test/template.behat-lando.yml, commits it and removes the template.",
			Handler: s.scaffoldHandler(BehatSetup),
		},
		{
			Name:      "build:addons:enable",
			Aliases:   []string{"addons:enable"},
			Short:     "Enable Pantheon site plan add-ons",
			Long:      "Enables Redis and New Relic on a Pantheon site through Terminus.",
			ArgsUsage: "<site>",
			MinArgs:   1,
			MaxArgs:   1,
			SiteArg:   true,
			Handler:   s.EnableAddOns,
		},
		{
			Name:      "build:project:create",
			Aliases:   []string{"project:create"},
			Short:     "Create a decoupled project with the recommended defaults",
			Long:      "Runs terminus build:project:create with the recommended CI templates, a private repository, dev stability and --keep.",
			ArgsUsage: "<source> [target]",
			MinArgs:   1,
			MaxArgs:   2,
			Options: []OptionSpec{
				{Name: "ci-template", Usage: "CI template repository (the stock templates are replaced)"},
			},
			ExtraOptions: true,
			Handler:      s.CreateProject,
		},
	}

	for _, op := range ops {
		if err := d.Register(op); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) scaffoldHandler(sc Scaffold) Handler {
	return func(ctx context.Context, req Request) error {
		return s.Run(ctx, sc, req)
	}
}

// Run materializes sc for req.Site, commits the result and removes the
// template. A missing template is not an error.
func (s *Service) Run(ctx context.Context, sc Scaffold, req Request) error {
	s.log.Info().Msg(sc.Notice)

	if req.Site == "" {
		return ErrMissingSite
	}

	res, err := s.materializer.Materialize(template.Spec{
		Template:    sc.Template,
		Destination: sc.Destination,
	}, req.Site)
	if err != nil {
		return err
	}
	if !res.Materialized {
		s.log.Info().Str("template", sc.Template).Msg("Template not found, nothing to generate")
		return nil
	}

	s.log.Info().
		Str("template", sc.Template).
		Str("destination", sc.Destination).
		Int("replacements", res.Replacements).
		Msgf("%s exists, generated new %s", sc.Template, sc.Destination)
	s.checkYAML(sc.Destination)

	sha, err := s.recorder.Record(ctx, vcs.Change{
		Files:    []string{sc.Destination},
		Message:  sc.CommitMessage,
		Consumed: []string{sc.Template},
	})
	if err != nil && !errors.Is(err, vcs.ErrCleanup) {
		return fmt.Errorf("unable to commit %s to local repository: %w", sc.Destination, err)
	}

	s.appendRecord(req, sc, sha)

	if err != nil {
		return fmt.Errorf("%s was committed but %s could not be removed: %w", sc.Destination, sc.Template, err)
	}

	s.log.Info().Str("commit", sha).Msg("Committed")
	fmt.Fprintf(s.out, "%s Success! %s\n", color.GreenString("✓"), sc.Hint)
	return nil
}

// checkYAML warns when the generated file no longer parses, usually because
// the site name needed quoting.
func (s *Service) checkYAML(path string) {
	data, err := afero.ReadFile(s.materializer.Fs(), path)
	if err != nil {
		return
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.log.Warn().Err(err).Str("file", path).Msg("Generated file is not valid YAML")
	}
}

func (s *Service) appendRecord(req Request, sc Scaffold, sha string) {
	if s.journal == nil || req.Dir == "" {
		return
	}
	rec := config.Record{
		Operation:   sc.Operation,
		Site:        req.Site,
		Template:    sc.Template,
		Destination: sc.Destination,
		Commit:      sha,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.journal.Append(req.Dir, rec); err != nil {
		s.log.Warn().Err(err).Msg("Failed to update scaffold journal")
	}
}

// EnableAddOns enables Redis and then New Relic for req.Site. A failing call
// does not prevent the next one and nothing is rolled back.
func (s *Service) EnableAddOns(ctx context.Context, req Request) error {
	if req.Site == "" {
		return ErrMissingSite
	}
	s.log.Info().Str("site", req.Site).Msg("Setting up Pantheon site plan add-ons")

	var errs []error

	s.log.Info().Msg("Enabling Redis on Pantheon site.")
	if err := s.provisioner.EnableRedis(ctx, req.Site); err != nil {
		s.log.Warn().Err(err).Msg("Redis was not enabled")
		fmt.Fprintf(s.out, "%s Redis: %v\n", color.YellowString("⚠"), err)
		errs = append(errs, err)
	} else {
		fmt.Fprintf(s.out, "%s Redis enabled on %s\n", color.GreenString("✓"), req.Site)
	}

	s.log.Info().Msg("Enabling New Relic on Pantheon site.")
	if err := s.provisioner.EnableNewRelic(ctx, req.Site); err != nil {
		s.log.Warn().Err(err).Msg("New Relic was not enabled")
		fmt.Fprintf(s.out, "%s New Relic: %v\n", color.YellowString("⚠"), err)
		errs = append(errs, err)
	} else {
		fmt.Fprintf(s.out, "%s New Relic enabled on %s\n", color.GreenString("✓"), req.Site)
	}

	return errors.Join(errs...)
}
