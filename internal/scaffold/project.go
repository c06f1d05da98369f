package scaffold

import (
	"context"
	"strings"

	"github.com/kris-hansen/sitekit/internal/addons"
)

// Options managed by ProjectDefaults; anything else passes through.
var managedProjectOptions = map[string]bool{
	"ci-template": true,
	"keep":        true,
	"visibility":  true,
	"stability":   true,
}

// ProjectDefaults builds the project create request. The stock CI templates
// are swapped for ciTemplate, and keep, visibility and stability are forced.
func ProjectDefaults(source, target string, options map[string]string, upstream, ciTemplate string) addons.ProjectRequest {
	ci := options["ci-template"]
	if ci == "" || (upstream != "" && strings.Contains(ci, upstream)) {
		ci = ciTemplate
	}

	extra := make(map[string]string)
	for key, value := range options {
		if managedProjectOptions[key] {
			continue
		}
		extra[key] = value
	}

	return addons.ProjectRequest{
		Source:     source,
		Target:     target,
		CITemplate: ci,
		Keep:       true,
		Visibility: "private",
		Stability:  "dev",
		Extra:      extra,
	}
}

// CreateProject runs terminus build:project:create with ProjectDefaults applied.
func (s *Service) CreateProject(ctx context.Context, req Request) error {
	var target string
	if len(req.Args) > 1 {
		target = req.Args[1]
	}
	source := ""
	if len(req.Args) > 0 {
		source = req.Args[0]
	}

	pr := ProjectDefaults(source, target, req.Options, s.cfg.UpstreamCITemplate, s.cfg.CITemplate)
	s.log.Info().
		Str("source", pr.Source).
		Str("ci_template", pr.CITemplate).
		Msg("Creating project with recommended defaults")

	return s.provisioner.CreateProject(ctx, pr)
}
