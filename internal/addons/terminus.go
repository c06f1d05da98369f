// Package addons talks to the Pantheon platform through the Terminus CLI.
package addons

import (
	"context"
	"fmt"
	"sort"

	"github.com/kris-hansen/sitekit/internal/process"
)

// Provisioner enables site plan add-ons and creates projects.
type Provisioner interface {
	EnableRedis(ctx context.Context, site string) error
	EnableNewRelic(ctx context.Context, site string) error
	CreateProject(ctx context.Context, req ProjectRequest) error
}

// ProjectRequest holds the arguments for build:project:create.
type ProjectRequest struct {
	Source     string
	Target     string
	CITemplate string
	Keep       bool
	Visibility string
	Stability  string
	// Extra options are passed through as --key=value.
	Extra map[string]string
}

// Terminus implements Provisioner by running the terminus binary.
type Terminus struct {
	command []string
	runner  process.Runner
}

// NewTerminus creates a Terminus client. command is the argv prefix used to
// invoke terminus, e.g. ["terminus"] or ["lando", "terminus"].
func NewTerminus(command []string, runner process.Runner) *Terminus {
	return &Terminus{command: command, runner: runner}
}

// EnableRedis runs redis:enable for site.
func (t *Terminus) EnableRedis(ctx context.Context, site string) error {
	return t.run(ctx, "redis:enable", site, "--no-interaction")
}

// EnableNewRelic runs new-relic:enable for site.
func (t *Terminus) EnableNewRelic(ctx context.Context, site string) error {
	return t.run(ctx, "new-relic:enable", site, "--no-interaction")
}

// CreateProject runs build:project:create.
func (t *Terminus) CreateProject(ctx context.Context, req ProjectRequest) error {
	if req.Source == "" {
		return fmt.Errorf("project source is required")
	}

	args := []string{"build:project:create"}
	if req.CITemplate != "" {
		args = append(args, "--ci-template="+req.CITemplate)
	}
	if req.Keep {
		args = append(args, "--keep")
	}
	if req.Visibility != "" {
		args = append(args, "--visibility="+req.Visibility)
	}
	if req.Stability != "" {
		args = append(args, "--stability="+req.Stability)
	}

	keys := make([]string, 0, len(req.Extra))
	for key := range req.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value := req.Extra[key]; value != "" {
			args = append(args, fmt.Sprintf("--%s=%s", key, value))
		} else {
			args = append(args, "--"+key)
		}
	}

	args = append(args, req.Source)
	if req.Target != "" {
		args = append(args, req.Target)
	}

	return t.run(ctx, args...)
}

func (t *Terminus) run(ctx context.Context, args ...string) error {
	argv := make([]string, 0, len(t.command)+len(args))
	argv = append(argv, t.command...)
	argv = append(argv, args...)

	if err := t.runner.Run(ctx, argv); err != nil {
		return fmt.Errorf("terminus %s failed: %w", args[0], err)
	}
	return nil
}
