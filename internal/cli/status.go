package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kris-hansen/sitekit/internal/config"
	"github.com/kris-hansen/sitekit/internal/scaffold"
	"github.com/kris-hansen/sitekit/internal/template"
	"github.com/kris-hansen/sitekit/internal/vcs"
)

// StatusCmd returns the status command
func StatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scaffold status for the project",
		Long:  `Displays which templates are still pending, which configuration files have been generated and the scaffolds recorded for this project.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}
}

func runStatus(cmd *cobra.Command, opts *Options) error {
	out := cmd.OutOrStdout()
	cfg := opts.settings()
	git := vcs.NewGit(opts.Dir)
	materializer := template.NewProjectMaterializer(opts.Dir)

	fmt.Fprintln(out, "Sitekit Status")
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Project: %s\n", opts.Dir)
	fmt.Fprintf(out, "Site:    %s\n", ResolveSite("", cfg.SiteName, opts.Dir))
	if git.IsRepo(cmd.Context()) {
		fmt.Fprintf(out, "Git:     %s\n", color.GreenString("✓ repository"))
	} else {
		fmt.Fprintf(out, "Git:     %s\n", color.YellowString("⚠ not a git repository"))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%-20s %-36s %-30s %s\n", "OPERATION", "TEMPLATE", "GENERATED", "STATUS")
	fmt.Fprintln(out, strings.Repeat("-", 80))

	for _, sc := range []scaffold.Scaffold{scaffold.LandoSetup, scaffold.BehatSetup} {
		pending := materializer.Exists(sc.Template)
		generated := materializer.Exists(sc.Destination)

		status := "-"
		switch {
		case pending && generated:
			status = color.YellowString("⚠ template not consumed")
		case pending:
			status = "pending"
		case generated:
			status = color.GreenString("✓ generated")
		}

		fmt.Fprintf(out, "%-20s %-36s %-30s %s\n", sc.Operation, sc.Template, sc.Destination, status)
	}

	journal := config.NewJournal(config.GetStatePath())
	records, err := journal.Records(opts.Dir)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "History")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	if len(records) == 0 {
		fmt.Fprintln(out, "No scaffolds recorded")
		return nil
	}

	for _, rec := range records {
		commit := rec.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Fprintf(out, "%-20s %-30s %-10s %-10s %s\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Destination, rec.Site, commit, rec.Operation)
	}

	return nil
}
