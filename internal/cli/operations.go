package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kris-hansen/sitekit/internal/logging"
	"github.com/kris-hansen/sitekit/internal/scaffold"
)

// operationTable returns the registered operations. Handlers are bound to
// an unwired service and are never invoked from here.
func operationTable() []*scaffold.Operation {
	d := scaffold.NewDispatcher(logging.Nop(), false)
	if err := scaffold.NewService(scaffold.Deps{}).Register(d); err != nil {
		panic(err)
	}
	return d.Operations()
}

// OperationCmds returns one command per dispatcher operation
func OperationCmds(opts *Options) []*cobra.Command {
	ops := operationTable()
	cmds := make([]*cobra.Command, 0, len(ops))
	for _, op := range ops {
		cmds = append(cmds, operationCmd(opts, op))
	}
	return cmds
}

func operationCmd(opts *Options, op *scaffold.Operation) *cobra.Command {
	var site string
	var extra map[string]string
	values := make(map[string]*string, len(op.Options))

	use := op.Name
	if op.ArgsUsage != "" {
		use += " " + op.ArgsUsage
	}

	cmd := &cobra.Command{
		Use:     use,
		Aliases: op.Aliases,
		Short:   op.Short,
		Long:    op.Long,
		Args:    cobra.RangeArgs(op.MinArgs, op.MaxArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.dispatcher(cmd)
			if err != nil {
				return err
			}

			req := scaffold.Request{
				Dir:     opts.Dir,
				Args:    args,
				Options: make(map[string]string),
			}
			if !op.SiteArg {
				req.Site = ResolveSite(site, opts.settings().SiteName, opts.Dir)
			}
			for key, value := range extra {
				req.Options[key] = value
			}
			for name, value := range values {
				if *value != "" {
					req.Options[name] = *value
				}
			}

			return d.Dispatch(cmd.Context(), op.Name, req)
		},
	}

	if !op.SiteArg {
		cmd.Flags().StringVar(&site, "site", "", "site name (defaults to config site_name, then the project directory name)")
	}
	bindOptions(cmd.Flags(), op, values, &extra)

	return cmd
}

func bindOptions(flags *pflag.FlagSet, op *scaffold.Operation, values map[string]*string, extra *map[string]string) {
	for _, spec := range op.Options {
		values[spec.Name] = flags.String(spec.Name, spec.Default, spec.Usage)
	}
	if op.ExtraOptions {
		flags.StringToStringVarP(extra, "option", "o", map[string]string{}, "additional options passed through as --key=value")
	}
}

// OperationsCmd returns the operations command
func OperationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List available operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s %-18s %s\n", "OPERATION", "ALIASES", "DESCRIPTION")
			fmt.Fprintln(out, strings.Repeat("-", 80))
			for _, op := range operationTable() {
				fmt.Fprintf(out, "%-24s %-18s %s\n", op.Name, strings.Join(op.Aliases, ","), op.Short)
			}
			return nil
		},
	}
}
