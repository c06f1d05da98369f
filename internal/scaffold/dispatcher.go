// Package scaffold maps named operations to the flows that generate local
// development configuration and enable platform add-ons.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

var (
	// ErrUnknownOperation is returned for names missing from the table.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrMissingSite is returned when an operation needs a site name and none was resolved.
	ErrMissingSite = errors.New("site name is required")
)

// Request carries the caller-resolved inputs of an operation.
type Request struct {
	// Dir is the absolute project directory.
	Dir  string
	Site string
	Args []string
	// Options holds option values as plain strings, keyed without dashes.
	Options map[string]string
}

// Handler runs one operation.
type Handler func(ctx context.Context, req Request) error

// OptionSpec declares a named string option an operation accepts.
type OptionSpec struct {
	Name    string
	Default string
	Usage   string
}

// Operation is one entry of the command table.
type Operation struct {
	Name    string
	Aliases []string
	Short   string
	Long    string
	// ArgsUsage is appended to the name in help output, e.g. "<site>".
	ArgsUsage string
	MinArgs   int
	MaxArgs   int
	// SiteArg means the first positional argument is the site name.
	// Otherwise the caller resolves the site for the project directory.
	SiteArg bool
	Options []OptionSpec
	// ExtraOptions accepts arbitrary key=value options.
	ExtraOptions bool
	Handler      Handler
}

// Dispatcher resolves operation names and aliases to handlers.
type Dispatcher struct {
	ops    []*Operation
	index  map[string]*Operation
	log    zerolog.Logger
	strict bool
}

// NewDispatcher creates an empty table. When strict is false, handler
// failures are logged and Dispatch returns nil.
func NewDispatcher(log zerolog.Logger, strict bool) *Dispatcher {
	return &Dispatcher{
		index:  make(map[string]*Operation),
		log:    log,
		strict: strict,
	}
}

// Register adds op under its name and aliases.
func (d *Dispatcher) Register(op Operation) error {
	if op.Name == "" || op.Handler == nil {
		return fmt.Errorf("operation must have a name and a handler")
	}

	names := append([]string{op.Name}, op.Aliases...)
	for _, name := range names {
		if _, exists := d.index[name]; exists {
			return fmt.Errorf("operation %q already registered", name)
		}
	}

	entry := op
	for _, name := range names {
		d.index[name] = &entry
	}
	d.ops = append(d.ops, &entry)
	return nil
}

// Lookup finds an operation by name or alias.
func (d *Dispatcher) Lookup(name string) (*Operation, bool) {
	op, ok := d.index[name]
	return op, ok
}

// Operations returns the registered operations sorted by name.
func (d *Dispatcher) Operations() []*Operation {
	ops := make([]*Operation, len(d.ops))
	copy(ops, d.ops)
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Name < ops[j].Name
	})
	return ops
}

// Dispatch runs the operation called name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, req Request) error {
	op, ok := d.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	n := len(req.Args)
	if n < op.MinArgs || n > op.MaxArgs {
		return fmt.Errorf("%s accepts between %d and %d arguments, received %d", op.Name, op.MinArgs, op.MaxArgs, n)
	}
	if op.SiteArg {
		if n == 0 || req.Args[0] == "" {
			return fmt.Errorf("%s: %w", op.Name, ErrMissingSite)
		}
		req.Site = req.Args[0]
	}

	if err := op.Handler(ctx, req); err != nil {
		d.log.Error().Err(err).Str("operation", op.Name).Msg("Operation did not complete")
		if d.strict {
			return fmt.Errorf("%s: %w", op.Name, err)
		}
	}
	return nil
}
