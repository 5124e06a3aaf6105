package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/cli/ui"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel/loader"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/multicast"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/store"
)

// ErrResolutionFailed is returned when a module reported errors
var ErrResolutionFailed = errors.New("resolution reported errors")

type resolveOptions struct {
	assemblies []string
	jsonOutput bool
	save       bool
}

// NewResolveCommand creates the resolve command
func NewResolveCommand(g *globals) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [graph]",
		Short: "Resolve the multicast annotations of a declaration graph",
		Long: `Load a declaration graph document and resolve every non-reference
assembly in reference order, printing the final bindings and diagnostics.

Resolution of an assembly sees the inheritable instances stored by the
assemblies resolved before it. The first module reporting errors stops
the run and the command exits with a non-zero status.

Examples:
  multicast resolve graph.yaml
  multicast resolve graph.yaml --assembly Shop --json
  multicast resolve --save          # graph and store from multicast.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.cfg.Graph
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no graph document given and none configured")
			}
			return runResolve(cmd, g, opts, path)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.assemblies, "assembly", "a", nil, "only resolve the named assemblies")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the runs as JSON")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the runs to the configured store")

	return cmd
}

func runResolve(cmd *cobra.Command, g *globals, opts *resolveOptions, path string) error {
	out := cmd.OutOrStdout()

	model, err := loader.Load(path)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.GraphError(err.Error(), g.noColor))
		return err
	}

	targets, err := selectAssemblies(model, opts.assemblies)
	var unknown *unknownAssemblyError
	if errors.As(err, &unknown) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.AssemblyNotFoundError(unknown.name, unknown.suggestions, g.noColor))
		return err
	}

	var st store.Store
	if opts.save {
		st, err = store.Open(cmd.Context(), g.cfg.Store)
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.StoreError(err.Error(), g.noColor))
			return err
		}
		defer st.Close()
	}

	var (
		snapshots []*store.Snapshot
		failed    bool
	)
	for _, asm := range targets {
		for _, module := range asm.Modules() {
			started := time.Now()
			res, err := multicast.New(model.Graph, module, multicast.WithLogger(g.logger)).Execute()
			var fatal *diagnostics.FatalError
			if err != nil && !errors.As(err, &fatal) {
				return err
			}

			snap := store.FromResult(res, started)
			snapshots = append(snapshots, snap)
			if st != nil {
				if err := st.SaveRun(cmd.Context(), snap); err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.StoreError(err.Error(), g.noColor))
					return err
				}
				g.logger.Info("saved run", zap.String("run_id", snap.Run.ID.String()), zap.String("module", snap.Run.Module))
			}

			if !opts.jsonOutput {
				writeSnapshot(out, snap, g.noColor)
			}
			if fatal != nil || snap.Diagnostics.HasErrors() {
				failed = true
				break
			}
		}
		if failed {
			break
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if snapshots == nil {
			snapshots = []*store.Snapshot{}
		}
		if err := enc.Encode(snapshots); err != nil {
			return fmt.Errorf("failed to encode runs: %w", err)
		}
	}

	if failed {
		return ErrResolutionFailed
	}
	if !opts.jsonOutput {
		ui.WriteSuccess(out, fmt.Sprintf("resolved %d module(s)", len(snapshots)), g.noColor)
	}
	return nil
}

type unknownAssemblyError struct {
	name        string
	suggestions []string
}

func (e *unknownAssemblyError) Error() string {
	return fmt.Sprintf("no assembly named %q in the graph", e.name)
}

// selectAssemblies restricts the resolution targets to names, keeping the
// reference order
func selectAssemblies(model *loader.Model, names []string) ([]*codemodel.Assembly, error) {
	if len(names) == 0 {
		return model.Targets, nil
	}

	var known []string
	byName := make(map[string]bool)
	for _, asm := range model.Targets {
		known = append(known, asm.Name())
		byName[asm.Name()] = true
	}
	wanted := make(map[string]bool)
	for _, n := range names {
		if !byName[n] {
			return nil, &unknownAssemblyError{name: n, suggestions: ui.FindSimilar(n, known, nil)}
		}
		wanted[n] = true
	}

	var out []*codemodel.Assembly
	for _, asm := range model.Targets {
		if wanted[asm.Name()] {
			out = append(out, asm)
		}
	}
	return out, nil
}

func writeSnapshot(w io.Writer, snap *store.Snapshot, noColor bool) {
	fmt.Fprintln(w)
	ui.Header(w, snap.Run.Module, noColor)

	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Assembly", snap.Run.Assembly)
	kv.AddRow("Run", snap.Run.ID.String())
	kv.AddRow("Bindings", strconv.Itoa(snap.Run.Bindings))
	kv.Render()
	fmt.Fprintln(w)

	if len(snap.Bindings) > 0 {
		tbl := ui.NewTable(w, noColor, "TARGET", "ANNOTATION", "PRIORITY", "STORAGE", "DECLARED ON")
		for _, b := range snap.Bindings {
			declared := b.DeclaredOn
			if b.Inherited {
				declared += " (inherited)"
			}
			tbl.AddRow(b.Target, b.Annotation, strconv.FormatInt(b.Priority, 10), b.Storage, declared)
		}
		tbl.Render()
		fmt.Fprintln(w)
	}

	ui.WriteDiagnostics(w, snap.Diagnostics, noColor)
}
