package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linux_metrics/internal/config"
	"linux_metrics/internal/logger"
	"linux_metrics/internal/nagios"
	"linux_metrics/internal/probe"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/snapshot"
	"linux_metrics/internal/threshold"
	"linux_metrics/pkg/profiler"
)

// run executes the CLI and returns the process exit code the monitoring
// server acts on. Anything that prevents a verdict is reported on stdout
// in the plugin error format and exits UNKNOWN.
func run(args []string, out io.Writer) int {
	code := nagios.OK.ExitCode()
	root := newRootCommand(out, &code)
	root.SetArgs(args)
	root.SetOut(out)

	if err := root.ExecuteContext(context.Background()); err != nil {
		if name, ok := strings.CutPrefix(err.Error(), `unknown command "`); ok {
			if i := strings.IndexByte(name, '"'); i >= 0 {
				fmt.Fprintf(out, "Plugin Error: Unknown command %s\n", name[:i])
				return nagios.Unknown.ExitCode()
			}
		}
		fmt.Fprintf(out, "Plugin Error: %v\n", err)
		return nagios.Unknown.ExitCode()
	}
	return code
}

// checkDef describes one probe subcommand: how its threshold arguments
// parse and which probe method it drives. entity names the positional
// argument of probes that address one device, interface or mount point.
type checkDef struct {
	name   string
	entity string
	short  string
	parse  func(warn, crit string) (*threshold.Thresholds, error)
	run    func(ctx context.Context, p *probe.Probe, entity string, t *threshold.Thresholds) (*nagios.Result, error)
}

func newRootCommand(out io.Writer, code *int) *cobra.Command {
	root := &cobra.Command{
		Use:     "linux_metrics",
		Short:   "Nagios plugin probing Linux host metrics",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildTime),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("no command given")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(root)

	tuple3 := func(warn, crit string) (*threshold.Thresholds, error) {
		return threshold.ParseTuple(warn, crit, 3)
	}
	tuple2 := func(warn, crit string) (*threshold.Thresholds, error) {
		return threshold.ParseTupleExact(warn, crit, 2)
	}

	checks := []checkDef{
		{
			name:  "cpu",
			short: "Processor utilization since the previous run",
			parse: threshold.ParseScalar,
			run: func(ctx context.Context, p *probe.Probe, _ string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.CPU(ctx, t)
			},
		},
		{
			name:  "load",
			short: "Run queue averages over one, five and fifteen minutes",
			parse: tuple3,
			run: func(ctx context.Context, p *probe.Probe, _ string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.Load(ctx, t)
			},
		},
		{
			name:  "threads",
			short: "Runnable versus existing scheduling entities",
			parse: threshold.ParseScalar,
			run: func(ctx context.Context, p *probe.Probe, _ string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.Threads(ctx, t)
			},
		},
		{
			name:  "files",
			short: "Kernel file handle usage",
			parse: threshold.ParseScalar,
			run: func(ctx context.Context, p *probe.Probe, _ string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.Files(ctx, t)
			},
		},
		{
			name:  "procs",
			short: "Process table by state and fork rate",
			parse: tuple3,
			run: func(ctx context.Context, p *probe.Probe, _ string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.Procs(ctx, t)
			},
		},
		{
			name:   "diskio",
			entity: "device",
			short:  "Block device transfer rates",
			parse:  tuple2,
			run: func(ctx context.Context, p *probe.Probe, entity string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.DiskIO(ctx, entity, t)
			},
		},
		{
			name:   "disku",
			entity: "mount_point",
			short:  "Filesystem capacity for a mount point",
			parse:  threshold.ParseScalar,
			run: func(ctx context.Context, p *probe.Probe, entity string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.DiskUsage(ctx, entity, t)
			},
		},
		{
			name:  "memory",
			short: "Physical memory usage",
			parse: threshold.ParseScalar,
			run: func(ctx context.Context, p *probe.Probe, _ string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.Memory(ctx, t)
			},
		},
		{
			name:  "swap",
			short: "Swap usage",
			parse: threshold.ParseScalar,
			run: func(ctx context.Context, p *probe.Probe, _ string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.Swap(ctx, t)
			},
		},
		{
			name:   "network",
			entity: "interface",
			short:  "Interface bandwidth and packet rates",
			parse:  tuple2,
			run: func(ctx context.Context, p *probe.Probe, entity string, t *threshold.Thresholds) (*nagios.Result, error) {
				return p.Network(ctx, entity, t)
			},
		},
	}
	for _, def := range checks {
		root.AddCommand(newCheckCommand(def, out, code))
	}
	return root
}

func newCheckCommand(def checkDef, out io.Writer, code *int) *cobra.Command {
	use := def.name + " [warn crit]"
	if def.entity != "" {
		use = fmt.Sprintf("%s <%s> [warn crit]", def.name, def.entity)
	}
	return &cobra.Command{
		Use:   use,
		Short: def.short,
		// Shapes are validated by hand so a wrong invocation still
		// produces a parseable plugin line instead of cobra usage text.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, warn, crit, hasThresholds, ok := splitCheckArgs(def.entity != "", args)
			if !ok {
				return invalidArgs(def.name, args)
			}
			var th *threshold.Thresholds
			if hasThresholds {
				var err error
				if th, err = def.parse(warn, crit); err != nil {
					return invalidArgs(def.name, args)
				}
			}

			cfg := config.NewConfig()
			if err := cfg.Load(cmd); err != nil {
				return err
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			prof := profiler.New(profiler.Config{
				CPUFile: cfg.ProfileCPUFile,
				MemFile: cfg.ProfileMemFile,
			}, log)
			if err := prof.Start(); err != nil {
				return err
			}
			defer func() {
				if err := prof.Stop(); err != nil {
					log.Error("failed to stop profiler", zap.Error(err))
				}
			}()

			store, err := snapshot.New(cfg.InterimDir)
			if err != nil {
				return err
			}
			p := probe.New(procfs.NewFS(cfg.ProcRoot), store, probe.SystemDisks{}, cfg.DevRoot, log)

			res, err := def.run(cmd.Context(), p, entity, th)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Render())
			*code = res.Severity.ExitCode()
			return nil
		},
	}
}

// splitCheckArgs picks apart the positional arguments of a check. Probes
// addressing an entity take 1 or 3 arguments, the rest 0 or 2; thresholds
// always travel as a warn and crit pair.
func splitCheckArgs(needsEntity bool, args []string) (entity, warn, crit string, hasThresholds, ok bool) {
	if needsEntity {
		switch len(args) {
		case 1:
			return args[0], "", "", false, true
		case 3:
			return args[0], args[1], args[2], true, true
		}
		return "", "", "", false, false
	}
	switch len(args) {
	case 0:
		return "", "", "", false, true
	case 2:
		return "", args[0], args[1], true, true
	}
	return "", "", "", false, false
}

// invalidArgs renders the rejection of a malformed invocation. The text is
// part of the plugin output contract, hence the unusual capitalization.
func invalidArgs(name string, args []string) error {
	return fmt.Errorf("Invalid arguments for %s: (%s)", name, strings.Join(args, " "))
}
