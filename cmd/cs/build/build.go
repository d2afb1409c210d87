// Package buildcmder provides the build command: evaluate staleness
// and run the stale steps of the pipeline in dependency order.
package buildcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/cliui"
	"github.com/composable-science/cli/pkg/config"
	"github.com/composable-science/cli/pkg/logger"
	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/project"
)

const buildLongDesc string = `Build the pipeline declared in csf.toml.

Evaluates which steps are stale (outputs missing or older than inputs,
or downstream of a stale step) and runs them in dependency order.
Up-to-date steps are skipped. Passing a step name restricts the build
to that step and its upstream closure.

Exit codes:
  0   everything up to date or built successfully
  64  no csf.toml found, or the manifest is invalid
  65  --check found stale steps
  66  a step command failed or did not create its declared outputs
  69  a step's input pattern matched no files at execution time

Examples:
  cs build
  cs build figures
  cs build --force
  cs build --check
  cs build --watch`

const buildShortDesc string = "Build the stale steps of the pipeline"

type buildOptions struct {
	target  string
	force   bool
	check   bool
	watch   bool
	workers uint
	debug   bool
	json    bool
}

func NewBuildCmd() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build [<step>]",
		Short: buildShortDesc,
		Long:  buildLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.target = args[0]
			}
			opts.debug, _ = cmd.Flags().GetBool("debug")
			opts.json, _ = cmd.Flags().GetBool("json")
			configDir, _ := cmd.Flags().GetString("config-dir")

			return runBuild(cmd.Context(), opts, configDir)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Rebuild every step in the closure, fresh or not")
	cmd.Flags().BoolVarP(&opts.check, "check", "c", false, "Report staleness without running anything (exit 65 when stale)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Rebuild whenever an input file changes")
	cmd.Flags().UintVar(&opts.workers, "workers", 0, "Concurrent step limit (defaults to build.workers config)")

	return cmd
}

func runBuild(ctx context.Context, opts *buildOptions, configDir string) error {
	log := logger.New(
		logger.WithDebug(opts.debug),
		logger.WithJSON(opts.json),
		logger.WithPretty(!opts.json),
	)

	// Missing manifest, invalid manifest, and graph configuration
	// errors are all usage failures, fatal before any execution.
	proj, err := project.Load("")
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	for _, warning := range proj.InputWarnings() {
		log.Warn("input not produced by any step and not on disk",
			"step", warning.Step, "pattern", string(warning.Pattern))
	}

	workers := opts.workers
	if workers == 0 {
		v, err := config.InitViper(configDir)
		if err != nil {
			return err
		}
		workers = v.GetUint("build.workers")
	}

	if opts.check {
		return runCheck(proj, opts.target)
	}

	build := func(ctx context.Context) error {
		return runOnce(ctx, proj, opts, workers, log)
	}

	if opts.watch {
		// Watch sessions also journal to .csf/build.log as JSON, so a
		// long-running watch leaves an inspectable record.
		if logFile, ferr := openWatchLog(proj); ferr != nil {
			log.Warn("watch log unavailable", "error", ferr)
		} else {
			defer logFile.Close()
			log = logger.Multi(log, logger.New(
				logger.WithDebug(opts.debug),
				logger.WithJSON(true),
				logger.WithWriter(logFile),
			))
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, proj, build, log)
	}

	return build(ctx)
}

// openWatchLog opens .csf/build.log for appending.
func openWatchLog(proj *project.Project) (*os.File, error) {
	target, err := proj.Target()
	if err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(target, "build.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// runCheck reports staleness without executing anything.
func runCheck(proj *project.Project, target string) error {
	executor, err := pipeline.NewExecutor(&pipeline.ExecutorConfig{
		Graph:    proj.Graph,
		Runner:   &pipeline.ShellRunner{Dir: proj.Root},
		Resolver: proj.Resolver,
	})
	if err != nil {
		return err
	}

	selected, statuses, err := executor.Plan(target, false)
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	for _, name := range proj.Graph.Order() {
		if status, ok := statuses[name]; ok {
			fmt.Printf("  %s %s\n", statusMark(status), cliui.NameStyle.Render(name))
		}
	}

	if len(selected) > 0 {
		return pipeline.Exit(pipeline.ExitStale,
			fmt.Errorf("%d step(s) stale or missing", len(selected)))
	}

	fmt.Printf("\n  %s pipeline up to date\n", cliui.SuccessMark)
	return nil
}

// runOnce performs a single build pass and renders the outcomes.
func runOnce(ctx context.Context, proj *project.Project, opts *buildOptions, workers uint, log *slog.Logger) error {
	outputsDir, err := proj.OutputsDir()
	if err != nil {
		return err
	}

	executor, err := pipeline.NewExecutor(&pipeline.ExecutorConfig{
		Graph: proj.Graph,
		Runner: &pipeline.ShellRunner{
			Dir:           proj.Root,
			BaseEnv:       proj.Manifest.Build.Env,
			ProvenanceDir: outputsDir,
		},
		Resolver: proj.Resolver,
		Workers:  workers,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	result, err := executor.Run(ctx, opts.target, opts.force)
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	renderResult(result)

	if code := result.ExitCode(); code != pipeline.ExitOK {
		outcome, _ := result.Outcome(result.Failed)
		reason := outcome.Err
		if reason == "" {
			reason = fmt.Sprintf("command exited %d", outcome.ExitCode)
		}
		if code == pipeline.ExitOrderViolation {
			reason += " (fix the input pattern, or add a step that produces it)"
		}
		return pipeline.Exit(code, fmt.Errorf("step %q failed: %s", result.Failed, reason))
	}
	return nil
}

func renderResult(result *pipeline.BuildResult) {
	ran := 0
	for _, outcome := range result.Outcomes {
		switch {
		case outcome.Ran:
			ran++
			mark := cliui.SuccessMark
			if outcome.Status == pipeline.StatusFailed {
				mark = cliui.FailMark
			}
			fmt.Printf("  %s %s %s\n", mark,
				cliui.NameStyle.Render(outcome.Step),
				cliui.StepStyle.Render("("+cliui.FormatDuration(outcome.Duration)+")"))
			if outcome.Status == pipeline.StatusFailed && outcome.Stderr != "" {
				fmt.Printf("%s\n", cliui.DimStyle.Render(outcome.Stderr))
			}
		case outcome.Skipped:
			fmt.Printf("  %s %s\n", cliui.DimStyle.Render("-"),
				cliui.DimStyle.Render(outcome.Step+" (skipped)"))
		default:
			fmt.Printf("  %s %s\n", cliui.DimStyle.Render("●"),
				cliui.DimStyle.Render(outcome.Step+" (up to date)"))
		}
	}

	if result.Ok() {
		if ran == 0 {
			fmt.Printf("\n  %s nothing to do\n", cliui.SuccessMark)
		} else {
			fmt.Printf("\n  %s built %d step(s)\n", cliui.SuccessMark, ran)
		}
	}
}

func statusMark(status pipeline.StepStatus) string {
	switch status {
	case pipeline.StatusUpToDate:
		return cliui.FreshStyle.Render("●")
	case pipeline.StatusStale:
		return cliui.StaleStyle.Render("●")
	default:
		return cliui.MissingStyle.Render("●")
	}
}
