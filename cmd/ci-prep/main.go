package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/scufflecloud/ci-prep/internal/config"
	"github.com/scufflecloud/ci-prep/internal/lines"
	"github.com/scufflecloud/ci-prep/internal/observability"
	"github.com/scufflecloud/ci-prep/internal/vcs/git"
	"github.com/scufflecloud/ci-prep/internal/vcs/github"
	"github.com/scufflecloud/ci-prep/planner"
)

type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	std := streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv}
	var err error
	switch os.Args[1] {
	case "plan":
		err = runPlan(context.Background(), os.Args[2:], std)
	case "report":
		err = runReport(os.Args[2:], std)
	case "targets":
		err = runTargets(os.Args[2:], std)
	default:
		usage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ci-prep <plan|report|targets> [flags]")
}

// runPlan reads the Actions context from stdin and writes the job plan as a
// step output line on stdout.
func runPlan(ctx context.Context, args []string, std streams) (err error) {
	flags := pflag.NewFlagSet("plan", pflag.ContinueOnError)
	flags.SetOutput(std.stderr)
	configPath := flags.String("config", "", "Path to a YAML policy file (default $"+config.EnvConfigPath+")")
	workspace := flags.String("workspace", ".", "Checked-out workspace probed for preview outputs")
	outputKey := flags.String("output-key", "", "Step output name (overrides config)")
	metricsFile := flags.String("metrics-file", "", "Write planning metrics in Prometheus text format to this file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	if *metricsFile != "" {
		defer func() {
			if writeErr := observability.WriteTextfile(*metricsFile, registry); writeErr != nil && err == nil {
				err = fmt.Errorf("write metrics: %w", writeErr)
			}
		}()
	}

	cfg, err := config.Load(*configPath, std.getenv)
	if err != nil {
		metrics.IncFailure("config")
		return err
	}
	if *outputKey != "" {
		cfg.OutputKey = *outputKey
	}

	evt, err := github.ParseContext(std.stdin)
	if err != nil {
		metrics.IncFailure("context")
		return err
	}
	classification, err := github.Classify(evt, github.Policy{
		Repository:       cfg.Repository,
		MergeTrainPrefix: cfg.MergeTrainPrefix,
	})
	if err != nil {
		metrics.IncFailure("classify")
		return err
	}

	sha := std.getenv(cfg.CommitSHAEnv)
	if sha == "" {
		metrics.IncFailure("commit_sha")
		return fmt.Errorf("%w: %s is not set", planner.ErrMissingCommitSHA, cfg.CommitSHAEnv)
	}

	root, err := filepath.Abs(*workspace)
	if err != nil {
		return err
	}
	logger := observability.WithTrigger(observability.NewLoggerTo(std.stderr, "planner"), evt.EventName, evt.Ref)
	builder := planner.Builder{
		Catalog:   planner.NewCatalog(cfg.DefaultRunner, cfg.Runners),
		Preview:   cfg.Preview,
		Workspace: os.DirFS(root),
		Head:      git.CLI{Dir: root},
		Logger:    logger,
	}

	result, err := builder.Plan(ctx, planner.PlanRequest{Event: classification, CommitSHA: sha})
	if err != nil {
		metrics.IncFailure("plan")
		return err
	}
	if err := planner.WritePlan(std.stdout, cfg.OutputKey, result.Jobs); err != nil {
		metrics.IncFailure("emit")
		return err
	}

	metrics.IncPlan(evt.EventName)
	for _, job := range result.Jobs {
		metrics.IncJob(string(job.Job), job.Runner)
	}
	return nil
}

// runReport renders the preview deployment table from the needs context.
func runReport(args []string, std streams) error {
	flags := pflag.NewFlagSet("report", pflag.ContinueOnError)
	flags.SetOutput(std.stderr)
	needsJSON := flags.String("needs", "", "needs context as JSON (default $NEEDS_JSON, then {})")
	out := flags.String("out", "body.md", "File the markdown report is written to")
	if err := flags.Parse(args); err != nil {
		return err
	}

	data := *needsJSON
	if data == "" {
		data = std.getenv("NEEDS_JSON")
	}
	if data == "" {
		data = "{}"
	}

	needs, err := github.ParseNeeds([]byte(data))
	if err != nil {
		return err
	}
	content := github.BuildPreviewReport(needs)
	if err := os.WriteFile(*out, []byte(content), 0o644); err != nil {
		return err
	}

	fmt.Fprintln(std.stdout, "Generated comment:")
	fmt.Fprintln(std.stdout, content)
	return nil
}

// runTargets prints the lines common to two files.
func runTargets(args []string, std streams) error {
	flags := pflag.NewFlagSet("targets", pflag.ContinueOnError)
	flags.SetOutput(std.stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return errors.New("usage: ci-prep targets FILE1 FILE2")
	}

	common, err := lines.IntersectFiles(flags.Arg(0), flags.Arg(1))
	if err != nil {
		return err
	}
	for _, line := range common {
		fmt.Fprintln(std.stdout, line)
	}
	return nil
}
