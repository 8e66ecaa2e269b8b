package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scufflecloud/ci-prep/internal/vcs/github"
	"github.com/scufflecloud/ci-prep/protocol"
)

var (
	docsSecrets     = []string{"CF_DOCS_API_KEY", "CF_DOCS_ACCOUNT_ID"}
	coverageSecrets = []string{"CODECOV_TOKEN"}
)

const (
	clippyTools  = "cargo-nextest,cargo-llvm-cov,cargo-hakari,just"
	testTools    = "cargo-nextest,cargo-llvm-cov,cargo-hakari"
	grindTools   = "cargo-nextest,cargo-hakari"
	valgrindArgs = "valgrind --error-exitcode=1 --leak-check=full --gen-suppressions=all --suppressions=$(pwd)/valgrind_suppressions.log"
)

// grindTargets lists the platforms valgrind supports, keyed to the cargo
// target triple used in the runner override variable.
var grindTargets = []struct {
	platform Platform
	triple   string
}{
	{LinuxX86_64, "X86_64_UNKNOWN_LINUX_GNU"},
	{LinuxARM64, "AARCH64_UNKNOWN_LINUX_GNU"},
}

// grindExcluded is permanent: valgrind on arm64 reports uninitialized struct
// padding as a conditional jump on uninitialized values.
var grindExcluded = map[Arch]bool{ArchARM64: true}

// decisions holds the per-event values shared by every family.
type decisions struct {
	event     github.Classification
	catalog   Catalog
	commitSHA string
	// extended enables the full platform fan-out, powerset lint and grind.
	extended bool
	// deploy allows uploads with credentials.
	deploy bool
}

func newDecisions(event github.Classification, catalog Catalog, commitSHA string) decisions {
	return decisions{
		event:     event,
		catalog:   catalog,
		commitSHA: commitSHA,
		extended:  event.InMergeTrain(github.StageAny) || event.ManualOrScheduled,
		deploy:    !event.InMergeTrain(github.StageMerge) && !event.ForkPullRequest && !event.ManualOrScheduled,
	}
}

func (d decisions) platforms() []Platform {
	if !d.extended {
		return []Platform{Baseline}
	}
	return append([]Platform{Baseline}, Extended...)
}

func (d decisions) prNumber() *int {
	if d.event.PRNumber == nil {
		return nil
	}
	number := *d.event.PRNumber
	return &number
}

func newJob(runner, name string, inputs protocol.Inputs) protocol.Job {
	return protocol.Job{
		Runner:  runner,
		JobName: name,
		Inputs:  inputs,
		Job:     inputs.Family(),
	}
}

func withSecrets(enabled bool, names []string) []string {
	if !enabled {
		return nil
	}
	return append([]string(nil), names...)
}

func sharedKey(family string, p Platform) *string {
	return ptr(family + "-" + p.slug())
}

func ptr[T any](v T) *T {
	return &v
}

func docsRsJobs(d decisions) ([]protocol.Job, error) {
	var jobs []protocol.Job
	for _, p := range d.platforms() {
		baseline := p == Baseline
		inputs := protocol.DocsRsInputs{
			PRNumber:   d.prNumber(),
			DeployDocs: baseline && d.deploy,
		}
		if baseline {
			inputs.ArtifactName = ptr("docsrs")
		}

		job := newJob(d.catalog.runner(p), fmt.Sprintf("Docs.rs (%s)", p.Label()), inputs)
		job.Ffmpeg = &protocol.FfmpegSetup{}
		job.SetupProtoc = true
		job.Rust = &protocol.RustSetup{
			Toolchain:     "stable",
			Components:    "rust-docs",
			SharedKey:     sharedKey("docs", p),
			NightlyBypass: true,
		}
		job.Secrets = withSecrets(inputs.DeployDocs, docsSecrets)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func clippyJobs(d decisions) ([]protocol.Job, error) {
	var jobs []protocol.Job
	for _, p := range d.platforms() {
		job := newJob(d.catalog.runner(p), fmt.Sprintf("Clippy (%s)", p.Label()), protocol.ClippyInputs{
			Powerset: d.extended,
		})
		job.Ffmpeg = &protocol.FfmpegSetup{}
		job.SetupProtoc = true
		job.Rust = &protocol.RustSetup{
			Toolchain:  "stable",
			Components: "clippy",
			SharedKey:  sharedKey("clippy", p),
			Tools:      clippyTools,
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func testJobs(d decisions) ([]protocol.Job, error) {
	var jobs []protocol.Job
	for _, p := range d.platforms() {
		// llvm-cov does not support windows on arm.
		noCoverage := p == WindowsARM64

		inputs := protocol.TestInputs{
			PRNumber:   d.prNumber(),
			CommitSHA:  d.commitSHA,
			NoCoverage: noCoverage,
		}
		rust := &protocol.RustSetup{
			Toolchain:     "stable",
			Components:    "llvm-tools-preview",
			SharedKey:     sharedKey("test", p),
			Tools:         testTools,
			NightlyBypass: true,
		}
		if noCoverage {
			rust.Components = ""
			rust.Tools = grindTools
		}

		job := newJob(d.catalog.runner(p), fmt.Sprintf("Test (%s)", p.Label()), inputs)
		job.Ffmpeg = &protocol.FfmpegSetup{}
		job.SetupProtoc = true
		job.Rust = rust
		job.Secrets = withSecrets(!d.event.ForkPullRequest, coverageSecrets)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func grindJobs(d decisions) ([]protocol.Job, error) {
	if !d.extended {
		return nil, nil
	}

	var jobs []protocol.Job
	for _, target := range grindTargets {
		if grindExcluded[target.platform.Arch] {
			continue
		}
		env, err := json.Marshal(map[string]string{
			"CARGO_TARGET_" + target.triple + "_RUNNER": valgrindArgs,
		})
		if err != nil {
			return nil, err
		}

		p := target.platform
		job := newJob(d.catalog.runner(p), fmt.Sprintf("Grind (%s)", p.Label()), protocol.GrindInputs{
			Env: string(env),
		})
		job.Ffmpeg = &protocol.FfmpegSetup{}
		job.SetupProtoc = true
		job.Rust = &protocol.RustSetup{
			Toolchain:     "stable",
			SharedKey:     sharedKey("grind", p),
			Tools:         grindTools,
			NightlyBypass: true,
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func fmtJobs(d decisions) ([]protocol.Job, error) {
	job := newJob(d.catalog.Default, "Fmt", protocol.FmtInputs{})
	job.Rust = &protocol.RustSetup{
		Toolchain:  "nightly",
		Components: "rustfmt",
	}
	return []protocol.Job{job}, nil
}

func lockfileJobs(d decisions) ([]protocol.Job, error) {
	job := newJob(d.catalog.Default, "Lockfile Check", protocol.LockfileInputs{})
	job.Rust = &protocol.RustSetup{
		Toolchain:  "stable",
		Components: "rustfmt",
	}
	return []protocol.Job{job}, nil
}

func hakariJobs(d decisions) ([]protocol.Job, error) {
	job := newJob(d.catalog.Default, "Hakari", protocol.HakariInputs{})
	job.Rust = &protocol.RustSetup{
		Toolchain:  "stable",
		Components: "rustfmt",
		Tools:      "cargo-hakari",
	}
	return []protocol.Job{job}, nil
}

func releaseChecksJobs(d decisions) ([]protocol.Job, error) {
	job := newJob(d.catalog.runner(Baseline), "Release-checks", protocol.ReleaseChecksInputs{
		PRNumber: d.prNumber(),
	})
	job.Ffmpeg = &protocol.FfmpegSetup{}
	job.SetupProtoc = true
	job.Rust = &protocol.RustSetup{
		Toolchain:  "stable",
		Components: "rust-docs",
		Tools:      "cargo-semver-checks,cargo-hakari,cargo-binstall",
		SharedKey:  ptr("cargo-release-checks"),
	}
	return []protocol.Job{job}, nil
}

func readmeJobs(d decisions) ([]protocol.Job, error) {
	job := newJob(d.catalog.runner(Baseline), "Sync Rdme", protocol.ReadmeInputs{})
	job.Ffmpeg = &protocol.FfmpegSetup{}
	job.SetupProtoc = true
	job.Rust = &protocol.RustSetup{
		Toolchain:     "stable",
		Components:    "rust-docs",
		Tools:         "cargo-binstall",
		SharedKey:     ptr("cargo-sync-rdme"),
		NightlyBypass: true,
	}
	return []protocol.Job{job}, nil
}

func docusaurusJobs(d decisions) ([]protocol.Job, error) {
	job := newJob(d.catalog.Default, "Docusaurus Docs", protocol.DocusaurusInputs{
		PRNumber:   d.prNumber(),
		DeployDocs: d.deploy,
	})
	job.Secrets = withSecrets(d.deploy, docsSecrets)
	return []protocol.Job{job}, nil
}

func previewJobs(d decisions, bundles []previewBundle) []protocol.Job {
	var jobs []protocol.Job
	for _, bundle := range bundles {
		job := newJob(d.catalog.Default, fmt.Sprintf("Preview (%s)", displayName(bundle.name)), protocol.PreviewInputs{
			Bundle:    bundle.name,
			Path:      bundle.path,
			PRNumber:  d.prNumber(),
			CommitSHA: d.commitSHA,
			Deploy:    d.deploy,
		})
		job.Secrets = withSecrets(d.deploy, docsSecrets)
		jobs = append(jobs, job)
	}
	return jobs
}

func displayName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
