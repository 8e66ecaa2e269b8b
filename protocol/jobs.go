package protocol

// Family identifies a logical job family. It is emitted as the "job" field
// and selects the workflow the executor dispatches to.
type Family string

const (
	FamilyDocsRs        Family = "docsrs"
	FamilyClippy        Family = "clippy"
	FamilyTest          Family = "test"
	FamilyGrind         Family = "grind"
	FamilyFmt           Family = "fmt"
	FamilyLockfile      Family = "lockfile"
	FamilyHakari        Family = "hakari"
	FamilyReleaseChecks Family = "release-checks"
	FamilySyncReadme    Family = "sync-rdme"
	FamilyDocusaurus    Family = "docusaurus"
	FamilyPreview       Family = "preview"
)

// Job is a single entry of the emitted plan.
type Job struct {
	Runner      string       `json:"runner"`
	JobName     string       `json:"job_name"`
	Rust        *RustSetup   `json:"rust"`
	Ffmpeg      *FfmpegSetup `json:"ffmpeg"`
	SetupProtoc bool         `json:"setup_protoc"`
	Inputs      Inputs       `json:"inputs"`
	Job         Family       `json:"job"`
	// Secrets is omitted from the document when the job must not receive
	// credentials.
	Secrets []string `json:"secrets,omitempty"`
}

// RustSetup configures the toolchain installation step.
type RustSetup struct {
	Toolchain     string  `json:"toolchain"`
	SharedKey     *string `json:"shared_key"`
	Components    string  `json:"components"`
	Tools         string  `json:"tools"`
	NightlyBypass bool    `json:"nightly_bypass"`
}

// FfmpegSetup requests ffmpeg on the runner. A nil Version installs the
// default release.
type FfmpegSetup struct {
	Version *string `json:"version"`
}

// Inputs is the family-specific payload of a Job. Every variant reports the
// family it belongs to so a Job can never carry mismatched inputs.
type Inputs interface {
	Family() Family
}

type DocsRsInputs struct {
	ArtifactName *string `json:"artifact_name"`
	PRNumber     *int    `json:"pr_number"`
	DeployDocs   bool    `json:"deploy_docs"`
}

func (DocsRsInputs) Family() Family { return FamilyDocsRs }

type DocusaurusInputs struct {
	PRNumber   *int `json:"pr_number"`
	DeployDocs bool `json:"deploy_docs"`
}

func (DocusaurusInputs) Family() Family { return FamilyDocusaurus }

type ClippyInputs struct {
	Powerset bool `json:"powerset"`
}

func (ClippyInputs) Family() Family { return FamilyClippy }

type TestInputs struct {
	PRNumber   *int   `json:"pr_number"`
	CommitSHA  string `json:"commit_sha"`
	NoCoverage bool   `json:"no_coverage"`
}

func (TestInputs) Family() Family { return FamilyTest }

// GrindInputs carries the environment for the valgrind run as a JSON object
// encoded into a string, which is what the executor's fromJSON expects.
type GrindInputs struct {
	Env string `json:"env"`
}

func (GrindInputs) Family() Family { return FamilyGrind }

type FmtInputs struct{}

func (FmtInputs) Family() Family { return FamilyFmt }

type LockfileInputs struct{}

func (LockfileInputs) Family() Family { return FamilyLockfile }

type HakariInputs struct{}

func (HakariInputs) Family() Family { return FamilyHakari }

type ReleaseChecksInputs struct {
	PRNumber *int `json:"pr_number"`
}

func (ReleaseChecksInputs) Family() Family { return FamilyReleaseChecks }

type ReadmeInputs struct{}

func (ReadmeInputs) Family() Family { return FamilySyncReadme }

// PreviewInputs describes one deployable preview bundle.
type PreviewInputs struct {
	Bundle    string `json:"bundle"`
	Path      string `json:"path"`
	PRNumber  *int   `json:"pr_number"`
	CommitSHA string `json:"commit_sha"`
	Deploy    bool   `json:"deploy"`
}

func (PreviewInputs) Family() Family { return FamilyPreview }
