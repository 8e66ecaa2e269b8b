package planner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/scufflecloud/ci-prep/internal/observability"
	"github.com/scufflecloud/ci-prep/internal/vcs/git"
	"github.com/scufflecloud/ci-prep/internal/vcs/github"
	"github.com/scufflecloud/ci-prep/protocol"
)

// ErrMissingCommitSHA is returned when the request carries no commit hash.
var ErrMissingCommitSHA = errors.New("commit sha is required")

// Planner produces the list of jobs to run for a trigger event.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (PlanResult, error)
}

// PlanRequest contains the context needed to generate a plan.
type PlanRequest struct {
	Event     github.Classification
	CommitSHA string
}

// PlanResult is the outcome of the planning step.
type PlanResult struct {
	Jobs []protocol.Job
}

// Builder is the Planner used in CI. All of its inputs are explicit so a
// plan depends only on the request and the fields below.
type Builder struct {
	Catalog Catalog
	// Preview maps bundle names to build-output directories in Workspace.
	Preview map[string]string
	// Workspace is probed for preview build outputs. A nil Workspace has no
	// outputs.
	Workspace fs.FS
	// Head resolves the checked-out commit in the merge-train try stage.
	Head   git.HeadReader
	Logger *slog.Logger
}

func (b Builder) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	logger := b.Logger
	if logger == nil {
		logger = observability.NewLogger("planner")
	}

	sha := strings.TrimSpace(req.CommitSHA)
	if sha == "" {
		return PlanResult{}, ErrMissingCommitSHA
	}
	// The try stage builds a synthetic merge commit, so the triggering SHA
	// does not match what is checked out.
	if req.Event.InMergeTrain(github.StageTry) {
		if b.Head == nil {
			return PlanResult{}, errors.New("head reader required for merge-train try stage")
		}
		head, err := b.Head.HeadCommit(ctx)
		if err != nil {
			return PlanResult{}, fmt.Errorf("resolve try-stage commit: %w", err)
		}
		logger.Info("commit sha replaced by checked-out head", "event", "commit_sha_resolved", "env_sha", sha, "head_sha", head)
		sha = head
	}

	bundles, err := presentBundles(b.Workspace, b.Preview)
	if err != nil {
		return PlanResult{}, err
	}

	d := newDecisions(req.Event, b.Catalog, sha)
	builders := []struct {
		family protocol.Family
		build  func(decisions) ([]protocol.Job, error)
	}{
		{protocol.FamilyDocsRs, docsRsJobs},
		{protocol.FamilyClippy, clippyJobs},
		{protocol.FamilyTest, testJobs},
		{protocol.FamilyGrind, grindJobs},
		{protocol.FamilyFmt, fmtJobs},
		{protocol.FamilyLockfile, lockfileJobs},
		{protocol.FamilyHakari, hakariJobs},
		{protocol.FamilyReleaseChecks, releaseChecksJobs},
		{protocol.FamilySyncReadme, readmeJobs},
		{protocol.FamilyDocusaurus, docusaurusJobs},
		{protocol.FamilyPreview, func(d decisions) ([]protocol.Job, error) { return previewJobs(d, bundles), nil }},
	}

	jobs := make([]protocol.Job, 0, 32)
	for _, family := range builders {
		familyJobs, err := family.build(d)
		if err != nil {
			return PlanResult{}, fmt.Errorf("plan %s: %w", family.family, err)
		}
		familyLogger := observability.WithFamily(logger, string(family.family))
		if len(familyJobs) == 0 {
			familyLogger.Info("family not active", "event", "family_skipped")
			continue
		}
		familyLogger.Info("family planned", "event", "family_planned", "jobs", len(familyJobs))
		jobs = append(jobs, familyJobs...)
	}

	logger.Info("plan built", "event", "plan_built", "jobs", len(jobs), "extended", d.extended, "deploy", d.deploy)
	return PlanResult{Jobs: jobs}, nil
}
