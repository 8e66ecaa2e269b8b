package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scufflecloud/ci-prep/internal/vcs/github"
	"github.com/scufflecloud/ci-prep/planner"
)

func testStreams(stdin string, env map[string]string) (streams, *bytes.Buffer) {
	var stdout bytes.Buffer
	return streams{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: io.Discard,
		getenv: func(key string) string { return env[key] },
	}, &stdout
}

func decodePlan(t *testing.T, out string) []map[string]any {
	t.Helper()
	line := strings.TrimSuffix(out, "\n")
	require.True(t, strings.HasPrefix(line, "matrix="), out)

	var jobs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "matrix=")), &jobs))
	return jobs
}

func TestRunPlanForkPullRequest(t *testing.T) {
	std, stdout := testStreams(`{"event_name": "pull_request", "ref": "refs/pull/42/merge",
		"event": {"number": 42, "pull_request": {"head": {"repo": {"full_name": "forker/scuffle"}}}}}`,
		map[string]string{"SHA": "abc123"})

	metricsPath := filepath.Join(t.TempDir(), "ci_prep.prom")
	err := runPlan(context.Background(), []string{"--workspace", t.TempDir(), "--metrics-file", metricsPath}, std)
	require.NoError(t, err)

	jobs := decodePlan(t, stdout.String())
	var docs, tests int
	for _, job := range jobs {
		switch job["job"] {
		case "docsrs":
			docs++
			assert.NotContains(t, job, "secrets")
			assert.Equal(t, false, job["inputs"].(map[string]any)["deploy_docs"])
		case "test":
			tests++
			assert.Equal(t, "ubicloud-standard-8-ubuntu-2404", job["runner"])
		case "grind", "preview":
			t.Fatalf("unexpected %s job for a pull request", job["job"])
		}
	}
	assert.Equal(t, 1, docs)
	assert.Equal(t, 1, tests)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `ci_prep_plans_total{trigger="pull_request"} 1`)
}

func TestRunPlanMergeStage(t *testing.T) {
	std, stdout := testStreams(`{"event_name": "push", "ref": "refs/heads/automation/brawl/merge/7", "event": {}}`,
		map[string]string{"SHA": "abc123"})

	require.NoError(t, runPlan(context.Background(), []string{"--workspace", t.TempDir()}, std))

	counts := map[string]int{}
	for _, job := range decodePlan(t, stdout.String()) {
		counts[job["job"].(string)]++
		if job["job"] == "docsrs" {
			assert.Equal(t, false, job["inputs"].(map[string]any)["deploy_docs"])
		}
		if job["job"] == "test" {
			assert.Equal(t, "abc123", job["inputs"].(map[string]any)["commit_sha"])
		}
	}
	assert.Equal(t, 6, counts["test"])
	assert.Equal(t, 6, counts["clippy"])
	assert.Equal(t, 1, counts["grind"])
}

func TestRunPlanIsByteIdentical(t *testing.T) {
	workspace := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "target", "doc"), 0o755))

	render := func() string {
		std, stdout := testStreams(`{"event_name": "schedule", "ref": "refs/heads/main", "event": {}}`,
			map[string]string{"SHA": "abc123"})
		require.NoError(t, runPlan(context.Background(), []string{"--workspace", workspace}, std))
		return stdout.String()
	}

	first := render()
	assert.Equal(t, first, render())
	assert.Contains(t, first, `"bundle":"rustdoc"`)
}

func TestRunPlanFailures(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		env   map[string]string
		is    error
	}{
		{
			name:  "malformed context",
			stdin: `{"event_name":`,
			env:   map[string]string{"SHA": "abc123"},
			is:    github.ErrMalformedContext,
		},
		{
			name:  "missing sha",
			stdin: `{"event_name": "schedule", "event": {}}`,
			is:    planner.ErrMissingCommitSHA,
		},
		{
			name:  "bad try ref",
			stdin: `{"event_name": "push", "ref": "refs/heads/automation/brawl/try/abc", "event": {}}`,
			env:   map[string]string{"SHA": "abc123"},
			is:    github.ErrInvalidPRNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			std, stdout := testStreams(tt.stdin, tt.env)
			err := runPlan(context.Background(), []string{"--workspace", t.TempDir()}, std)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is), "unexpected error: %v", err)
			assert.Empty(t, stdout.String(), "no partial plan is emitted")
		})
	}
}

func TestRunPlanOutputKeyOverride(t *testing.T) {
	std, stdout := testStreams(`{"event_name": "push", "ref": "refs/heads/main", "event": {}}`,
		map[string]string{"SHA": "abc123"})
	require.NoError(t, runPlan(context.Background(), []string{"--workspace", t.TempDir(), "--output-key", "jobs"}, std))
	assert.True(t, strings.HasPrefix(stdout.String(), "jobs=["))
}

func TestRunReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "body.md")
	std, stdout := testStreams("", map[string]string{
		"NEEDS_JSON": `{"docs_preview": {"result": "success", "outputs": {"preview-url": "https://docs.example"}}}`,
	})

	require.NoError(t, runReport([]string{"--out", out}, std))

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), "| docs preview | ✅ | [https://docs.example](https://docs.example) |")
	assert.Contains(t, stdout.String(), "Generated comment:")
}

func TestRunReportInvalidNeeds(t *testing.T) {
	std, _ := testStreams("", nil)
	err := runReport([]string{"--needs", "{", "--out", filepath.Join(t.TempDir(), "body.md")}, std)
	require.Error(t, err)
}

func TestRunTargets(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(first, []byte("scuffle-rtmp\nscuffle-flv\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("scuffle-flv\nscuffle-av1\nscuffle-rtmp\n"), 0o600))

	std, stdout := testStreams("", nil)
	require.NoError(t, runTargets([]string{first, second}, std))
	assert.Equal(t, "scuffle-flv\nscuffle-rtmp\n", stdout.String())

	std, _ = testStreams("", nil)
	require.Error(t, runTargets([]string{first}, std))
}
