package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/app"
	"github.com/newhook/issuerun/internal/runner"
	"github.com/newhook/issuerun/internal/testutil"
)

// cli runs issuerun commands against a harness backend with sqlite state in
// a temp directory, so state carries over between invocations.
type cli struct {
	t          *testing.T
	h          *testutil.TestHarness
	configPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv(api.BaseURLEnv, "")

	h := testutil.NewTestHarness(t)
	t.Cleanup(h.Cleanup)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("[server]\nbase_url = %q\n\n[storage]\npath = %q\n\n[ui]\nno_spinner = true\n",
		h.Server.URL, filepath.Join(dir, "state"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	return &cli{t: t, h: h, configPath: configPath}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	flagEphemeral = false
	flagNoSpinner = false
	flagConfigForce = false
	flagLastWatch = false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", c.configPath}, args...))
	err := rootCmd.Execute()
	return stdout.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "issuerun %s", strings.Join(args, " "))
	return out
}

func TestUseAndList(t *testing.T) {
	c := newCLI(t)
	c.h.CreateIssue(2, "Two")
	c.h.CreateIssue(1, "One")

	out := c.mustRun("use", testutil.TestRepo)
	assert.Equal(t, "Current repo set to: test-repo (2 issues)\n", out)

	out = c.mustRun("list")
	assert.Contains(t, out, "Issues for repo 'test-repo':")
	assert.Contains(t, out, "#1     [open  ] One")
	assert.Contains(t, out, "     URL: https://github.com/example/test-repo/issues/1")
	assert.Less(t, strings.Index(out, "#1 "), strings.Index(out, "#2 "))
}

func TestUseUnknownRepo(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("use", "nope")
	require.Error(t, err)
	assert.Equal(t, "repo 'nope' not found or inaccessible (Repository not found)", err.Error())

	_, err = c.run("list")
	assert.ErrorIs(t, err, app.ErrNoRepo)
}

func TestListEmptyRepo(t *testing.T) {
	c := newCLI(t)
	c.mustRun("use", testutil.TestRepo)

	out := c.mustRun("list")
	assert.Equal(t, "No open issues\n", out)
}

func TestShow(t *testing.T) {
	c := newCLI(t)
	c.h.CreateIssue(1, "One")
	c.mustRun("use", testutil.TestRepo)

	out := c.mustRun("show", "1")
	assert.Contains(t, out, "#1 [open] One")
	assert.Contains(t, out, "Body of One")
	assert.Contains(t, out, "URL: https://github.com/example/test-repo/issues/1")

	_, err := c.run("show", "one")
	assert.Equal(t, errIssueNumber, err)

	_, err = c.run("show", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Issue not found")
}

func TestResolveSubsetThenLast(t *testing.T) {
	c := newCLI(t)
	c.h.CreateIssue(1, "One")
	c.h.CreateIssue(2, "Two")
	c.mustRun("use", testutil.TestRepo)

	out := c.mustRun("resolve", "1", "2")
	assert.Contains(t, out, "Scope & Execute (batch) for test-repo: [1 2]")
	assert.Contains(t, out, "(POST "+c.h.Server.URL+"/test-repo/issues/scope-and-execute-batch)")
	assert.Contains(t, out, "Finished scope & execute batch for repo 'test-repo'")
	assert.Contains(t, out, "Batch done: 2 succeeded, 0 failed.")
	assert.Contains(t, out, "Selected issues: 2   Succeeded: 2   Failed: 0")
	assert.Contains(t, out, "Issue #1: SUCCESS")
	assert.Contains(t, out, "  • Branch: fix/2")

	requests := c.h.BatchRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, api.BatchRequest{Issues: []int{1, 2}}, requests[0])

	out = c.mustRun("last")
	assert.Contains(t, out, "Batch done: 2 succeeded, 0 failed.")
	assert.Contains(t, out, "Issue #2: SUCCESS")
}

func TestResolveAllFailure(t *testing.T) {
	c := newCLI(t)
	c.h.CreateIssue(1, "One")
	c.mustRun("use", testutil.TestRepo)
	c.h.FailBatch(500, "boom")

	out, err := c.run("resolve", "all")
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.Contains(t, out, "Scope & Execute (batch) for ALL issues in 'test-repo'")
	assert.NotContains(t, out, "Finished scope & execute batch")
	assert.Contains(t, out, "All issues failed: boom")
	assert.Contains(t, out, "Selected issues: 0   Succeeded: 0   Failed: 0")

	requests := c.h.BatchRequests()
	require.Len(t, requests, 1)
	assert.True(t, requests[0].All)
	assert.Empty(t, requests[0].Issues)

	out = c.mustRun("last")
	assert.Contains(t, out, "All issues failed: boom")
}

func TestResolveSingleFailureSynthesizesResult(t *testing.T) {
	c := newCLI(t)
	c.h.CreateIssue(3, "Three")
	c.mustRun("use", testutil.TestRepo)
	c.h.FailBatch(502, "upstream down")

	out, err := c.run("resolve", "3")
	require.Error(t, err)
	assert.Contains(t, out, "Failed #3: upstream down")
	assert.Contains(t, out, "Issue #3: FAILED")
	assert.Contains(t, out, "  • Error: upstream down")
}

func TestResolveRejectsNonIntegers(t *testing.T) {
	c := newCLI(t)
	c.mustRun("use", testutil.TestRepo)

	_, err := c.run("resolve", "1", "two")
	assert.Equal(t, errIssueNumbers, err)
	assert.Empty(t, c.h.BatchRequests())
}

func TestLastWithoutCachedOutcome(t *testing.T) {
	c := newCLI(t)
	c.mustRun("use", testutil.TestRepo)

	out := c.mustRun("last")
	assert.Equal(t, "No cached results for 'test-repo' in this session.\n", out)
}

func TestSessionResetPurgesOnNextStart(t *testing.T) {
	c := newCLI(t)
	c.h.CreateIssue(1, "One")
	c.mustRun("use", testutil.TestRepo)
	c.mustRun("resolve", "1")

	out := c.mustRun("last")
	assert.Contains(t, out, "Completed #1.")

	out = c.mustRun("session", "reset")
	assert.Contains(t, out, "Session reset.")

	out = c.mustRun("last")
	assert.Equal(t, "No cached results for 'test-repo' in this session.\n", out)

	// The current repo is not part of the purge.
	out = c.mustRun("list")
	assert.Contains(t, out, "Issues for repo 'test-repo':")
}

func TestConfigInit(t *testing.T) {
	c := newCLI(t)
	c.configPath = filepath.Join(t.TempDir(), "nested", "config.toml")

	out := c.mustRun("config", "init")
	assert.Equal(t, "Wrote "+c.configPath+"\n", out)
	data, err := os.ReadFile(c.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[storage]")

	_, err = c.run("config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	c.mustRun("config", "init", "--force")

	out = c.mustRun("config", "path")
	assert.Equal(t, c.configPath+"\n", out)
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    runner.Target
		wantErr error
	}{
		{name: "all", args: []string{"all"}, want: runner.All()},
		{name: "all uppercase", args: []string{"ALL"}, want: runner.All()},
		{name: "single", args: []string{"5"}, want: runner.Single(5)},
		{name: "subset", args: []string{"3", "7"}, want: runner.Subset(3, 7)},
		{name: "all with numbers", args: []string{"all", "2"}, wantErr: errIssueNumbers},
		{name: "word", args: []string{"x"}, wantErr: errIssueNumbers},
		{name: "zero", args: []string{"0"}, wantErr: errIssueNumbers},
		{name: "negative", args: []string{"4", "-3"}, wantErr: errIssueNumbers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTarget(tt.args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
