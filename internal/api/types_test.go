package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedOutputStructuredOutputWrapper(t *testing.T) {
	var out ScopedOutput
	err := json.Unmarshal([]byte(`{"structured_output":{"summary":"wrapped","confidence":"High","action_plan":["one"]}}`), &out)
	require.NoError(t, err)
	require.Equal(t, "wrapped", out.Summary)
	require.Equal(t, "High", out.ConfidenceScore.String())
	require.Equal(t, []string{"one"}, out.ActionPlan)
}

func TestExecutedOutputAliases(t *testing.T) {
	var out ExecutedOutput
	err := json.Unmarshal([]byte(`{"pr_url":"https://pr/9","files_created":["a.go","b.go"],"branch_name":"b"}`), &out)
	require.NoError(t, err)
	require.Equal(t, "https://pr/9", out.PullRequestURL)
	require.Equal(t, []string{"a.go", "b.go"}, out.Files)
	require.Equal(t, "b", out.BranchName)
}

func TestExecutedOutputStructuredOutputWrapper(t *testing.T) {
	var out ExecutedOutput
	err := json.Unmarshal([]byte(`{"structured_output":{"pull_request_url":"https://pr/1"},"branch_name":"ignored"}`), &out)
	require.NoError(t, err)
	require.Equal(t, "https://pr/1", out.PullRequestURL)
	require.Empty(t, out.BranchName)
}

func TestBatchRunResultRoundTripKeepsCommitShape(t *testing.T) {
	in := []byte(`{"results":[{"issue_number":1,"status":"success","executed":{"commits":["plain",{"message":"m","sha":"1"}]}}],"succeeded":1,"failed":0}`)

	var res BatchRunResult
	require.NoError(t, json.Unmarshal(in, &res))

	out, err := json.Marshal(res)
	require.NoError(t, err)

	var again BatchRunResult
	require.NoError(t, json.Unmarshal(out, &again))
	require.Equal(t, "plain", again.Results[0].Executed.Commits[0].String())
	require.Equal(t, "m", again.Results[0].Executed.Commits[1].String())
	require.JSONEq(t, `{"message":"m","sha":"1"}`, string(again.Results[0].Executed.Commits[1].Raw))
}

func TestConfidenceAcceptsNull(t *testing.T) {
	var out ScopedOutput
	require.NoError(t, json.Unmarshal([]byte(`{"confidence_score":null}`), &out))
	require.Empty(t, out.ConfidenceScore)
}

func TestConfidenceKeepsWireShape(t *testing.T) {
	for _, tc := range []struct {
		in   string
		text string
	}{
		{`{"confidence_score":0.9}`, "0.9"},
		{`{"confidence_score":"High"}`, "High"},
		{`{"confidence_score":1e-1}`, "1e-1"},
	} {
		var out ScopedOutput
		require.NoError(t, json.Unmarshal([]byte(tc.in), &out))
		require.Equal(t, tc.text, out.ConfidenceScore.String())

		data, err := json.Marshal(out)
		require.NoError(t, err)
		require.JSONEq(t, tc.in, string(data))
	}
}

func TestConfidenceOmittedWhenEmpty(t *testing.T) {
	data, err := json.Marshal(ScopedOutput{Summary: "s"})
	require.NoError(t, err)
	require.JSONEq(t, `{"summary":"s"}`, string(data))
}

func TestConfidenceRejectsObject(t *testing.T) {
	var out ScopedOutput
	require.Error(t, json.Unmarshal([]byte(`{"confidence_score":{"v":1}}`), &out))
}

func TestErrorText(t *testing.T) {
	require.Equal(t, UnknownFailure, ExecutionResult{Status: StatusFailed}.ErrorText())
	require.Equal(t, "boom", ExecutionResult{Status: StatusFailed, Error: "boom"}.ErrorText())
}
