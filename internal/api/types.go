package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RunStatus is the state of one issue within a run.
type RunStatus string

const (
	StatusPending RunStatus = "pending"
	StatusRunning RunStatus = "running"
	StatusSuccess RunStatus = "success"
	StatusFailed  RunStatus = "failed"
	// StatusSkipped is reported by the server for pull requests listed as issues.
	StatusSkipped RunStatus = "skipped"
)

// UnknownFailure is shown for a failed entry that carries no error text.
const UnknownFailure = "Unknown failure"

// IssueSummary is one row of the issue list.
type IssueSummary struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	URL    string `json:"url"`
}

// IssueList is the response of the list endpoint. Message is set instead of
// Issues when the repository has no issues.
type IssueList struct {
	Issues  []IssueSummary `json:"issues"`
	Message string         `json:"message,omitempty"`
}

// Numbers returns the issue numbers in list order.
func (l *IssueList) Numbers() []int {
	if l == nil {
		return nil
	}
	ids := make([]int, len(l.Issues))
	for i, issue := range l.Issues {
		ids[i] = issue.Number
	}
	return ids
}

// IssueDetail is a single issue including its body.
type IssueDetail struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	URL    string `json:"url"`
	Body   string `json:"body"`
}

// BatchRequest is the body of the scope-and-execute-batch call.
type BatchRequest struct {
	All         bool  `json:"all"`
	Issues      []int `json:"issues"`
	StopOnError bool  `json:"stop_on_error"`
}

// BatchRunResult is the aggregate outcome of one run.
// Succeeded and Failed are the server's counts; they are not recomputed.
type BatchRunResult struct {
	Repo          string            `json:"repo,omitempty"`
	TotalSelected *int              `json:"total_selected,omitempty"`
	Results       []ExecutionResult `json:"results"`
	Succeeded     int               `json:"succeeded"`
	Failed        int               `json:"failed"`
}

// ExecutionResult is the outcome for one issue.
type ExecutionResult struct {
	IssueNumber int             `json:"issue_number"`
	Status      RunStatus       `json:"status"`
	Scoped      *ScopedOutput   `json:"scoped,omitempty"`
	Executed    *ExecutedOutput `json:"executed,omitempty"`
	Error       string          `json:"error,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// ErrorText returns the failure message, defaulting to UnknownFailure.
func (r ExecutionResult) ErrorText() string {
	if r.Error == "" {
		return UnknownFailure
	}
	return r.Error
}

// ScopedOutput is what the scoping agent produced.
type ScopedOutput struct {
	IssueTitle      string     `json:"issue_title,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	ConfidenceScore Confidence `json:"confidence_score,omitempty"`
	ActionPlan      []string   `json:"action_plan,omitempty"`
}

// UnmarshalJSON accepts the agent payload either flat or wrapped in
// structured_output, and the older "confidence" key.
func (s *ScopedOutput) UnmarshalJSON(data []byte) error {
	type plain ScopedOutput
	var wire struct {
		plain
		Confidence       Confidence      `json:"confidence,omitempty"`
		StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if isObject(wire.StructuredOutput) {
		return s.UnmarshalJSON(wire.StructuredOutput)
	}
	*s = ScopedOutput(wire.plain)
	if len(s.ConfidenceScore) == 0 {
		s.ConfidenceScore = wire.Confidence
	}
	return nil
}

// ExecutedOutput is what the implementing agent produced.
type ExecutedOutput struct {
	BranchName     string   `json:"branch_name,omitempty"`
	PullRequestURL string   `json:"pull_request_url,omitempty"`
	Commits        []Commit `json:"commits,omitempty"`
	Files          []string `json:"files_changed,omitempty"`
}

// UnmarshalJSON accepts the agent payload either flat or wrapped in
// structured_output, plus the pr_url and files_created aliases.
func (e *ExecutedOutput) UnmarshalJSON(data []byte) error {
	type plain ExecutedOutput
	var wire struct {
		plain
		PRURL            string          `json:"pr_url,omitempty"`
		FilesCreated     []string        `json:"files_created,omitempty"`
		StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if isObject(wire.StructuredOutput) {
		return e.UnmarshalJSON(wire.StructuredOutput)
	}
	*e = ExecutedOutput(wire.plain)
	if e.PullRequestURL == "" {
		e.PullRequestURL = wire.PRURL
	}
	if len(e.Files) == 0 {
		e.Files = wire.FilesCreated
	}
	return nil
}

// Commit is a commit reported by the implementing agent: either a bare
// string or an object with a message.
type Commit struct {
	Message string
	// Raw holds the original object when the commit was not a plain string.
	Raw json.RawMessage
}

// String returns the message, or the raw JSON when the object had none.
func (c Commit) String() string {
	if c.Message != "" || len(c.Raw) == 0 {
		return c.Message
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, c.Raw); err != nil {
		return string(c.Raw)
	}
	return buf.String()
}

func (c *Commit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Commit{Message: s}
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	*c = Commit{Message: obj.Message, Raw: append(json.RawMessage(nil), data...)}
	return nil
}

func (c Commit) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(c.Message)
}

// Confidence is the scoper's confidence score as the server sent it: a
// number such as 0.9 or a label such as "High". The raw JSON is kept so a
// cached result is written back in the same shape.
type Confidence json.RawMessage

func (c *Confidence) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		*c = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*c = Confidence(append([]byte(nil), trimmed...))
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("confidence_score: %w", err)
	}
	*c = Confidence(n.String())
	return nil
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

// String returns the label, or the number as written.
func (c Confidence) String() string {
	var s string
	if err := json.Unmarshal(c, &s); err == nil {
		return s
	}
	return string(c)
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
