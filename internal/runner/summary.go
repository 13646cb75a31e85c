package runner

import (
	"fmt"

	"github.com/newhook/issuerun/internal/api"
)

// unknownError is used in a single-issue summary when a failed entry has no text.
const unknownError = "Unknown error"

func successSummary(t Target, result *api.BatchRunResult) string {
	switch t.Kind {
	case KindSingle:
		id := t.IDs[0]
		if len(result.Results) > 0 && result.Results[0].Status == api.StatusSuccess {
			return fmt.Sprintf("Completed #%d.", id)
		}
		msg := unknownError
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			msg = result.Results[0].Error
		}
		return fmt.Sprintf("Failed #%d: %s", id, msg)
	case KindAll:
		return fmt.Sprintf("All issues: %d succeeded, %d failed.", result.Succeeded, result.Failed)
	default:
		return fmt.Sprintf("Batch done: %d succeeded, %d failed.", result.Succeeded, result.Failed)
	}
}

func failureSummary(t Target, msg string) string {
	switch t.Kind {
	case KindSingle:
		return fmt.Sprintf("Failed #%d: %s", t.IDs[0], msg)
	case KindAll:
		return "All issues failed: " + msg
	default:
		return "Batch failed: " + msg
	}
}

// synthesize builds the result shown when the call produced no structured
// body: one failed entry per targeted id, all carrying msg.
func synthesize(t Target, msg string) *api.BatchRunResult {
	results := make([]api.ExecutionResult, 0, len(t.IDs))
	for _, id := range t.IDs {
		results = append(results, api.ExecutionResult{
			IssueNumber: id,
			Status:      api.StatusFailed,
			Error:       msg,
		})
	}
	return &api.BatchRunResult{
		Results:   results,
		Succeeded: 0,
		Failed:    len(results),
	}
}
