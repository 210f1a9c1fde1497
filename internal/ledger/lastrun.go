package ledger

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunSummary records what the most recent fetch invocation saved. It is
// informational only: nothing in the pipeline gates on it, and it is
// overwritten wholesale each run.
type RunSummary struct {
	SavedIdentifiers []string `json:"saved_identifiers"`
	SavedPaths       []string `json:"saved_paths"`
}

// WriteRunSummary replaces the last-run file at path with the given
// summary as indented JSON. Nil slices are written as empty arrays.
func WriteRunSummary(path string, summary RunSummary) error {
	if summary.SavedIdentifiers == nil {
		summary.SavedIdentifiers = []string{}
	}
	if summary.SavedPaths == nil {
		summary.SavedPaths = []string{}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}

	return nil
}

// ReadRunSummary loads the last-run file at path
func ReadRunSummary(path string) (RunSummary, error) {
	var summary RunSummary

	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read run summary: %w", err)
	}

	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("failed to parse run summary: %w", err)
	}

	return summary, nil
}
