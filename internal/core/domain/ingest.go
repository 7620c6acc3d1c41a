package domain

import "fmt"

// TextSubmission carries user-supplied metadata for direct text ingestion.
type TextSubmission struct {
	Title       string
	Description string
	Tags        []string
	SourceType  string
}

// ItemFailure records one failed item in a batch ingestion run.
type ItemFailure struct {
	Source string
	Reason string
}

// IngestReport summarises a batch ingestion run. Per-item failures are
// counted and listed; they never abort sibling items.
type IngestReport struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []ItemFailure
}

// AddFailure records a failed item.
func (r *IngestReport) AddFailure(source string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, ItemFailure{Source: source, Reason: err.Error()})
}

// SuccessRate formats the success ratio as a percentage with one
// decimal place, e.g. "60.0%".
func (r *IngestReport) SuccessRate() string {
	if r.Total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(r.Succeeded)/float64(r.Total)*100)
}
