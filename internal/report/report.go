// Package report collects step outcomes into the batch record that
// drives logging, the process exit code and the optional JSON artifact.
package report

import "time"

// Outcome is the final classification of one step.
type Outcome string

const (
	// OutcomeSuccess covers clean runs and benign idempotent outcomes.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure means the step's deciding command failed.
	OutcomeFailure Outcome = "failure"

	// OutcomeSkipped means the step never ran, either because an
	// earlier step of the same service failed or because the batch
	// aborted.
	OutcomeSkipped Outcome = "skipped"
)

// StepResult records what one planned step did.
type StepResult struct {
	Service string  `json:"service"`
	Op      string  `json:"op"`
	Outcome Outcome `json:"outcome"`

	// Benign marks a success that came from tolerating a known
	// already-settled manager error.
	Benign bool `json:"benign,omitempty"`

	ExitCode   int    `json:"exit_code,omitempty"`
	Output     string `json:"output,omitempty"`
	Cause      string `json:"cause,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Report is the machine-readable record of one batch.
type Report struct {
	Action     string       `json:"action"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`

	// Aborted reports that the batch stopped early because the manager
	// executable could not be invoked at all.
	Aborted bool `json:"aborted,omitempty"`
}

// Failed reports whether any step failed or was skipped.
func (r *Report) Failed() bool {
	for i := range r.Steps {
		if r.Steps[i].Outcome != OutcomeSuccess {
			return true
		}
	}
	return false
}

// ExitCode maps the batch outcome to the process exit code.
func (r *Report) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}

// Counts tallies the steps by outcome.
func (r *Report) Counts() (success, failure, skipped int) {
	for i := range r.Steps {
		switch r.Steps[i].Outcome {
		case OutcomeSuccess:
			success++
		case OutcomeFailure:
			failure++
		case OutcomeSkipped:
			skipped++
		}
	}
	return success, failure, skipped
}

// ServiceSummary condenses a service's steps to a single verdict.
type ServiceSummary struct {
	Service string

	// OK is true only when every step of the service succeeded.
	OK bool

	// FailedOp and Cause describe the first step that went wrong.
	FailedOp string
	Cause    string
}

// ServiceSummaries returns one summary per service, in the order
// services first appear in the step list.
func (r *Report) ServiceSummaries() []ServiceSummary {
	index := make(map[string]int)
	var summaries []ServiceSummary

	for i := range r.Steps {
		step := &r.Steps[i]

		pos, seen := index[step.Service]
		if !seen {
			pos = len(summaries)
			index[step.Service] = pos
			summaries = append(summaries, ServiceSummary{Service: step.Service, OK: true})
		}

		if step.Outcome == OutcomeSuccess || !summaries[pos].OK {
			continue
		}
		summaries[pos].OK = false
		summaries[pos].FailedOp = step.Op
		summaries[pos].Cause = step.Cause
	}
	return summaries
}
