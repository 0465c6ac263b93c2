package nssm

import (
	"strings"

	"nssmexec/internal/plan"
)

// Manager output fragments with a known meaning. Matching is
// case-insensitive on the decoded output.
const (
	// Win32 error 1060, printed when the service was never installed.
	msgNotInstalled = "does not exist as an installed service"

	// The manager's own OpenService failure for an absent service.
	msgCantOpen = "can't open service"

	// Win32 error 1062, stopping a service that is already stopped.
	msgNotStarted = "service has not been started"

	// Win32 error 1056, starting a service that is already running.
	msgAlreadyStarted = "already been started"

	// The stop was accepted but the service is still winding down.
	msgStopPending = "unexpected status service_stop_pending in response to stop control"
)

// benignPattern marks a non-zero exit as an idempotent success when the
// decoded output of an op's command contains substr.
type benignPattern struct {
	op     plan.Op
	substr string

	// pending means the state change is still in flight and polling
	// must confirm it before the step counts as settled.
	pending bool
}

// benignPatterns is the complete classification table. Anything not
// listed here is a genuine failure.
var benignPatterns = []benignPattern{
	{op: plan.OpStop, substr: msgNotInstalled},
	{op: plan.OpRemove, substr: msgNotInstalled},
	{op: plan.OpStop, substr: msgCantOpen},
	{op: plan.OpRemove, substr: msgCantOpen},
	{op: plan.OpStop, substr: msgNotStarted},
	{op: plan.OpStart, substr: msgAlreadyStarted},
	{op: plan.OpStop, substr: msgStopPending, pending: true},
}

// classifyBenign reports whether a failed command of op is a known
// idempotent outcome, and whether polling still has to confirm it.
func classifyBenign(op plan.Op, output string) (benign, pending bool) {
	lower := strings.ToLower(output)
	for _, p := range benignPatterns {
		if p.op == op && strings.Contains(lower, p.substr) {
			return true, p.pending
		}
	}
	return false, false
}

// isAbsentOutput reports whether output means the service is not
// installed at all.
func isAbsentOutput(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, msgNotInstalled) || strings.Contains(lower, msgCantOpen)
}

// Status classifies how a step ended.
type Status int

const (
	// StatusOK means every command exited zero and any required state
	// confirmation succeeded.
	StatusOK Status = iota + 1

	// StatusBenign means a command failed only because the service was
	// already in the desired state. The step counts as a success.
	StatusBenign

	// StatusFailed means a command failed for a real reason, or the
	// service never reached the expected state in time.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBenign:
		return "benign"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports one executed step.
type Result struct {
	Status Status

	// ExitCode is the exit code of the deciding command, zero when no
	// command failed.
	ExitCode int

	// Output is the decoded, truncated output of the deciding command.
	Output string

	// Cause is the command line the outcome hinges on, empty for a
	// plain success.
	Cause string
}
