package nssm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nssmexec/internal/plan"
)

// State is a Windows service state as the manager's status command
// reports it.
type State int

const (
	StateUnknown State = iota
	StateStopped
	StateStopPending
	StateRunning
	StateStartPending
	StatePaused
	StatePausePending
	StateContinuePending
)

var stateNames = map[string]State{
	"SERVICE_STOPPED":          StateStopped,
	"SERVICE_STOP_PENDING":     StateStopPending,
	"SERVICE_RUNNING":          StateRunning,
	"SERVICE_START_PENDING":    StateStartPending,
	"SERVICE_PAUSED":           StatePaused,
	"SERVICE_PAUSE_PENDING":    StatePausePending,
	"SERVICE_CONTINUE_PENDING": StateContinuePending,
}

// ParseState maps a status command's output line to a State.
func ParseState(s string) (State, error) {
	trimmed := strings.TrimSpace(s)
	state, ok := stateNames[trimmed]
	if !ok {
		return StateUnknown, fmt.Errorf("nssm: unrecognized service state %q", trimmed)
	}
	return state, nil
}

func (s State) String() string {
	switch s {
	case StateStopped:
		return "SERVICE_STOPPED"
	case StateStopPending:
		return "SERVICE_STOP_PENDING"
	case StateRunning:
		return "SERVICE_RUNNING"
	case StateStartPending:
		return "SERVICE_START_PENDING"
	case StatePaused:
		return "SERVICE_PAUSED"
	case StatePausePending:
		return "SERVICE_PAUSE_PENDING"
	case StateContinuePending:
		return "SERVICE_CONTINUE_PENDING"
	default:
		return "UNKNOWN"
	}
}

// ErrNotInstalled reports that the queried service is not registered
// with the service manager.
var ErrNotInstalled = errors.New("nssm: service is not installed")

// Status queries the current state of service. Output that matches the
// absent patterns yields ErrNotInstalled; a manager that cannot be
// spawned yields an *InvocationError.
func (inv *Invoker) Status(ctx context.Context, service string) (State, error) {
	command := plan.Command{"status", service}

	out, code, err := inv.exec(ctx, inv.path, command)
	if err != nil {
		return StateUnknown, &InvocationError{Path: inv.path, Err: err}
	}

	output := truncate(decodeOutput(out))
	if code != 0 {
		if isAbsentOutput(output) {
			return StateUnknown, ErrNotInstalled
		}
		return StateUnknown, fmt.Errorf("nssm: status %s: exit code %d: %s", service, code, output)
	}
	return ParseState(output)
}
