// Package nssm drives the external service manager executable. Steps
// run one command at a time: non-zero exits are classified against the
// known idempotent outcomes, and stop and start steps are confirmed by
// polling the reported service status.
package nssm

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/benbjohnson/clock"

	"nssmexec/internal/config"
	"nssmexec/internal/logger"
	"nssmexec/internal/plan"
)

// maxOutputBytes caps how much decoded manager output a result keeps.
const maxOutputBytes = 1024

// InvocationError means the manager executable itself could not be
// spawned. Unlike a failing step this poisons the whole batch.
type InvocationError struct {
	Path string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("nssm: cannot invoke manager %q: %v", e.Path, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// execFunc runs one manager command and returns its combined output
// and exit code. The error is reserved for spawn failures.
type execFunc func(ctx context.Context, path string, args []string) ([]byte, int, error)

// Invoker runs lifecycle steps against one manager executable.
type Invoker struct {
	path  string
	poll  config.PollConfig
	clock clock.Clock
	exec  execFunc
}

// New returns an Invoker for the manager at path.
func New(path string, poll config.PollConfig) *Invoker {
	return &Invoker{
		path:  path,
		poll:  poll,
		clock: clock.New(),
		exec:  runCommand,
	}
}

// Run executes every command of step in order. The first failing
// command settles the step unless its output matches a known benign
// pattern. All outcomes are data in the Result; the returned error is
// non-nil only when the manager could not be spawned at all.
func (inv *Invoker) Run(ctx context.Context, step plan.Step) (Result, error) {
	log := logger.WithComponent("nssm")

	result := Result{Status: StatusOK}
	for _, command := range step.Commands {
		log.Debug().Str("command", command.Redacted()).Msg("Running manager command")

		out, code, err := inv.exec(ctx, inv.path, command)
		if err != nil {
			return Result{}, &InvocationError{Path: inv.path, Err: err}
		}

		output := truncate(decodeOutput(out))
		log.Debug().
			Str("command", command.Redacted()).
			Int("exit_code", code).
			Msg("Manager command finished")

		if code == 0 {
			continue
		}

		benign, pending := classifyBenign(step.Op, output)
		if !benign {
			return Result{
				Status:   StatusFailed,
				ExitCode: code,
				Output:   output,
				Cause:    command.Redacted(),
			}, nil
		}

		log.Warn().
			Str("service", step.Service).
			Str("command", command.Redacted()).
			Str("output", output).
			Msg("Tolerating benign manager error")

		result = Result{
			Status:   StatusBenign,
			ExitCode: code,
			Output:   output,
			Cause:    command.Redacted(),
		}
		if !pending {
			// Already in the desired state; nothing left to confirm.
			return result, nil
		}
	}

	// Stop and start take effect asynchronously; wait for the service
	// to report the expected state before trusting the step.
	switch step.Op {
	case plan.OpStop:
		fail, err := inv.awaitState(ctx, step.Service, StateStopped,
			inv.poll.StopInterval, inv.poll.StopCount)
		if err != nil {
			return Result{}, err
		}
		if fail != nil {
			return *fail, nil
		}
	case plan.OpStart:
		fail, err := inv.awaitState(ctx, step.Service, StateRunning,
			inv.poll.StartInterval, inv.poll.StartCount)
		if err != nil {
			return Result{}, err
		}
		if fail != nil {
			return *fail, nil
		}
	}

	return result, nil
}

// runCommand is the real execFunc. A non-zero exit is not an error
// here; only failing to spawn the process is.
func runCommand(ctx context.Context, path string, args []string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, exitErr.ExitCode(), nil
		}
		return nil, 0, err
	}
	return out, 0, nil
}

func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes]
}
