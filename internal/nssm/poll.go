package nssm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nssmexec/internal/logger"
	"nssmexec/internal/plan"
)

// awaitState polls the service status until it reports want. It checks
// up to count times, sleeping interval between checks, and returns a
// failure Result when the state is never reached. Status errors short
// of a spawn failure count as "not there yet".
func (inv *Invoker) awaitState(ctx context.Context, service string, want State, interval time.Duration, count int) (*Result, error) {
	log := logger.WithComponent("nssm")

	last := StateUnknown
	for attempt := 0; attempt < count; attempt++ {
		if attempt > 0 {
			log.Info().
				Str("service", service).
				Stringer("expected_state", want).
				Msg("Service has not reached expected state, waiting")
			inv.clock.Sleep(interval)
		}

		state, err := inv.Status(ctx, service)
		if err != nil {
			var ie *InvocationError
			if errors.As(err, &ie) {
				return nil, err
			}
			continue
		}

		last = state
		if state == want {
			return nil, nil
		}
	}

	return &Result{
		Status: StatusFailed,
		Cause:  plan.Command{"status", service}.String(),
		Output: fmt.Sprintf("service did not reach %s after %d checks (last state %s)", want, count, last),
	}, nil
}
