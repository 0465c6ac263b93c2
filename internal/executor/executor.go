// Package executor runs a plan step by step, sequentially, and turns
// the step outcomes into a batch report. One service failing never
// blocks the others; only a manager that cannot be spawned at all
// aborts the batch.
package executor

import (
	"context"
	"time"

	"nssmexec/internal/logger"
	"nssmexec/internal/nssm"
	"nssmexec/internal/plan"
	"nssmexec/internal/report"
)

// Runner executes one planned step.
type Runner interface {
	Run(ctx context.Context, step plan.Step) (nssm.Result, error)
}

// Executor drives one batch at a time.
type Executor struct {
	runner Runner
}

// New returns an Executor backed by runner.
func New(runner Runner) *Executor {
	return &Executor{runner: runner}
}

// Execute runs every step of p in order and returns the report.
// When a step fails, the service's later steps are recorded as skipped
// and the batch moves on to the next service. When the runner reports
// a spawn failure, the triggering step and everything still pending
// are recorded as skipped and the batch ends.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan) *report.Report {
	log := logger.WithComponent("executor")

	rep := &report.Report{
		Action:    p.Action.String(),
		StartedAt: time.Now(),
		Steps:     make([]report.StepResult, 0, len(p.Steps)),
	}

	failedServices := make(map[string]bool)
	abort := ""

	for _, step := range p.Steps {
		if abort == "" && ctx.Err() != nil {
			abort = "batch canceled"
		}
		if abort != "" {
			rep.Steps = append(rep.Steps, skippedResult(step, abort))
			continue
		}
		if failedServices[step.Service] {
			log.Warn().
				Str("service", step.Service).
				Str("op", step.Op.String()).
				Msg("Skipping step, earlier step for this service failed")
			rep.Steps = append(rep.Steps, skippedResult(step, "earlier step for this service failed"))
			continue
		}

		log.Info().
			Str("service", step.Service).
			Str("op", step.Op.String()).
			Msg("Applying step")

		started := time.Now()
		res, err := e.runner.Run(ctx, step)
		elapsed := time.Since(started)

		if err != nil {
			log.Error().
				Err(err).
				Str("service", step.Service).
				Str("op", step.Op.String()).
				Msg("Manager invocation failed, aborting batch")
			abort = "manager invocation failed"
			rep.Aborted = true
			rep.Steps = append(rep.Steps, skippedResult(step, err.Error()))
			continue
		}

		sr := report.StepResult{
			Service:    step.Service,
			Op:         step.Op.String(),
			ExitCode:   res.ExitCode,
			Output:     res.Output,
			Cause:      res.Cause,
			DurationMS: elapsed.Milliseconds(),
		}
		switch res.Status {
		case nssm.StatusFailed:
			sr.Outcome = report.OutcomeFailure
			failedServices[step.Service] = true
			log.Error().
				Str("service", step.Service).
				Str("op", step.Op.String()).
				Int("exit_code", res.ExitCode).
				Str("cause", res.Cause).
				Str("output", res.Output).
				Msg("Step failed")
		case nssm.StatusBenign:
			sr.Outcome = report.OutcomeSuccess
			sr.Benign = true
			log.Info().
				Str("service", step.Service).
				Str("op", step.Op.String()).
				Str("output", res.Output).
				Msg("Step already settled")
		default:
			sr.Outcome = report.OutcomeSuccess
			log.Debug().
				Str("service", step.Service).
				Str("op", step.Op.String()).
				Dur("duration", elapsed).
				Msg("Step succeeded")
		}
		rep.Steps = append(rep.Steps, sr)
	}

	rep.FinishedAt = time.Now()
	return rep
}

func skippedResult(step plan.Step, cause string) report.StepResult {
	return report.StepResult{
		Service: step.Service,
		Op:      step.Op.String(),
		Outcome: report.OutcomeSkipped,
		Cause:   cause,
	}
}
