// Package saga runs a fixed list of best-effort steps. A failed step is
// recorded and the runner moves on; there is no rollback.
package saga

import (
	"context"
	"time"
)

type StepStatus string

const (
	StepOK     StepStatus = "ok"
	StepFailed StepStatus = "failed"
)

type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

type StepResult struct {
	Name     string
	Status   StepStatus
	Err      error
	Duration time.Duration
}

// Result holds one StepResult per step, in execution order.
type Result struct {
	Steps []StepResult
}

func (r Result) OK() bool {
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			return false
		}
	}
	return true
}

func (r Result) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// LastError returns the error of the last failed step, or nil.
func (r Result) LastError() error {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if r.Steps[i].Status == StepFailed {
			return r.Steps[i].Err
		}
	}
	return nil
}

// Observer is told about every finished step.
type Observer func(StepResult)

// Run executes every step in order. A canceled context does not stop the
// remaining steps; each step decides for itself how to react to ctx.
func Run(ctx context.Context, observe Observer, steps ...Step) Result {
	res := Result{Steps: make([]StepResult, 0, len(steps))}
	for _, step := range steps {
		started := time.Now()
		err := step.Run(ctx)

		sr := StepResult{Name: step.Name, Status: StepOK, Duration: time.Since(started)}
		if err != nil {
			sr.Status = StepFailed
			sr.Err = err
		}
		res.Steps = append(res.Steps, sr)
		if observe != nil {
			observe(sr)
		}
	}
	return res
}
