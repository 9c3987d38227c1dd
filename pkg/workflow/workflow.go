// Package workflow runs ordered multi-write sequences with optional compensation.
package workflow

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Step is one write in a workflow. Undo is optional; a step without one is
// left in place when a later step fails.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// StepError reports which step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes steps in order. When a step fails, the Undo of every completed
// step runs in reverse order. The returned error wraps the failing step's
// error; undo failures are appended with multierr.
func Run(ctx context.Context, steps ...Step) error {
	done := make([]Step, 0, len(steps))
	for _, step := range steps {
		if step.Do == nil {
			continue
		}
		if err := step.Do(ctx); err != nil {
			var failure error = &StepError{Step: step.Name, Err: err}
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].Undo == nil {
					continue
				}
				if undoErr := done[i].Undo(ctx); undoErr != nil {
					failure = multierr.Append(failure, fmt.Errorf("undo %q: %w", done[i].Name, undoErr))
				}
			}
			return failure
		}
		done = append(done, step)
	}
	return nil
}

// Cause returns the error of the failing step when err came from Run.
func Cause(err error) error {
	for _, e := range multierr.Errors(err) {
		if stepErr, ok := e.(*StepError); ok {
			return stepErr.Err
		}
	}
	return err
}
