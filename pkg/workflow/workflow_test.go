package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestRunExecutesInOrder(t *testing.T) {
	var calls []string
	step := func(name string) Step {
		return Step{Name: name, Do: func(context.Context) error {
			calls = append(calls, name)
			return nil
		}}
	}

	require.NoError(t, Run(context.Background(), step("a"), step("b"), step("c")))
	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestRunUndoesCompletedStepsInReverse(t *testing.T) {
	var undone []string
	boom := errors.New("boom")

	err := Run(context.Background(),
		Step{
			Name: "placeholder",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { undone = append(undone, "placeholder"); return nil },
		},
		Step{
			Name: "no-undo",
			Do:   func(context.Context) error { return nil },
		},
		Step{
			Name: "upload",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { undone = append(undone, "upload"); return nil },
		},
		Step{
			Name: "patch",
			Do:   func(context.Context) error { return boom },
			Undo: func(context.Context) error { undone = append(undone, "patch"); return nil },
		},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"upload", "placeholder"}, undone)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "patch", stepErr.Step)
	assert.Equal(t, boom, Cause(err))
}

func TestRunCollectsUndoFailures(t *testing.T) {
	boom := errors.New("boom")
	undoErr := errors.New("undo failed")

	err := Run(context.Background(),
		Step{
			Name: "first",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { return undoErr },
		},
		Step{Name: "second", Do: func(context.Context) error { return boom }},
	)

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, undoErr)
	assert.Equal(t, boom, Cause(err))
}
