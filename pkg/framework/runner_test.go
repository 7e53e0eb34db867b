package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerAggregatesErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		NamedRun("b", RunFunc(func(context.Context) error { return errB })),
		RunFunc(func(context.Context) error { return context.Canceled }),
		RunFunc(func(context.Context) error { return nil }),
	)
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.ElementsMatch(t, []error{errA, errB}, agg.Errors)
}

func TestRunnerNoError(t *testing.T) {
	r := NewRunner().Go(RunFunc(func(context.Context) error { return nil }))
	require.NoError(t, r.Wait())
}

func TestRunWithContext(t *testing.T) {
	require.Equal(t, errors.New("done"), RunWithContext(context.Background(), func() error {
		return errors.New("done")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	release := make(chan struct{})
	defer close(release)
	var canceled bool
	err := RunWithContextCancel(ctx, func() { canceled = true }, func() error {
		<-release
		return nil
	})
	require.Equal(t, context.DeadlineExceeded, err)
	require.True(t, canceled)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("one"))
	require.Equal(t, "one", errs.Aggregate().Error())
	errs.Add(errors.New("two"))
	require.Equal(t, "multiple errors:\none\ntwo", errs.Error())
}
