package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRestartableRunner_RestartsOnFailure(t *testing.T) {
	var calls atomic.Int32
	r := NewRestartableRunner(RunnerConfig{Name: "test", RestartBackoff: time.Millisecond}, func(ctx context.Context) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("boom")
		case 2:
			panic("kaboom")
		default:
			return nil
		}
	})

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return !r.IsRunning() }, time.Second, 5*time.Millisecond)

	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, 2, r.RestartCount())
	require.ErrorContains(t, r.LastError(), "panic: kaboom")
}

func TestRestartableRunner_MaxRestarts(t *testing.T) {
	var calls atomic.Int32
	r := NewRestartableRunner(RunnerConfig{Name: "test", MaxRestarts: 2, RestartBackoff: time.Millisecond}, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("always failing")
	})

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return !r.IsRunning() }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(2), calls.Load())
}

func TestRestartableRunner_Stop(t *testing.T) {
	started := make(chan struct{})
	r := NewRestartableRunner(RunnerConfig{Name: "test"}, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	require.NoError(t, r.Start(context.Background()))
	require.Error(t, r.Start(context.Background()))
	<-started

	require.NoError(t, r.Stop())
	require.False(t, r.IsRunning())
	require.Zero(t, r.RestartCount())
	require.NoError(t, r.Stop())
}
