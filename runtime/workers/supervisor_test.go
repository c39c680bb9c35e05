package workers

import (
	"compoker/contract"
	"compoker/errors"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSupervisor_WorkerFinishingCleanlyIsNotRestarted(t *testing.T) {
	req := require.New(t)
	var runs atomic.Int32

	sup := NewSupervisor(slog.Default(), time.Millisecond)
	sup.Add(contract.WorkerFunc(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not return after the worker finished")
	}
	req.Equal(int32(1), runs.Load())
}

func TestSupervisor_RestartsCrashedWorker(t *testing.T) {
	req := require.New(t)
	var runs atomic.Int32

	// Given a worker that panics twice before succeeding
	sup := NewSupervisor(slog.Default(), time.Millisecond)
	sup.Add(contract.WorkerFunc(func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			panic("oops")
		}
		return nil
	}))

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not recover from the crashes")
	}
	req.Equal(int32(3), runs.Load())
}

func TestSupervisor_RestartsWorkerReturningError(t *testing.T) {
	req := require.New(t)
	var runs atomic.Int32

	sup := NewSupervisor(slog.Default(), time.Millisecond)
	sup.Add(contract.WorkerFunc(func(ctx context.Context) error {
		if runs.Add(1) < 2 {
			return fmt.Errorf("transient failure")
		}
		return nil
	}))

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not restart the failing worker")
	}
	req.Equal(int32(2), runs.Load())
}

func TestSupervisor_StopCancelsRunningWorkers(t *testing.T) {
	started := make(chan struct{})

	sup := NewSupervisor(slog.Default(), time.Millisecond)
	sup.Add(contract.WorkerFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never started")
	}
	sup.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after Stop")
	}
}

func TestSupervisor_ParentCancellationStopsEveryWorker(t *testing.T) {
	var runsA, runsB atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	sup := NewSupervisor(slog.Default(), time.Millisecond)
	sup.Add(
		contract.WorkerFunc(func(ctx context.Context) error {
			runsA.Add(1)
			<-ctx.Done()
			return ctx.Err()
		}),
		contract.WorkerFunc(func(ctx context.Context) error {
			runsB.Add(1)
			<-ctx.Done()
			return ctx.Err()
		}),
	)

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not observe the parent cancellation")
	}
	require.Equal(t, int32(1), runsA.Load())
	require.Equal(t, int32(1), runsB.Load())
}

func TestSupervisor_PanicIsWrapped(t *testing.T) {
	// The wrapped error is only observable through the restart log, so
	// exercise the recovery path directly: a worker panicking once and
	// then observing cancellation must not tear the supervisor down.
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	sup := NewSupervisor(slog.Default(), time.Millisecond)
	sup.Add(contract.WorkerFunc(func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			panic(errors.ErrWorkerPanic)
		}
		<-ctx.Done()
		return ctx.Err()
	}))

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}
