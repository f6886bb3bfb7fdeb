package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPostRunsInOrder(t *testing.T) {
	l := New(clockwork.NewFakeClock(), 8)
	defer l.Close()
	ctx := testContext(t)

	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, l.RunOne(ctx))
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestAfterFuncFiresOnAdvance(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 8)
	defer l.Close()
	ctx := testContext(t)

	fired := false
	l.AfterFunc(time.Second, func() { fired = true })

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, l.Pending())

	clock.Advance(time.Millisecond)
	require.NoError(t, l.RunOne(ctx))
	assert.True(t, fired)
}

func TestStoppedTaskNeverRuns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 8)
	defer l.Close()

	fired := false
	task := l.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, task.Stop())
	assert.False(t, task.Stop(), "second stop is a no-op")

	clock.Advance(2 * time.Second)
	assert.Equal(t, 0, l.Pending())
	assert.False(t, fired)
}

func TestStopAfterFireBeforeRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 8)
	defer l.Close()
	ctx := testContext(t)

	fired := false
	task := l.AfterFunc(time.Second, func() { fired = true })
	clock.Advance(time.Second)

	// wait for the timer goroutine to enqueue the task
	require.Eventually(t, func() bool { return l.Pending() == 1 }, time.Second, time.Millisecond)

	task.Stop()
	require.NoError(t, l.RunOne(ctx))
	assert.False(t, fired, "a task stopped before the loop ran it must not fire")
}

func TestStopAfterRunReportsFalse(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 8)
	defer l.Close()
	ctx := testContext(t)

	fired := false
	task := l.AfterFunc(time.Second, func() { fired = true })
	clock.Advance(time.Second)
	require.NoError(t, l.RunOne(ctx))
	require.True(t, fired)

	assert.False(t, task.Stop(), "nothing left to prevent")
	assert.False(t, task.Stop())
}

func TestReplaceCancelsPrevious(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 8)
	defer l.Close()
	ctx := testContext(t)

	var calls []string
	var slot *Task
	Replace(&slot, l.AfterFunc(time.Second, func() { calls = append(calls, "first") }))
	Replace(&slot, l.AfterFunc(time.Second, func() { calls = append(calls, "second") }))

	clock.Advance(time.Second)
	require.NoError(t, l.RunOne(ctx))
	assert.Equal(t, []string{"second"}, calls)
	assert.Equal(t, 0, l.Pending())
}

func TestRunStopsOnCancel(t *testing.T) {
	l := New(clockwork.NewFakeClock(), 8)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	require.NoError(t, l.Post(func() { close(ran) }))
	<-ran

	cancel()
	require.NoError(t, <-done)
	assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
}

func TestAfterTaskHook(t *testing.T) {
	l := New(clockwork.NewFakeClock(), 8)
	defer l.Close()
	ctx := testContext(t)

	hooks := 0
	l.AfterTask = func() { hooks++ }
	require.NoError(t, l.Post(func() {}))
	require.NoError(t, l.Post(func() {}))
	require.NoError(t, l.RunOne(ctx))
	require.NoError(t, l.RunOne(ctx))
	assert.Equal(t, 2, hooks)
}
