package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/pkg/reactive"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	loop := NewLoop(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop, cancel
}

func TestLoopDrainsDeferredAfterTask(t *testing.T) {
	loop, _ := startLoop(t)
	var order []string

	err := loop.Call(context.Background(), func() {
		loop.Defer(func() { order = append(order, "deferred") })
		order = append(order, "task")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"task", "deferred"}, order)
}

func TestLoopDrivesScheduler(t *testing.T) {
	loop, _ := startLoop(t)

	var (
		s    *Scheduler
		cell *reactive.Cell[int]
		seen []int
	)
	require.NoError(t, loop.Call(context.Background(), func() {
		s = New(WithTicker(loop))
		g := reactive.NewGraph(s)
		cell = reactive.NewCell(g, 0)
		g.NewComputation(func() (any, error) {
			seen = append(seen, cell.Get())
			return nil, nil
		}, reactive.Options{})
	}))

	var wg sync.WaitGroup
	for i := 1; i <= 4; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_ = loop.Call(context.Background(), func() { cell.Set(v) })
		}(i)
	}
	wg.Wait()

	require.NoError(t, loop.Call(context.Background(), func() {}))
	var flushes uint64
	require.NoError(t, loop.Call(context.Background(), func() { flushes = s.Flushes() }))
	assert.Equal(t, uint64(4), flushes)
	assert.Len(t, seen, 5)
}

func TestLoopRecoversPanics(t *testing.T) {
	loop, _ := startLoop(t)
	require.NoError(t, loop.Call(context.Background(), func() { panic("task") }))

	var ok atomic.Bool
	require.NoError(t, loop.Call(context.Background(), func() { ok.Store(true) }))
	assert.True(t, ok.Load())
}

func TestLoopShutdown(t *testing.T) {
	loop := NewLoop(4, nil)
	go func() { _ = loop.Run(context.Background()) }()
	require.NoError(t, loop.Call(context.Background(), func() {}))

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, loop.Submit(func() { ran.Add(1) }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Shutdown(ctx))
	assert.Equal(t, int32(3), ran.Load())
	assert.ErrorIs(t, loop.Submit(func() {}), ErrLoopTerminated)
	assert.ErrorIs(t, loop.Run(context.Background()), ErrLoopTerminated)
}

func TestLoopRunTwice(t *testing.T) {
	loop, _ := startLoop(t)
	require.NoError(t, loop.Call(context.Background(), func() {}))
	assert.ErrorIs(t, loop.Run(context.Background()), ErrLoopAlreadyRunning)
}

func TestMicrotasksNested(t *testing.T) {
	m := &Microtasks{}
	var order []int
	m.Defer(func() {
		order = append(order, 1)
		m.Defer(func() { order = append(order, 3) })
	})
	m.Defer(func() { order = append(order, 2) })

	assert.Equal(t, 3, m.Drain())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Zero(t, m.Pending())
}
