package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvery_RunsPeriodically(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	defer g.Close()

	var runs atomic.Int32
	_, err := g.Every(5*time.Millisecond, func(time.Time) { runs.Add(1) })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestEvery_InvalidInterval(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	_, err := g.Every(0, func(time.Time) {})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestStop_NoRunAfterReturn(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	defer g.Close()

	var runs atomic.Int32
	task, err := g.Every(time.Millisecond, func(time.Time) {
		time.Sleep(2 * time.Millisecond)
		runs.Add(1)
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)

	task.Stop()
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, after, runs.Load())
	assert.Equal(t, 0, g.Len())
}

func TestStop_Idempotent(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	task, err := g.Every(time.Hour, func(time.Time) {})
	require.NoError(t, err)

	task.Stop()
	task.Stop()
	g.Close()
}

func TestClose_StopsAllTasks(t *testing.T) {
	g := NewGroup(zerolog.Nop())

	var a, b atomic.Int32
	_, err := g.Every(time.Millisecond, func(time.Time) { a.Add(1) })
	require.NoError(t, err)
	_, err = g.Every(time.Millisecond, func(time.Time) { b.Add(1) })
	require.NoError(t, err)
	require.Eventually(t, func() bool { return a.Load() > 0 && b.Load() > 0 }, time.Second, time.Millisecond)

	g.Close()
	ra, rb := a.Load(), b.Load()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, ra, a.Load())
	assert.Equal(t, rb, b.Load())
	assert.Equal(t, 0, g.Len())

	_, err = g.Every(time.Millisecond, func(time.Time) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPanicDoesNotKillTask(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	defer g.Close()

	var runs atomic.Int32
	_, err := g.Every(time.Millisecond, func(time.Time) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
}
