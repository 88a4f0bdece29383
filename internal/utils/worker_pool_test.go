package utils

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsTasksInOrderWithOneWorker(t *testing.T) {
	pool := NewWorkerPool(1, 10, zerolog.Nop())

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		assert.True(t, pool.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	pool.Shutdown()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestWorkerPool_DropsWhenFull(t *testing.T) {
	pool := NewWorkerPool(1, 1, zerolog.Nop())

	release := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, pool.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	assert.True(t, pool.Submit(func() {}))
	assert.False(t, pool.Submit(func() {}))

	close(release)
	pool.Shutdown()
}

func TestWorkerPool_SurvivesPanicAndRejectsAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(2, 4, zerolog.Nop())

	var ran atomic.Int32
	pool.Submit(func() { panic("boom") })
	pool.Submit(func() { ran.Add(1) })
	pool.Shutdown()

	assert.Equal(t, int32(1), ran.Load())
	assert.False(t, pool.Submit(func() { ran.Add(1) }))
	pool.Shutdown()
}
