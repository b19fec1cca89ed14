package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(4)
	var n atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { n.Add(1) })
	}
	p.Stop()
	assert.Equal(t, int64(100), n.Load())
}

func TestSubmitKeyedDropsDuplicateInFlight(t *testing.T) {
	p := NewPool(1)
	started := make(chan struct{})
	release := make(chan struct{})

	require.True(t, p.SubmitKeyed("pay-1", func() {
		close(started)
		<-release
	}))
	<-started

	assert.False(t, p.SubmitKeyed("pay-1", func() {}))
	assert.True(t, p.SubmitKeyed("pay-2", func() {}))

	close(release)
	p.Stop()
}

func TestSubmitKeyedAllowsResubmitAfterCompletion(t *testing.T) {
	p := NewPool(1)
	var wg sync.WaitGroup

	wg.Add(1)
	require.True(t, p.SubmitKeyed("k", func() { wg.Done() }))
	wg.Wait()

	// first run finished; same key accepted again (may need a retry while
	// the worker clears the inflight marker)
	ok := false
	for i := 0; i < 1000 && !ok; i++ {
		ok = p.SubmitKeyed("k", func() {})
		if !ok {
			time.Sleep(time.Millisecond)
		}
	}
	assert.True(t, ok)
	p.Stop()
}
