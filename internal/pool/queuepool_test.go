package pool_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/apostoln/kvs/internal/pool"
)

func TestQueuePoolRunsJobs(t *testing.T) {
	p := pool.NewQueuePool(4, zerolog.Nop())
	var n int64

	for i := 0; i < 20; i++ {
		p.Spawn(func() { atomic.AddInt64(&n, 1) })
	}
	p.Shutdown()

	assert.EqualValues(t, 20, n)
}

func TestQueuePoolSurvivesPanickingJob(t *testing.T) {
	p := pool.NewQueuePool(2, zerolog.Nop())
	var ran int64

	p.Spawn(func() { panic("boom") })
	p.Spawn(func() { atomic.AddInt64(&ran, 1) })

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not shut down after a panicking job")
	}

	assert.EqualValues(t, 1, ran)
}
