package waitgroup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/apostoln/kvs/internal/waitgroup"
)

func TestZeroValueWaitsImmediately(t *testing.T) {
	wg := waitgroup.New()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return for an empty WaitGroup")
	}
}

func TestAddDoneWait(t *testing.T) {
	wg := waitgroup.New()
	wg.Add(3)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	wg.Done()
	wg.Done()

	select {
	case <-done:
		t.Fatal("Wait returned before count reached zero")
	case <-time.After(50 * time.Millisecond):
	}

	wg.Done()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return once count reached zero")
	}
}

func TestDoneBelowZeroIsNoop(t *testing.T) {
	wg := waitgroup.New()
	wg.Done()
	assert.NotPanics(t, func() { wg.Wait() })
}
