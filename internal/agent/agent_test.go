package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentRunsJobsAndFiresCallbacks(t *testing.T) {
	a := New(2, nil)
	a.Start(context.Background())

	var mu sync.Mutex
	var results []int
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		a.Enqueue(&Job{
			Kind: "noop",
			Run: func(ctx context.Context) (any, error) {
				return i, nil
			},
			OnComplete: func(result any, err error) {
				require.NoError(t, err)
				mu.Lock()
				results = append(results, result.(int))
				mu.Unlock()
				wg.Done()
			},
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}

	a.Stop()
	assert.Len(t, results, 5)
}

func TestAgentSerializesSameResourceKey(t *testing.T) {
	a := New(4, nil)
	a.Start(context.Background())

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		a.Enqueue(&Job{
			Kind:        "refresh-feed",
			ResourceKey: "feed-1",
			Run: func(ctx context.Context) (any, error) {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil, nil
			},
			OnComplete: func(result any, err error) { wg.Done() },
		})
	}

	wg.Wait()
	a.Stop()
	assert.Equal(t, 1, maxInFlight)
}

func TestAgentStopDrainsQueue(t *testing.T) {
	a := New(1, nil)
	a.Start(context.Background())

	ran := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		a.Enqueue(&Job{
			Run: func(ctx context.Context) (any, error) {
				ran <- struct{}{}
				return nil, nil
			},
		})
	}
	a.Stop()
	assert.Len(t, ran, 3)
}
