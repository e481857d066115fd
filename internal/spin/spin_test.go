package spin

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutex_MutualExclusion(t *testing.T) {
	const (
		workers    = 8
		iterations = 10_000
	)

	var (
		mu      Mutex
		counter int
		wg      sync.WaitGroup
	)

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range iterations {
				mu.Lock()
				counter++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*iterations, counter)
}

func TestMutex_LockUnlockSequence(t *testing.T) {
	var mu Mutex

	// Repeated acquire/release on one goroutine must never wedge.
	for range 1000 {
		mu.Lock()
		mu.Unlock()
	}
}
