package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestStepClock_AdvancesPerCall(t *testing.T) {
	clock := NewStepClock(testStart, time.Second)

	assert.Equal(t, testStart, clock.Now())
	assert.Equal(t, testStart.Add(time.Second), clock.Now())
	assert.Equal(t, testStart.Add(2*time.Second), clock.Current())
}

func TestStepClock_ZeroStepFreezes(t *testing.T) {
	clock := NewStepClock(testStart, 0)

	assert.Equal(t, testStart, clock.Now())
	assert.Equal(t, testStart, clock.Now())
}

func TestStepClock_Advance(t *testing.T) {
	clock := NewStepClock(testStart, 0)
	clock.Advance(5 * time.Hour)

	assert.Equal(t, testStart.Add(5*time.Hour), clock.Now())
}

func TestStepClock_ConcurrentNowYieldsDistinctTimes(t *testing.T) {
	clock := NewStepClock(testStart, time.Millisecond)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make(chan time.Time, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- clock.Now()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[time.Time]bool)
	for ts := range results {
		require.False(t, seen[ts], "duplicate timestamp %v", ts)
		seen[ts] = true
	}
	assert.Len(t, seen, goroutines)
}

func TestFixedTokenGenerator(t *testing.T) {
	gen := NewFixedTokenGenerator("tok-1")
	assert.Equal(t, "tok-1", gen.Generate())
	assert.Equal(t, "tok-1", gen.Generate())

	assert.Equal(t, "test-launch-token", NewFixedTokenGenerator("").Generate())
}
