package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, Epoch, clock.Current())
}

func TestDeterministicClock_NowAdvancesMonotonically(t *testing.T) {
	clock := NewDeterministicClock()

	first := clock.Now()
	assert.Equal(t, Epoch.Add(time.Second), first)
	assert.Equal(t, first, clock.Current())

	second := clock.Now()
	assert.True(t, second.After(first))
	assert.Equal(t, Epoch.Add(2*time.Second), second)
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, Epoch, clock.Current())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, Epoch.Add(1000*time.Second), clock.Current())
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("user")
	assert.Equal(t, "user-1", gen.Generate())
	assert.Equal(t, "user-2", gen.Generate())

	assert.Equal(t, "id-1", NewSequenceGenerator("").Generate())
}
