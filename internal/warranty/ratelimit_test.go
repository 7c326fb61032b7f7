package warranty

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterEnforcesFloorPerHost(t *testing.T) {
	l := NewLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "www.carrier.com"))
	first := time.Since(start)
	require.NoError(t, l.Wait(ctx, "www.carrier.com"))
	second := time.Since(start)

	// First request goes straight through, second waits out the floor.
	assert.Less(t, first, 20*time.Millisecond)
	assert.GreaterOrEqual(t, second, 50*time.Millisecond)
}

func TestLimiterHostsAreIndependent(t *testing.T) {
	l := NewLimiter(200 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "www.carrier.com"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "www.lennox.com"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterSerializesConcurrentWaiters(t *testing.T) {
	const floor = 30 * time.Millisecond
	l := NewLimiter(floor)
	ctx := context.Background()

	var mu sync.Mutex
	var times []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Wait(ctx, "www.goodmanmfg.com"))
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, times, 4)
	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < len(times); i++ {
		for j := i + 1; j < len(times); j++ {
			gap := times[j].Sub(times[i])
			if gap < 0 {
				gap = -gap
			}
			// Allow a little scheduling slop below the floor.
			assert.GreaterOrEqual(t, gap, floor-10*time.Millisecond)
		}
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := NewLimiter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "www.carrier.com"))
	err := l.Wait(ctx, "www.carrier.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterDefaults(t *testing.T) {
	assert.Equal(t, DefaultMinDelay, NewLimiter(0).MinDelay())
	assert.Equal(t, 5*time.Second, NewLimiter(5*time.Second).MinDelay())
}
