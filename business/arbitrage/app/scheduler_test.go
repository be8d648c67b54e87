package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitrack/arbitrack/internal/apperror"
	"github.com/arbitrack/arbitrack/internal/cache"
	"github.com/arbitrack/arbitrack/internal/logger"
)

func newTestScheduler(t *testing.T) (*Scheduler, *cache.MemoryStore) {
	t.Helper()

	store := cache.NewMemoryStore()
	s, err := NewScheduler(store, SchedulerConfig{
		TTL:             300 * time.Second,
		RefreshInterval: 300 * time.Second,
	}, logger.NewNop())
	require.NoError(t, err)

	return s, store
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	s, _ := newTestScheduler(t)

	var computations int64
	compute := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt64(&computations, 1)
		time.Sleep(50 * time.Millisecond) // hold the flight open for the other callers
		return []byte(`{"cycle":1}`), nil
	}

	const callers = 20
	results := make([][]byte, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			payload, err := s.GetOrCompute(context.Background(), RankedKey(), compute)
			assert.NoError(t, err)
			results[i] = payload
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&computations),
		"concurrent cold reads must share one computation")
	for _, payload := range results {
		assert.Equal(t, []byte(`{"cycle":1}`), payload)
	}
}

func TestGetOrComputeServesFreshEntryUnchanged(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	var computations int64
	compute := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt64(&computations, 1)
		return []byte(`{"cycle":1}`), nil
	}

	first, err := s.GetOrCompute(ctx, RankedKey(), compute)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := s.GetOrCompute(ctx, RankedKey(), compute)
		require.NoError(t, err)
		assert.Equal(t, first, again, "reads within the TTL window must be byte-identical")
	}

	assert.EqualValues(t, 1, computations, "fresh entries must not recompute")
}

func TestGetOrComputeRecomputesAfterExpiry(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	cycle := 0
	compute := func(ctx context.Context) ([]byte, error) {
		cycle++
		return []byte{byte('0' + cycle)}, nil
	}

	first, err := s.GetOrCompute(ctx, RankedKey(), compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), first)

	now = now.Add(301 * time.Second)

	second, err := s.GetOrCompute(ctx, RankedKey(), compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), second, "an expired entry must be recomputed")
}

func TestGetOrComputeServesStaleOnFailure(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	good := []byte(`{"cycle":1}`)
	_, err := s.GetOrCompute(ctx, RankedKey(), func(ctx context.Context) ([]byte, error) {
		return good, nil
	})
	require.NoError(t, err)

	now = now.Add(301 * time.Second)

	payload, err := s.GetOrCompute(ctx, RankedKey(), func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("every venue timed out")
	})
	require.NoError(t, err, "a failed recomputation with a previous payload must not surface")
	assert.Equal(t, good, payload)
}

func TestGetOrComputeFailsWithoutStale(t *testing.T) {
	s, _ := newTestScheduler(t)

	_, err := s.GetOrCompute(context.Background(), RankedKey(), func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("every venue timed out")
	})

	require.Error(t, err)
	assert.Equal(t, apperror.CodeScanFailed, apperror.GetCode(err))
	assert.NotContains(t, err.Error(), "timed out",
		"internal failure detail must not leak through the facade error")
}

func TestRefreshRankedAdvancesTiming(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.RefreshRanked(ctx, func(ctx context.Context) ([]byte, error) {
		return []byte(`{"cycle":1}`), nil
	}))

	timing := s.Timing(ctx)
	assert.Equal(t, now.UnixMilli(), timing.LastRefreshTime)
	assert.Equal(t, now.Add(300*time.Second).UnixMilli(), timing.NextRefreshTime)

	// The refreshed payload replaces the cached entry without recomputation.
	payload, err := s.GetOrCompute(ctx, RankedKey(), func(ctx context.Context) ([]byte, error) {
		t.Fatal("warm entry must not recompute")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"cycle":1}`), payload)
}

func TestRefreshRankedKeepsOldPayloadOnFailure(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.RefreshRanked(ctx, func(ctx context.Context) ([]byte, error) {
		return []byte(`{"cycle":1}`), nil
	}))
	before := s.Timing(ctx)

	err := s.RefreshRanked(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("collection failed")
	})
	require.Error(t, err)
	assert.Equal(t, before, s.Timing(ctx), "a failed cycle must not advance the schedule")

	payload, err := s.GetOrCompute(ctx, RankedKey(), func(ctx context.Context) ([]byte, error) {
		t.Fatal("previous payload must still be served")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"cycle":1}`), payload)
}

func TestTimingRecoveredFromSharedStore(t *testing.T) {
	first, store := newTestScheduler(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first.SetClock(func() time.Time { return now })

	require.NoError(t, first.RefreshRanked(ctx, func(ctx context.Context) ([]byte, error) {
		return []byte(`{"cycle":1}`), nil
	}))

	// A new scheduler over the same store stands in for a restarted process.
	second, err := NewScheduler(store, SchedulerConfig{
		TTL:             300 * time.Second,
		RefreshInterval: 300 * time.Second,
	}, logger.NewNop())
	require.NoError(t, err)

	timing := second.Timing(ctx)
	assert.Equal(t, now.UnixMilli(), timing.LastRefreshTime,
		"the schedule persisted by the previous process must be recovered")
	assert.Equal(t, now.Add(300*time.Second).UnixMilli(), timing.NextRefreshTime)
}

func TestStaleFallbacksAreBounded(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	})

	s.put(ctx, RankedKey(), []byte(`{"cycle":1}`))

	// One sized payload per distinct investment, far past the cap.
	for i := 0; i < maxStaleEntries*3; i++ {
		investment := decimal.NewFromInt(int64(1000 + i))
		s.put(ctx, SizedKey(investment), []byte(`[]`))
	}

	s.mu.RLock()
	size := len(s.lastGood)
	s.mu.RUnlock()
	assert.LessOrEqual(t, size, maxStaleEntries,
		"sized fallbacks must not accumulate one entry per investment forever")

	payload, ok := s.stale(RankedKey())
	require.True(t, ok, "the ranked fallback must survive sized-key churn")
	assert.Equal(t, []byte(`{"cycle":1}`), payload)
}
