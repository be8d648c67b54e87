package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/arbitrack/arbitrack/business/arbitrage/domain"
	"github.com/arbitrack/arbitrack/internal/apperror"
	"github.com/arbitrack/arbitrack/internal/cache"
	"github.com/arbitrack/arbitrack/internal/logger"
)

const schedulerMeterName = "arbitrage_scheduler"

// maxStaleEntries caps the in-memory stale fallbacks. Sized payloads are
// keyed per rounded investment, so the map would otherwise grow with every
// distinct amount callers ever ask for.
const maxStaleEntries = 64

// ComputeFunc produces a fresh payload for a cache key.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// SchedulerConfig holds cache and refresh settings.
type SchedulerConfig struct {
	TTL             time.Duration
	RefreshInterval time.Duration
}

// Scheduler owns the TTL cache in front of the scan pipeline. Reads go
// through GetOrCompute: a fresh entry is served as-is, a miss triggers
// exactly one computation per key regardless of concurrent callers, and a
// failed computation falls back to the last good payload when one exists.
// A cron timer keeps the ranked key warm independent of traffic.
type Scheduler struct {
	store  cache.Store
	cfg    SchedulerConfig
	logger logger.LoggerInterface

	group singleflight.Group
	cron  *cron.Cron
	now   func() time.Time

	mu       sync.RWMutex
	lastGood map[Key]staleEntry
	timing   domain.RefreshTiming

	hitCounter     metric.Int64Counter
	refreshCounter metric.Int64Counter
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(store cache.Store, cfg SchedulerConfig, log logger.LoggerInterface) (*Scheduler, error) {
	meter := otel.GetMeterProvider().Meter(schedulerMeterName)

	hitCounter, err := meter.Int64Counter("cache_requests_total",
		metric.WithDescription("Cache reads by outcome (hit, miss, stale)"))
	if err != nil {
		return nil, err
	}
	refreshCounter, err := meter.Int64Counter("refresh_cycles_total",
		metric.WithDescription("Warm refresh cycles by outcome"))
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		store:          store,
		cfg:            cfg,
		logger:         log,
		now:            time.Now,
		lastGood:       make(map[Key]staleEntry),
		hitCounter:     hitCounter,
		refreshCounter: refreshCounter,
	}, nil
}

// SetClock overrides the time source. Tests only.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// GetOrCompute returns the cached payload for key, computing it when absent
// or expired. Concurrent callers on a cold key share one computation.
func (s *Scheduler) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) ([]byte, error) {
	if payload, ok := s.lookup(ctx, key); ok {
		s.hitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "hit")))
		return payload, nil
	}

	v, err, _ := s.group.Do(string(key), func() (any, error) {
		// A sibling caller may have filled the entry while this one waited.
		if payload, ok := s.lookup(ctx, key); ok {
			return payload, nil
		}

		payload, err := compute(ctx)
		if err != nil {
			if stale, ok := s.stale(key); ok {
				s.hitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "stale")))
				s.logger.Warn(ctx, "computation failed, serving last good payload",
					"key", string(key), "error", err)
				return stale, nil
			}
			return nil, apperror.New(apperror.CodeScanFailed,
				apperror.WithCause(err),
				apperror.WithMessage("scan temporarily unavailable"))
		}

		s.hitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "miss")))
		s.put(ctx, key, payload)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Start schedules the periodic warm refresh. refresh is expected to run one
// cycle through RefreshRanked; the first cycle is the caller's
// responsibility, so a slow venue never delays process startup.
func (s *Scheduler) Start(refresh func(ctx context.Context) error) error {
	s.cron = cron.New()

	spec := fmt.Sprintf("@every %s", s.cfg.RefreshInterval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RefreshInterval)
		defer cancel()

		if err := refresh(ctx); err != nil {
			s.logger.Error(ctx, "warm refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the warm refresh timer and waits for a running cycle.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RefreshRanked computes a fresh ranked payload, replaces the cached entry,
// and advances the refresh timing. On failure the previous payload stays
// in place. Synchronous so callers (and tests) can drive cycles directly.
func (s *Scheduler) RefreshRanked(ctx context.Context, compute ComputeFunc) error {
	payload, err := compute(ctx)
	if err != nil {
		s.refreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))
		return err
	}

	s.put(ctx, RankedKey(), payload)
	s.advanceTiming(ctx)
	s.refreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))

	s.logger.Info(ctx, "ranked payload refreshed", "bytes", len(payload))
	return nil
}

// Timing returns the current refresh schedule. A process that has not run a
// cycle yet recovers the schedule persisted by a previous one when the store
// is shared.
func (s *Scheduler) Timing(ctx context.Context) domain.RefreshTiming {
	s.mu.RLock()
	timing := s.timing
	s.mu.RUnlock()
	if timing != (domain.RefreshTiming{}) {
		return timing
	}

	payload, found := s.lookup(ctx, TimingKey())
	if !found {
		return timing
	}
	var persisted domain.RefreshTiming
	if err := json.Unmarshal(payload, &persisted); err != nil {
		s.logger.Warn(ctx, "malformed persisted refresh timing", "error", err)
		return timing
	}

	s.mu.Lock()
	if s.timing == (domain.RefreshTiming{}) {
		s.timing = persisted
	}
	s.mu.Unlock()
	return persisted
}

// lookup reads a key from the store. A backend error is reported as a miss;
// the scanner degrades to recomputation rather than failing reads.
func (s *Scheduler) lookup(ctx context.Context, key Key) ([]byte, bool) {
	payload, found, err := s.store.Get(ctx, string(key))
	if err != nil {
		s.logger.Warn(ctx, "cache backend read failed", "key", string(key), "error", err)
		return nil, false
	}
	return payload, found
}

// staleEntry is an in-memory fallback payload kept past the store TTL.
type staleEntry struct {
	payload  []byte
	storedAt time.Time
}

// put writes a payload to the store and records it as the stale fallback.
func (s *Scheduler) put(ctx context.Context, key Key, payload []byte) {
	if err := s.store.Set(ctx, string(key), payload, s.cfg.TTL); err != nil {
		s.logger.Warn(ctx, "cache backend write failed", "key", string(key), "error", err)
	}

	s.mu.Lock()
	s.lastGood[key] = staleEntry{payload: payload, storedAt: s.now()}
	if len(s.lastGood) > maxStaleEntries {
		s.evictOldestLocked()
	}
	s.mu.Unlock()
}

// stale returns the last good payload for a key, if any.
func (s *Scheduler) stale(key Key) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.lastGood[key]
	return entry.payload, ok
}

// evictOldestLocked drops the oldest fallback entry. The ranked key is
// pinned; the stale path must always be able to serve the main cycle.
func (s *Scheduler) evictOldestLocked() {
	var (
		oldest   Key
		oldestAt time.Time
	)
	for key, entry := range s.lastGood {
		if key == RankedKey() {
			continue
		}
		if oldest == "" || entry.storedAt.Before(oldestAt) {
			oldest = key
			oldestAt = entry.storedAt
		}
	}
	if oldest != "" {
		delete(s.lastGood, oldest)
	}
}

// advanceTiming records the completed cycle and persists the schedule so it
// survives a restart with a shared backend.
func (s *Scheduler) advanceTiming(ctx context.Context) {
	now := s.now()
	timing := domain.RefreshTiming{
		LastRefreshTime: now.UnixMilli(),
		NextRefreshTime: now.Add(s.cfg.RefreshInterval).UnixMilli(),
	}

	s.mu.Lock()
	s.timing = timing
	s.mu.Unlock()

	payload, err := json.Marshal(timing)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, string(TimingKey()), payload, s.cfg.TTL); err != nil {
		s.logger.Warn(ctx, "failed to persist refresh timing", "error", err)
	}
}
