package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arbitrack/arbitrack/business/arbitrage/domain"
	marketdataApp "github.com/arbitrack/arbitrack/business/marketdata/app"
	"github.com/arbitrack/arbitrack/internal/apperror"
	"github.com/arbitrack/arbitrack/internal/logger"
)

// Service is the query facade over the scan pipeline. Every read goes
// through the scheduler's cache; a scan runs only when the cached cycle is
// missing or expired.
type Service struct {
	pool      *marketdataApp.Pool
	collector *marketdataApp.Collector
	detector  *Detector
	sizer     *Sizer
	scheduler *Scheduler
	assets    []string
	reporter  Reporter
	logger    logger.LoggerInterface
}

// NewService creates the facade. reporter may be nil.
func NewService(
	pool *marketdataApp.Pool,
	collector *marketdataApp.Collector,
	detector *Detector,
	sizer *Sizer,
	scheduler *Scheduler,
	assets []string,
	reporter Reporter,
	log logger.LoggerInterface,
) *Service {
	return &Service{
		pool:      pool,
		collector: collector,
		detector:  detector,
		sizer:     sizer,
		scheduler: scheduler,
		assets:    assets,
		reporter:  reporter,
		logger:    log,
	}
}

// GetRankedOpportunities returns the current cycle's ranked opportunity
// list with its metadata.
func (s *Service) GetRankedOpportunities(ctx context.Context) (domain.ScanResult, error) {
	payload, err := s.scheduler.GetOrCompute(ctx, RankedKey(), s.computeRanked)
	if err != nil {
		return domain.ScanResult{}, err
	}

	var result domain.ScanResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.ScanResult{}, apperror.Internal(apperror.CodeCacheEncoding, "ranked payload", err)
	}
	return result, nil
}

// GetSizedOpportunities returns the current cycle sized against the given
// investment. Non-positive investments use the default. Sized payloads are
// cached per rounded investment and derive from the ranked cycle, so they
// expire with it.
func (s *Service) GetSizedOpportunities(ctx context.Context, investment decimal.Decimal) ([]domain.SizedOpportunity, error) {
	investment = s.sizer.Normalize(investment)
	key := SizedKey(investment)

	payload, err := s.scheduler.GetOrCompute(ctx, key, func(ctx context.Context) ([]byte, error) {
		ranked, err := s.GetRankedOpportunities(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(s.sizer.SizeAll(ranked.Opportunities, investment))
	})
	if err != nil {
		return nil, err
	}

	var sized []domain.SizedOpportunity
	if err := json.Unmarshal(payload, &sized); err != nil {
		return nil, apperror.Internal(apperror.CodeCacheEncoding, "sized payload", err)
	}
	return sized, nil
}

// GetRefreshTiming returns the warm-refresh schedule.
func (s *Service) GetRefreshTiming(ctx context.Context) domain.RefreshTiming {
	return s.scheduler.Timing(ctx)
}

// ParseInvestment interprets a caller-supplied investment string, falling
// back to the default on anything non-numeric or non-positive.
func (s *Service) ParseInvestment(raw string) decimal.Decimal {
	return s.sizer.ParseInvestment(raw)
}

// RefreshNow runs one synchronous scan cycle and replaces the cached
// ranked payload.
func (s *Service) RefreshNow(ctx context.Context) error {
	return s.scheduler.RefreshRanked(ctx, s.computeRanked)
}

// computeRanked runs one full scan: collect, detect, rank, report.
func (s *Service) computeRanked(ctx context.Context) ([]byte, error) {
	started := time.Now()

	quotes := s.collector.Collect(ctx, s.assets)

	// scannedPairs counts the assets that produced at least one surviving
	// quote this cycle, not the configured universe.
	result := s.detector.Detect(quotes, s.pool.ActiveCount(), len(quotes), time.Now())

	s.logger.Info(ctx, "scan cycle completed",
		"opportunities", len(result.Opportunities),
		"exchanges", result.ExchangeCount,
		"pairs", result.ScannedPairs,
		"elapsed", time.Since(started).String())

	if s.reporter != nil {
		s.reporter.Report(result)
	}

	return json.Marshal(result)
}
