package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arbitrack/arbitrack/business/marketdata/domain"
	"github.com/arbitrack/arbitrack/internal/apperror"
)

// fakeClient is a scripted ExchangeClient for pool and collector tests.
type fakeClient struct {
	name        string
	initErr     error
	markets     map[string]bool
	tickers     map[string]domain.Ticker
	tickerErrs  map[string]error
	fetchDelay  time.Duration
	loadedCalls int
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) LoadMarkets(ctx context.Context) error {
	f.loadedCalls++
	return f.initErr
}

func (f *fakeClient) Supports(asset string) bool {
	return f.markets[asset]
}

func (f *fakeClient) FetchTicker(ctx context.Context, asset string) (domain.Ticker, error) {
	if f.fetchDelay > 0 {
		select {
		case <-time.After(f.fetchDelay):
		case <-ctx.Done():
			return domain.Ticker{}, ctx.Err()
		}
	}
	if err, ok := f.tickerErrs[asset]; ok {
		return domain.Ticker{}, err
	}
	t, ok := f.tickers[asset]
	if !ok {
		return domain.Ticker{}, errors.New("no scripted ticker")
	}
	return t, nil
}

func ticker(last, quoteVolume float64) domain.Ticker {
	return domain.Ticker{
		Last:        decimal.NewFromFloat(last),
		QuoteVolume: decimal.NewFromFloat(quoteVolume),
	}
}

func TestInitializeKeepsSurvivors(t *testing.T) {
	clients := []ExchangeClient{
		&fakeClient{name: "a"},
		&fakeClient{name: "b", initErr: errors.New("catalog endpoint 503")},
		&fakeClient{name: "c"},
		&fakeClient{name: "d"},
		&fakeClient{name: "e"},
	}

	pool := NewPool(clients, time.Second, testLogger())
	if err := pool.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v, want nil when sources survive", err)
	}

	if got := pool.ActiveCount(); got != 4 {
		t.Fatalf("ActiveCount() = %d, want 4", got)
	}
	for _, c := range pool.Active() {
		if c.Name() == "b" {
			t.Error("failed source must not appear in the active set")
		}
	}
}

func TestInitializeFailsWhenNoSourceSurvives(t *testing.T) {
	clients := []ExchangeClient{
		&fakeClient{name: "a", initErr: errors.New("down")},
		&fakeClient{name: "b", initErr: errors.New("down")},
	}

	pool := NewPool(clients, time.Second, testLogger())
	err := pool.Initialize(context.Background())
	if err == nil {
		t.Fatal("Initialize() = nil, want error when every source fails")
	}
	if got := apperror.GetCode(err); got != apperror.CodeNoActiveSources {
		t.Errorf("error code = %s, want %s", got, apperror.CodeNoActiveSources)
	}
}

func TestInitializeLoadsEachSourceOnce(t *testing.T) {
	a := &fakeClient{name: "a"}
	b := &fakeClient{name: "b"}

	pool := NewPool([]ExchangeClient{a, b}, time.Second, testLogger())
	if err := pool.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if a.loadedCalls != 1 || b.loadedCalls != 1 {
		t.Errorf("LoadMarkets calls = %d/%d, want 1/1", a.loadedCalls, b.loadedCalls)
	}
}
