package app

import (
	"context"
	"time"

	"github.com/arbitrack/arbitrack/internal/apperror"
	"github.com/arbitrack/arbitrack/internal/logger"
	"github.com/arbitrack/arbitrack/internal/settle"
)

// Pool holds the configured exchange clients and tracks which of them
// initialized successfully. After Initialize the active set is fixed for
// the process lifetime; failed sources are never re-probed.
type Pool struct {
	clients     []ExchangeClient
	active      []ExchangeClient
	initTimeout time.Duration
	logger      logger.LoggerInterface
}

// NewPool creates a pool over the given clients.
func NewPool(clients []ExchangeClient, initTimeout time.Duration, log logger.LoggerInterface) *Pool {
	return &Pool{
		clients:     clients,
		initTimeout: initTimeout,
		logger:      log,
	}
}

// Initialize loads markets on every client concurrently. Each client gets
// its own timeout; one venue failing slowly must not hold the others back.
// A client that fails is logged and excluded, never aborting the rest.
// Returns an error only when no source survives.
func (p *Pool) Initialize(ctx context.Context) error {
	tasks := make([]settle.Task[ExchangeClient], len(p.clients))
	for i, client := range p.clients {
		client := client
		tasks[i] = func(ctx context.Context) (ExchangeClient, error) {
			if err := client.LoadMarkets(ctx); err != nil {
				return nil, err
			}
			return client, nil
		}
	}

	results := settle.AllWithTimeout(ctx, func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, p.initTimeout)
	}, tasks)

	p.active = p.active[:0]
	for i, r := range results {
		name := p.clients[i].Name()
		if r.Err != nil {
			p.logger.Warn(ctx, "exchange source excluded after failed initialization",
				"exchange", name, "error", r.Err)
			continue
		}
		p.active = append(p.active, r.Value)
		p.logger.Info(ctx, "exchange source initialized", "exchange", name)
	}

	if len(p.active) == 0 {
		return apperror.New(apperror.CodeNoActiveSources,
			apperror.WithContext("all exchange sources failed to initialize"))
	}

	p.logger.Info(ctx, "source pool ready",
		"active", len(p.active), "configured", len(p.clients))
	return nil
}

// Active returns the clients that initialized successfully. The returned
// slice is read-only after Initialize and safe to share across cycles.
func (p *Pool) Active() []ExchangeClient {
	return p.active
}

// ActiveCount returns the number of live sources.
func (p *Pool) ActiveCount() int {
	return len(p.active)
}
