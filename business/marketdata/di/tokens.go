// Package di contains dependency injection tokens for the market data context.
package di

import (
	"github.com/arbitrack/arbitrack/business/marketdata/app"
	"github.com/arbitrack/arbitrack/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Pool      = di.NewToken[*app.Pool]("marketdata.Pool")
	Collector = di.NewToken[*app.Collector]("marketdata.Collector")
)

// Helper functions for type-safe access
func GetPool(c di.ServiceRegistry) *app.Pool {
	return di.GetToken(c, Pool)
}

func GetCollector(c di.ServiceRegistry) *app.Collector {
	return di.GetToken(c, Collector)
}
