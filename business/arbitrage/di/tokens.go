// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/arbitrack/arbitrack/business/arbitrage/app"
	"github.com/arbitrack/arbitrack/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("arbitrage.Service")
)

// Private dependency tokens - internal to arbitrage module
var (
	Detector  = di.NewToken[*app.Detector]("arbitrage:detector")
	Sizer     = di.NewToken[*app.Sizer]("arbitrage:sizer")
	Scheduler = di.NewToken[*app.Scheduler]("arbitrage:scheduler")
	Reporter  = di.NewToken[app.Reporter]("arbitrage:reporter")
)

// Helper functions for type-safe access
func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetSizer(c di.ServiceRegistry) *app.Sizer {
	return di.GetToken(c, Sizer)
}

func GetScheduler(c di.ServiceRegistry) *app.Scheduler {
	return di.GetToken(c, Scheduler)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
