package app

import (
	"github.com/arbitrack/arbitrack/business/arbitrage/domain"
)

// Reporter receives each completed scan cycle for out-of-band presentation.
type Reporter interface {
	Report(result domain.ScanResult)
}
