package profiler

import (
	"github.com/dmitrymomot/profiler/pkg/personalize"
	"github.com/dmitrymomot/profiler/pkg/signal"
)

type (
	DataPoint = signal.DataPoint
	Action    = signal.Action
	Contact   = signal.Contact
	Variant   = personalize.Variant
	// PersonalizationResult summarizes one personalization pass.
	PersonalizationResult = personalize.Result
)

// Weighted returns a data point with a weight.
func Weighted(name string, weight int) DataPoint {
	return signal.Weighted(name, weight)
}
