package monitor

import (
	"fmt"
	"sort"
)

// Tier is the quality classification of the current latency, ordered worst
// to best.
type Tier int

const (
	Disconnected Tier = iota
	Slow
	Moderate
	Fast
)

func (t Tier) String() string {
	switch t {
	case Fast:
		return "fast"
	case Moderate:
		return "moderate"
	case Slow:
		return "slow"
	default:
		return "disconnected"
	}
}

// Thresholds holds the latency ceiling in milliseconds for each tier.
type Thresholds struct {
	Disconnected int64
	Slow         int64
	Moderate     int64
	Fast         int64
}

// DefaultThresholds returns the built-in tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Fast:         200,
		Moderate:     500,
		Slow:         1000,
		Disconnected: 3000,
	}
}

// Validate reports an error unless the ceilings increase from Fast to
// Disconnected. Classification itself never requires this ordering; callers
// that want to reject surprising tables check it at the configuration
// boundary.
func (th Thresholds) Validate() error {
	if th.Fast < th.Moderate && th.Moderate < th.Slow && th.Slow < th.Disconnected {
		return nil
	}
	return fmt.Errorf("thresholds not ordered: fast=%d moderate=%d slow=%d disconnected=%d",
		th.Fast, th.Moderate, th.Slow, th.Disconnected)
}

// classify maps a latency to the tier with the smallest ceiling still
// covering it. Failure, or a latency above every ceiling, is Disconnected.
// The ceilings are taken as configured; an inverted table simply changes
// which tier covers a value first.
func (th Thresholds) classify(latency int64) Tier {
	if latency == Failure {
		return Disconnected
	}

	bounds := []struct {
		tier    Tier
		ceiling int64
	}{
		{Disconnected, th.Disconnected},
		{Slow, th.Slow},
		{Moderate, th.Moderate},
		{Fast, th.Fast},
	}
	sort.SliceStable(bounds, func(i, j int) bool {
		return bounds[i].ceiling < bounds[j].ceiling
	})

	for _, b := range bounds {
		if latency <= b.ceiling {
			return b.tier
		}
	}
	return Disconnected
}
