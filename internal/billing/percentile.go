package billing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"burstbill/internal/domain"
)

// ValidationError reports an impossible measurement, such as a negative
// rate on a non-negative counter. These must surface, never be clamped.
type ValidationError struct {
	Ts        time.Time
	Direction string
	Rate      float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("negative %s rate %g at %s", e.Direction, e.Rate, e.Ts.Format(time.RFC3339))
}

// CombinedMbps reduces samples to one megabit-per-second value per usable
// sample: the busier direction, converted from bytes/sec. Full-duplex links
// bill per-direction-max, not the sum. Samples missing either direction are
// dropped entirely so data gaps cannot drag the percentile toward zero.
func CombinedMbps(samples []domain.Sample) ([]float64, error) {
	vals := make([]float64, 0, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.In) || math.IsNaN(s.Out) {
			continue
		}
		if s.In < 0 {
			return nil, &ValidationError{Ts: s.Ts, Direction: "in", Rate: s.In}
		}
		if s.Out < 0 {
			return nil, &ValidationError{Ts: s.Ts, Direction: "out", Rate: s.Out}
		}
		combined := s.In
		if s.Out > combined {
			combined = s.Out
		}
		vals = append(vals, combined*8/1e6)
	}
	return vals, nil
}

// Percentile computes the pct-th percentile of values by sorting and
// linearly interpolating between the floor and ceil order statistics.
// Billing amounts are contractually sensitive to the exact method, so this
// must not change. An empty input bills zero.
func Percentile(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := pct / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower < 0 {
		lower = 0
	}
	if upper > len(sorted)-1 {
		upper = len(sorted) - 1
	}
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (rank-float64(lower))*(sorted[upper]-sorted[lower])
}
