package billing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burstbill/internal/domain"
)

func sampleAt(ts int64, in, out float64) domain.Sample {
	return domain.Sample{Ts: time.Unix(ts, 0), In: in, Out: out}
}

func TestCombinedMbps(t *testing.T) {
	t.Run("takes the busier direction, not the sum", func(t *testing.T) {
		vals, err := CombinedMbps([]domain.Sample{sampleAt(100, 1e6, 3e6)})
		require.NoError(t, err)
		require.Len(t, vals, 1)
		// 3e6 bytes/s * 8 / 1e6 = 24 Mbps, not 32.
		assert.Equal(t, 24.0, vals[0])
	})

	t.Run("drops samples missing either direction", func(t *testing.T) {
		samples := []domain.Sample{
			sampleAt(100, 1.25e6, 1.25e6), // 10 Mbps
			sampleAt(400, 5e6, math.NaN()),
			sampleAt(700, math.NaN(), 5e6),
			sampleAt(1000, math.NaN(), math.NaN()),
		}
		vals, err := CombinedMbps(samples)
		require.NoError(t, err)
		assert.Equal(t, []float64{10.0}, vals)
	})

	t.Run("negative rates are a validation error, not clamped", func(t *testing.T) {
		_, err := CombinedMbps([]domain.Sample{sampleAt(100, -1, 5)})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "in", verr.Direction)
		assert.Equal(t, -1.0, verr.Rate)

		_, err = CombinedMbps([]domain.Sample{sampleAt(100, 5, -2)})
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "out", verr.Direction)
	})
}

func TestPercentile(t *testing.T) {
	t.Run("empty bills zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Percentile(nil, 95))
		assert.Equal(t, 0.0, Percentile([]float64{}, 95))
	})

	t.Run("single sample is its own percentile", func(t *testing.T) {
		assert.Equal(t, 42.5, Percentile([]float64{42.5}, 95))
	})

	t.Run("all-equal samples return that value", func(t *testing.T) {
		vals := []float64{7.0, 7.0, 7.0, 7.0, 7.0, 7.0, 7.0, 7.0, 7.0, 7.0}
		assert.Equal(t, 7.0, Percentile(vals, 95))
	})

	t.Run("linear interpolation between order statistics", func(t *testing.T) {
		// 1..100: rank = 0.95*99 = 94.05, between sorted[94]=95 and
		// sorted[95]=96 -> 95.05. Matches numpy's default method.
		vals := make([]float64, 100)
		for i := range vals {
			vals[i] = float64(i + 1)
		}
		assert.InDelta(t, 95.05, Percentile(vals, 95), 1e-9)
	})

	t.Run("input order is irrelevant and input is not mutated", func(t *testing.T) {
		vals := []float64{30, 10, 20}
		assert.InDelta(t, 29.0, Percentile(vals, 95), 1e-9)
		assert.Equal(t, []float64{30, 10, 20}, vals)
	})

	t.Run("one valid sample among gaps is not pulled toward zero", func(t *testing.T) {
		samples := []domain.Sample{sampleAt(100, 1.25e6, 1e6)} // 10 Mbps
		for i := int64(1); i < 10; i++ {
			samples = append(samples, sampleAt(100+i*300, math.NaN(), math.NaN()))
		}
		vals, err := CombinedMbps(samples)
		require.NoError(t, err)
		assert.Equal(t, 10.0, Percentile(vals, 95))
	})
}
