package dropout

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := synthesizeSeries(75, 5, 30, 7, 0.6, 0, 100, rng)

	require.Len(t, points, 30)

	for i, p := range points {
		assert.Equal(t, i+1, p.Day)

		// Noise band plus the maximum trend contribution
		assert.GreaterOrEqual(t, p.Value, 70.0)
		assert.LessOrEqual(t, p.Value, 75.0+5.0+0.6*7)
	}

	// Dates span 30 consecutive days
	first, err := time.Parse("2006-01-02", points[0].Date)
	require.NoError(t, err)
	last, err := time.Parse("2006-01-02", points[29].Date)
	require.NoError(t, err)
	assert.Equal(t, 29, int(last.Sub(first).Hours()/24))
	assert.False(t, last.After(time.Now().UTC()))
}

func TestSynthesizeSeriesTrendWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	// Zero noise isolates the trend term
	points := synthesizeSeries(30, 0, 30, 7, 1.0, 0, 0, rng)

	for _, p := range points[:23] {
		assert.Equal(t, 30.0, p.Value)
	}
	for i, p := range points[23:] {
		assert.InDelta(t, 30.0+float64(i+1), p.Value, 0.001)
	}
}

func TestSynthesizeSeriesClamping(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	points := synthesizeSeries(98, 15, 30, 7, 1.0, 0, 100, rng)

	for _, p := range points {
		require.GreaterOrEqual(t, p.Value, 0.0)
		require.LessOrEqual(t, p.Value, 100.0)
	}
}
