package accel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSource_NextBatch(t *testing.T) {
	t.Parallel()

	src := NewMockSource(32)
	b, err := src.NextBatch()
	require.NoError(t, err)

	assert.Equal(t, "mock", b.Source)
	assert.Equal(t, 2, b.RangeG)
	assert.Len(t, b.Samples, 32)
	assert.NotEmpty(t, b.Time)

	// The Y/Z pair always carries a full 1 g vector.
	for _, s := range b.Samples {
		mag := math.Sqrt(float64(s.Y)*float64(s.Y) + float64(s.Z)*float64(s.Z))
		assert.InDelta(t, 1024, mag, 2)
	}
}
