package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTilt_Flat(t *testing.T) {
	t.Parallel()

	// Gravity straight down the Z axis: no tilt at all.
	tilt := ComputeTilt(0, 0, 1)
	assert.InDelta(t, 0, tilt.Roll, 1e-9)
	assert.InDelta(t, 0, tilt.Pitch, 1e-9)
}

func TestComputeTilt_KnownAngles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		x, y, z float64
		roll    float64
		pitch   float64
	}{
		{"45 deg pitch", 1, 0, 1, 0, 45},
		{"45 deg roll", 0, 1, 1, 45, 0},
		{"negative pitch", -1, 0, 1, 0, -45},
		{"negative roll", 0, -1, 1, -45, 0},
		{"on its side", 1, 0, 0, 0, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tilt := ComputeTilt(tc.x, tc.y, tc.z)
			assert.InDelta(t, tc.roll, tilt.Roll, 1e-6)
			assert.InDelta(t, tc.pitch, tilt.Pitch, 1e-6)
		})
	}
}

func TestComputeTilt_ScaleInvariant(t *testing.T) {
	t.Parallel()

	// Only the direction of the gravity vector matters, so raw device
	// codes give the same answer as values in g.
	a := ComputeTilt(0.3, -0.2, 0.93)
	b := ComputeTilt(0.3*1024, -0.2*1024, 0.93*1024)
	assert.InDelta(t, a.Roll, b.Roll, 1e-9)
	assert.InDelta(t, a.Pitch, b.Pitch, 1e-9)
}

func TestMockSource_Bounded(t *testing.T) {
	t.Parallel()

	src := NewMockSource()
	for i := 0; i < 10; i++ {
		tilt, err := src.Next()
		require.NoError(t, err)
		assert.LessOrEqual(t, tilt.Roll, 20.0)
		assert.GreaterOrEqual(t, tilt.Roll, -20.0)
		assert.LessOrEqual(t, tilt.Pitch, 15.0)
		assert.GreaterOrEqual(t, tilt.Pitch, -15.0)
	}
}
