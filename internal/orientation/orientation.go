package orientation

import (
	"math"
)

// Tilt is the accelerometer-only orientation estimate: the angles of
// the gravity vector. There is no yaw without a magnetometer.
type Tilt struct {
	Roll  float64 `json:"roll"`  // degrees
	Pitch float64 `json:"pitch"` // degrees
}

// Source is anything that can provide tilt estimates over time.
type Source interface {
	Next() (Tilt, error)
}

// ComputeTilt computes roll and pitch in degrees from acceleration in g
// (any consistent unit works, only the ratios matter):
//
//	pitch = atan(xg / sqrt(yg² + zg²))
//	roll  = atan(yg / sqrt(xg² + zg²))
func ComputeTilt(xg, yg, zg float64) Tilt {
	pitchRad := math.Atan(xg / math.Sqrt(yg*yg+zg*zg))
	rollRad := math.Atan(yg / math.Sqrt(xg*xg+zg*zg))

	conv := 180.0 / math.Pi
	return Tilt{
		Roll:  rollRad * conv,
		Pitch: pitchRad * conv,
	}
}
