// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"

	"github.com/relabs-tech/accel_streamer/internal/adxl362"
)

type accelSource struct {
	dev *adxl362.Dev
}

// NewAccelSource wraps an initialized ADXL362 as a tilt source. The
// caller keeps ownership of the device; tilt reads use the direct data
// registers and do not disturb the FIFO.
func NewAccelSource(dev *adxl362.Dev) Source {
	return &accelSource{dev: dev}
}

func (s *accelSource) Next() (Tilt, error) {
	x, y, z, err := s.dev.ReadXYZ()
	if err != nil {
		return Tilt{}, fmt.Errorf("accel read: %w", err)
	}
	return ComputeTilt(s.dev.ToG(x), s.dev.ToG(y), s.dev.ToG(z)), nil
}
