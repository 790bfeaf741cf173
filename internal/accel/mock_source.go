// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package accel

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	n     int
}

// NewMockSource creates a mock batch source that generates a smooth
// 1 g gravity vector slowly tumbling around the X axis.
func NewMockSource(batchSize int) BatchSource {
	return &mockSource{start: time.Now(), n: batchSize}
}

func (m *mockSource) NextBatch() (Batch, error) {
	elapsed := time.Since(m.start).Seconds()

	b := Batch{
		Source:  "mock",
		Time:    time.Now().Format(time.RFC3339),
		RangeG:  2,
		Samples: make([]Sample, m.n),
	}
	for i := range b.Samples {
		phase := elapsed + float64(i)*0.01
		b.Samples[i] = Sample{
			X: int16(100 * math.Sin(phase*0.3)),
			Y: int16(1024 * math.Sin(phase)),
			Z: int16(1024 * math.Cos(phase)),
		}
	}
	return b, nil
}
