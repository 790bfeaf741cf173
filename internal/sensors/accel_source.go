// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/accel_streamer/internal/adxl362"
	"github.com/relabs-tech/accel_streamer/internal/config"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Accelerometer bundles the device handle with the port that must be
// closed when the process shuts down.
type Accelerometer struct {
	Dev  *adxl362.Dev
	port spi.PortCloser
}

// Close releases the SPI port.
func (a *Accelerometer) Close() error {
	return a.port.Close()
}

// OpenAccelerometer initializes the ADXL362 over SPI with the
// configured range, output data rate and FIFO settings, and leaves it
// in measurement mode streaming into the FIFO.
func OpenAccelerometer() (*Accelerometer, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("accel: periph host init: %w", err)
	}

	port, err := spireg.Open(cfg.AccelSPIDevice)
	if err != nil {
		return nil, fmt.Errorf("accel: SPI open (%s): %w", cfg.AccelSPIDevice, err)
	}

	dev, err := adxl362.New(port, &adxl362.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("accel: device creation: %w", err)
	}

	if err := dev.SoftReset(); err != nil {
		port.Close()
		return nil, fmt.Errorf("accel: soft reset: %w", err)
	}
	// After reset all registers read 0 until the part is back up.
	for {
		status, err := dev.ReadStatus()
		if err != nil {
			port.Close()
			return nil, fmt.Errorf("accel: status poll: %w", err)
		}
		if status != 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	rng := rangeBits(cfg.AccelRange)
	if err := dev.WriteFilterControl(rng, false, false, adxl362.ODR100); err != nil {
		port.Close()
		return nil, fmt.Errorf("accel: set range: %w", err)
	}
	log.Printf("accel: measurement range set to ±%dg", cfg.AccelRange)

	rate := sampleRate(cfg.AccelSampleRateHz)
	if err := dev.SetSampleRate(rate); err != nil {
		port.Close()
		return nil, fmt.Errorf("accel: set sample rate: %w", err)
	}
	log.Printf("accel: output data rate set to %d Hz", cfg.AccelSampleRateHz)

	if err := dev.WriteFIFOControlAndSamples(cfg.FIFOSamples, cfg.AccelStoreTemp, adxl362.FIFOStream); err != nil {
		port.Close()
		return nil, fmt.Errorf("accel: FIFO setup: %w", err)
	}
	log.Printf("accel: FIFO streaming, watermark %d samples, temperature %v",
		cfg.FIFOSamples, cfg.AccelStoreTemp)

	if err := dev.SetMeasureMode(true); err != nil {
		port.Close()
		return nil, fmt.Errorf("accel: enable measurement: %w", err)
	}

	return &Accelerometer{Dev: dev, port: port}, nil
}

func rangeBits(g int) byte {
	switch g {
	case 4:
		return adxl362.Range4G
	case 8:
		return adxl362.Range8G
	default:
		return adxl362.Range2G
	}
}

func sampleRate(hz int) adxl362.SampleRate {
	switch hz {
	case 3:
		return adxl362.Rate3_125Hz
	case 6:
		return adxl362.Rate6_25Hz
	case 12:
		return adxl362.Rate12_5Hz
	case 25:
		return adxl362.Rate25Hz
	case 50:
		return adxl362.Rate50Hz
	case 200:
		return adxl362.Rate200Hz
	default:
		return adxl362.Rate100Hz
	}
}
