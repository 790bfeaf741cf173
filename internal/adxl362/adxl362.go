// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package adxl362 drives the Analog Devices ADXL362 triaxial
// accelerometer over SPI, including streaming reads of its internal
// 512-sample FIFO.
package adxl362

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// SampleRate is the effective output sample rate. The device pairs each
// ODR code with a bandwidth setting; rates up to 100 Hz use quarter
// bandwidth, 200 Hz uses half bandwidth.
type SampleRate int

const (
	Rate3_125Hz SampleRate = iota
	Rate6_25Hz
	Rate12_5Hz
	Rate25Hz
	Rate50Hz
	Rate100Hz // default
	Rate200Hz
)

// SPI connection parameters. The ADXL362 supports up to 8 MHz in SPI
// mode 0.
var (
	SpiFrequency = 8 * physic.MegaHertz
	SpiMode      = spi.Mode0
	SpiBits      = 8
)

// Opts holds the device configuration applied by New.
type Opts struct {
	// CheckID verifies the DEVID registers before returning.
	CheckID bool
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{CheckID: true}

// Dev is a handle to an ADXL362 on a SPI port.
type Dev struct {
	c         spi.Conn
	rangeG    int  // measurement range in g, tracked from FILTER_CTL writes
	storeTemp bool // FIFO stores XYZT, tracked from FIFO_CONTROL writes
}

// New connects to the device on p. The device's register file is left
// untouched except for the optional ID check; callers configure range,
// rate and FIFO mode afterwards.
func New(p spi.Port, o *Opts) (*Dev, error) {
	c, err := p.Connect(SpiFrequency, SpiMode, SpiBits)
	if err != nil {
		return nil, fmt.Errorf("adxl362: spi connect: %w", err)
	}
	d := &Dev{c: c, rangeG: 2}
	if o.CheckID {
		ok, err := d.ChipDetect()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("adxl362: device id mismatch, not an ADXL362")
		}
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ADXL362{range:±%dg, storeTemp:%t}", d.rangeG, d.storeTemp)
}

// ChipDetect reads the two device ID registers and reports whether
// an ADXL362 is responding on the bus.
func (d *Dev) ChipDetect() (bool, error) {
	ad, err := d.ReadRegister8(RegDevIDAD)
	if err != nil {
		return false, err
	}
	mst, err := d.ReadRegister8(RegDevIDMST)
	if err != nil {
		return false, err
	}
	return ad == 0xAD && mst == 0x1D, nil
}

// SoftReset resets the device. The part takes a little while to come
// back; ReadStatus returns non-zero once it is ready.
func (d *Dev) SoftReset() error {
	return d.WriteRegister8(RegSoftReset, 'R')
}

// ReadStatus reads the STATUS register.
func (d *Dev) ReadStatus() (byte, error) {
	return d.ReadRegister8(RegStatus)
}

// PendingEntries reads the FIFO_ENTRIES register pair: the number of
// 16-bit records waiting in the FIFO. Part of FIFOSource.
func (d *Dev) PendingEntries() (int, error) {
	v, err := d.ReadRegister16(RegFIFOEntriesL)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// ReadFIFO performs one burst read of len(dst) bytes from the FIFO.
// Part of FIFOSource. The device always starts a FIFO read on a record
// boundary, so len(dst) should be even.
func (d *Dev) ReadFIFO(dst []byte) error {
	tx := make([]byte, 1+len(dst))
	tx[0] = CmdReadFIFO
	rx := make([]byte, len(tx))
	if err := d.c.Tx(tx, rx); err != nil {
		return fmt.Errorf("adxl362: fifo read of %d bytes: %w", len(dst), err)
	}
	copy(dst, rx[1:])
	return nil
}

// StoreTemp reports the FIFO temperature mode last written through
// WriteFIFOControlAndSamples. Part of FIFOSource.
func (d *Dev) StoreTemp() bool { return d.storeTemp }

// SampleSetSize returns the byte size of one full sample set under the
// current FIFO configuration.
func (d *Dev) SampleSetSize() int { return SampleSetSize(d.storeTemp) }

// ReadFIFOAsync starts one asynchronous fill cycle of b from this
// device. See CaptureBuffer.BeginFill for the contract.
func (d *Dev) ReadFIFOAsync(b *CaptureBuffer) (bool, <-chan FillResult, error) {
	return b.BeginFill(d)
}

// SetSampleRate sets the output data rate, pairing each rate with the
// bandwidth the data sheet recommends.
func (d *Dev) SetSampleRate(rate SampleRate) error {
	v, err := d.ReadRegister8(RegFilterCtl)
	if err != nil {
		return err
	}
	v &^= odrMask
	v |= halfBWMask // quarter bandwidth, the default

	switch rate {
	case Rate3_125Hz:
		v |= ODR12_5
	case Rate6_25Hz:
		v |= ODR25
	case Rate12_5Hz:
		v |= ODR50
	case Rate25Hz:
		v |= ODR100
	case Rate50Hz:
		v |= ODR200
	case Rate200Hz:
		v |= ODR400
		v &^= halfBWMask // half bandwidth
	default:
		v |= ODR400
	}
	return d.WriteRegister8(RegFilterCtl, v)
}

// SetMeasureMode enables or disables measurement in POWER_CTL.
func (d *Dev) SetMeasureMode(enabled bool) error {
	v, err := d.ReadRegister8(RegPowerCtl)
	if err != nil {
		return err
	}
	v &= 0xfc
	if enabled {
		v |= MeasureMeasurement
	}
	return d.WriteRegister8(RegPowerCtl, v)
}

// WriteFilterControl writes FILTER_CTL from broken-out fields and
// tracks the range for raw-to-g conversion.
func (d *Dev) WriteFilterControl(rng byte, halfBW, extSample bool, odr byte) error {
	v := (rng & 0x3) << 6
	switch rng {
	case Range4G:
		d.rangeG = 4
	case Range8G:
		d.rangeG = 8
	default:
		d.rangeG = 2
	}
	if halfBW {
		v |= halfBWMask
	}
	if extSample {
		v |= 0x08
	}
	v |= odr & odrMask
	return d.WriteRegister8(RegFilterCtl, v)
}

// RangeG returns the measurement range in g tracked from the last
// FILTER_CTL write (2 by default).
func (d *Dev) RangeG() int { return d.rangeG }

// ToG converts a raw 12/14-bit code to g using the tracked range.
func (d *Dev) ToG(raw int16) float64 {
	return float64(raw) * float64(d.rangeG) / 2048.0
}

// WriteFIFOControlAndSamples programs the FIFO watermark (0-511),
// temperature storage and mode in one call, and fixes the temperature
// mode that capture buffers are validated against.
func (d *Dev) WriteFIFOControlAndSamples(samples int, storeTemp bool, fifoMode byte) error {
	d.storeTemp = storeTemp

	var ctl byte
	if samples >= 0x100 {
		ctl |= 0x08 // AH bit
	}
	if storeTemp {
		ctl |= 0x04 // FIFO_TEMP bit
	}
	ctl |= fifoMode & 0x3

	if err := d.WriteRegister8(RegFIFOSamples, byte(samples&0xff)); err != nil {
		return err
	}
	return d.WriteRegister8(RegFIFOControl, ctl)
}

// ReadXYZ reads the current data registers in one burst. These are full
// 12-bit sign-extended values, not the tagged FIFO format. When
// continuously sampling, the FIFO is the better path.
func (d *Dev) ReadXYZ() (x, y, z int16, err error) {
	rx, err := d.burstRead(RegXDataL, 6)
	if err != nil {
		return 0, 0, 0, err
	}
	x = int16(uint16(rx[0]) | uint16(rx[1])<<8)
	y = int16(uint16(rx[2]) | uint16(rx[3])<<8)
	z = int16(uint16(rx[4]) | uint16(rx[5])<<8)
	return x, y, z, nil
}

// ReadXYZT reads the data registers plus temperature in one burst.
func (d *Dev) ReadXYZT() (x, y, z, t int16, err error) {
	rx, err := d.burstRead(RegXDataL, 8)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	x = int16(uint16(rx[0]) | uint16(rx[1])<<8)
	y = int16(uint16(rx[2]) | uint16(rx[3])<<8)
	z = int16(uint16(rx[4]) | uint16(rx[5])<<8)
	t = int16(uint16(rx[6]) | uint16(rx[7])<<8)
	return x, y, z, t, nil
}

// TemperatureC reads the temperature registers and converts to °C.
func (d *Dev) TemperatureC() (float64, error) {
	v, err := d.ReadRegister16(RegTDataL)
	if err != nil {
		return 0, err
	}
	return float64(int16(v)) / 16.0, nil
}

// TemperatureF reads the temperature in °F.
func (d *Dev) TemperatureF() (float64, error) {
	c, err := d.TemperatureC()
	if err != nil {
		return 0, err
	}
	return c*9.0/5.0 + 32.0, nil
}

// Activity and inactivity detection. Thresholds are 11-bit codes; the
// value in g depends on the configured range. Times are in samples.

func (d *Dev) WriteActivityThreshold(value uint16) error {
	return d.WriteRegister16(RegThreshActL, value)
}

func (d *Dev) WriteActivityTime(value byte) error {
	return d.WriteRegister8(RegTimeAct, value)
}

func (d *Dev) WriteInactivityThreshold(value uint16) error {
	return d.WriteRegister16(RegThreshInactL, value)
}

func (d *Dev) WriteInactivityTime(value uint16) error {
	return d.WriteRegister16(RegTimeInactL, value)
}

func (d *Dev) ReadActivityControl() (byte, error) {
	return d.ReadRegister8(RegActInactCtl)
}

func (d *Dev) WriteActivityControl(value byte) error {
	return d.WriteRegister8(RegActInactCtl, value)
}

// WriteActivityControlFields writes ACT_INACT_CTL from broken-out
// fields. linkLoop is one of the LinkLoop constants.
func (d *Dev) WriteActivityControlFields(linkLoop byte, inactRef, inactEn, actRef, actEn bool) error {
	v := (linkLoop & 0x3) << 4
	if inactRef {
		v |= ActivityInactRef
	}
	if inactEn {
		v |= ActivityInactEn
	}
	if actRef {
		v |= ActivityActRef
	}
	if actEn {
		v |= ActivityActEn
	}
	return d.WriteActivityControl(v)
}

func (d *Dev) ReadIntmap1() (byte, error)      { return d.ReadRegister8(RegIntmap1) }
func (d *Dev) WriteIntmap1(value byte) error   { return d.WriteRegister8(RegIntmap1, value) }
func (d *Dev) ReadIntmap2() (byte, error)      { return d.ReadRegister8(RegIntmap2) }
func (d *Dev) WriteIntmap2(value byte) error   { return d.WriteRegister8(RegIntmap2, value) }
func (d *Dev) ReadPowerCtl() (byte, error)     { return d.ReadRegister8(RegPowerCtl) }
func (d *Dev) WritePowerCtl(value byte) error  { return d.WriteRegister8(RegPowerCtl, value) }
func (d *Dev) ReadFIFOControl() (byte, error)  { return d.ReadRegister8(RegFIFOControl) }
func (d *Dev) ReadFilterControl() (byte, error) { return d.ReadRegister8(RegFilterCtl) }

// WritePowerCtlFields writes POWER_CTL from broken-out fields. lowNoise
// is one of the LowNoise constants, measureMode one of the Measure
// constants.
func (d *Dev) WritePowerCtlFields(extClock bool, lowNoise byte, wakeup, autosleep bool, measureMode byte) error {
	var v byte
	if extClock {
		v |= PowerCtlExtClk
	}
	v |= (lowNoise & 0x3) << 4
	if wakeup {
		v |= PowerCtlWakeup
	}
	if autosleep {
		v |= PowerCtlAutosleep
	}
	v |= measureMode & 0x3
	return d.WritePowerCtl(v)
}

// WriteLowNoise sets the noise mode bits of POWER_CTL, preserving the
// measurement bits.
func (d *Dev) WriteLowNoise(value byte) error {
	v, err := d.ReadPowerCtl()
	if err != nil {
		return err
	}
	v &= 0xc0
	v |= (value & 0x3) << 4
	return d.WritePowerCtl(v)
}

// ReadRegister8 reads one register.
func (d *Dev) ReadRegister8(addr byte) (byte, error) {
	tx := []byte{CmdReadRegister, addr, 0}
	rx := make([]byte, len(tx))
	if err := d.c.Tx(tx, rx); err != nil {
		return 0, fmt.Errorf("adxl362: read register 0x%02x: %w", addr, err)
	}
	return rx[2], nil
}

// ReadRegister16 reads a little-endian L/H register pair starting at
// addr.
func (d *Dev) ReadRegister16(addr byte) (uint16, error) {
	tx := []byte{CmdReadRegister, addr, 0, 0}
	rx := make([]byte, len(tx))
	if err := d.c.Tx(tx, rx); err != nil {
		return 0, fmt.Errorf("adxl362: read register pair 0x%02x: %w", addr, err)
	}
	return uint16(rx[2]) | uint16(rx[3])<<8, nil
}

// WriteRegister8 writes one register.
func (d *Dev) WriteRegister8(addr, value byte) error {
	tx := []byte{CmdWriteRegister, addr, value}
	rx := make([]byte, len(tx))
	if err := d.c.Tx(tx, rx); err != nil {
		return fmt.Errorf("adxl362: write register 0x%02x: %w", addr, err)
	}
	return nil
}

// WriteRegister16 writes a little-endian L/H register pair starting at
// addr.
func (d *Dev) WriteRegister16(addr byte, value uint16) error {
	tx := []byte{CmdWriteRegister, addr, byte(value), byte(value >> 8)}
	rx := make([]byte, len(tx))
	if err := d.c.Tx(tx, rx); err != nil {
		return fmt.Errorf("adxl362: write register pair 0x%02x: %w", addr, err)
	}
	return nil
}

func (d *Dev) burstRead(addr byte, n int) ([]byte, error) {
	tx := make([]byte, 2+n)
	tx[0] = CmdReadRegister
	tx[1] = addr
	rx := make([]byte, len(tx))
	if err := d.c.Tx(tx, rx); err != nil {
		return nil, fmt.Errorf("adxl362: burst read at 0x%02x: %w", addr, err)
	}
	return rx[2:], nil
}
