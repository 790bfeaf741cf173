// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl362

// SPI command bytes. Every transaction starts with one of these.
const (
	CmdWriteRegister = 0x0a
	CmdReadRegister  = 0x0b
	CmdReadFIFO      = 0x0d
)

// Register addresses.
// Data sheet: http://www.analog.com/media/en/technical-documentation/data-sheets/ADXL362.pdf
const (
	RegDevIDAD      = 0x00 // Device ID, always 0xAD
	RegDevIDMST     = 0x01 // MEMS device ID, always 0x1D
	RegPartID       = 0x02 // Part ID, 0xF2
	RegSiliconID    = 0x03 // Silicon revision
	RegXData8       = 0x08 // X axis data, 8 MSB only
	RegYData8       = 0x09 // Y axis data, 8 MSB only
	RegZData8       = 0x0a // Z axis data, 8 MSB only
	RegStatus       = 0x0b
	RegFIFOEntriesL = 0x0c // Number of FIFO entries (LSB)
	RegFIFOEntriesH = 0x0d // Number of FIFO entries (MSB)
	RegXDataL       = 0x0e
	RegXDataH       = 0x0f
	RegYDataL       = 0x10
	RegYDataH       = 0x11
	RegZDataL       = 0x12
	RegZDataH       = 0x13
	RegTDataL       = 0x14 // Temperature data (LSB)
	RegTDataH       = 0x15
	RegSoftReset    = 0x1f
	RegThreshActL   = 0x20
	RegThreshActH   = 0x21
	RegTimeAct      = 0x22
	RegThreshInactL = 0x23
	RegThreshInactH = 0x24
	RegTimeInactL   = 0x25
	RegTimeInactH   = 0x26
	RegActInactCtl  = 0x27
	RegFIFOControl  = 0x28
	RegFIFOSamples  = 0x29 // Watermark: number of samples to store in FIFO
	RegIntmap1      = 0x2a
	RegIntmap2      = 0x2b
	RegFilterCtl    = 0x2c
	RegPowerCtl     = 0x2d
	RegSelfTest     = 0x2e
)

// Status register bits.
const (
	StatusErrUserRegs   = 0x80 // SEU error detected
	StatusAwake         = 0x40
	StatusInact         = 0x20
	StatusAct           = 0x10
	StatusFIFOOverrun   = 0x08
	StatusFIFOWatermark = 0x04
	StatusFIFOReady     = 0x02
	StatusDataReady     = 0x01
)

// ACT_INACT_CTL fields.
const (
	LinkLoopDefault = 0x0
	LinkLoopLinked  = 0x1
	LinkLoopLoop    = 0x3

	ActivityInactRef = 0x08 // inactivity referenced mode
	ActivityInactEn  = 0x04
	ActivityActRef   = 0x02 // activity referenced mode
	ActivityActEn    = 0x01
)

// Measurement range codes in FILTER_CTL bits 7:6.
const (
	Range2G = 0x0 // default
	Range4G = 0x1
	Range8G = 0x2
)

// Output data rate codes in FILTER_CTL bits 2:0.
const (
	ODR12_5 = 0x0
	ODR25   = 0x1
	ODR50   = 0x2
	ODR100  = 0x3 // default
	ODR200  = 0x4
	ODR400  = 0x5
)

const (
	halfBWMask = 0x10
	odrMask    = 0x07
)

// FIFO modes in FIFO_CONTROL bits 1:0.
const (
	FIFODisabled    = 0x0
	FIFOOldestSaved = 0x1
	FIFOStream      = 0x2
	FIFOTriggered   = 0x3
)

// INTMAP1/INTMAP2 bits.
const (
	IntmapIntLow        = 0x80 // INT is active low
	IntmapAwake         = 0x40
	IntmapInact         = 0x20
	IntmapAct           = 0x10
	IntmapFIFOOverrun   = 0x08
	IntmapFIFOWatermark = 0x04
	IntmapFIFOReady     = 0x02
	IntmapDataReady     = 0x01
)

// POWER_CTL fields.
const (
	PowerCtlExtClk    = 0x40
	PowerCtlWakeup    = 0x08
	PowerCtlAutosleep = 0x04

	LowNoiseNormal   = 0x0
	LowNoiseLow      = 0x1
	LowNoiseUltralow = 0x2

	MeasureStandby     = 0x0
	MeasureMeasurement = 0x2
)

// BitField describes one field of a register for the debug tooling.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is metadata about one register, used by the register
// debug tool to print decoded dumps.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Wide        bool       `json:"wide"`   // true for the low half of an L/H pair
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterMap returns metadata for the ADXL362 register file.
func RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: RegDevIDAD, Name: "DEVID_AD", Description: "Analog Devices ID", Access: "R"},
		{Address: RegDevIDMST, Name: "DEVID_MST", Description: "Analog Devices MEMS ID", Access: "R"},
		{Address: RegPartID, Name: "PARTID", Description: "Part ID", Access: "R"},
		{Address: RegSiliconID, Name: "REVID", Description: "Silicon revision", Access: "R"},
		{Address: RegXData8, Name: "XDATA", Description: "X axis, 8 MSB", Access: "R"},
		{Address: RegYData8, Name: "YDATA", Description: "Y axis, 8 MSB", Access: "R"},
		{Address: RegZData8, Name: "ZDATA", Description: "Z axis, 8 MSB", Access: "R"},
		{Address: RegStatus, Name: "STATUS", Description: "Status", Access: "R",
			BitFields: []BitField{
				{Bits: "7", Name: "ERR_USER_REGS", Description: "SEU error detected"},
				{Bits: "6", Name: "AWAKE", Description: "Awake (1) or inactive (0)"},
				{Bits: "5", Name: "INACT", Description: "Inactivity or free fall"},
				{Bits: "4", Name: "ACT", Description: "Activity detected"},
				{Bits: "3", Name: "FIFO_OVERRUN", Description: "FIFO overflowed"},
				{Bits: "2", Name: "FIFO_WATERMARK", Description: "FIFO reached watermark"},
				{Bits: "1", Name: "FIFO_READY", Description: "FIFO has at least one sample"},
				{Bits: "0", Name: "DATA_READY", Description: "New sample available"},
			}},
		{Address: RegFIFOEntriesL, Name: "FIFO_ENTRIES_L", Description: "FIFO entry count", Access: "R", Wide: true},
		{Address: RegXDataL, Name: "XDATA_L", Description: "X axis data", Access: "R", Wide: true},
		{Address: RegYDataL, Name: "YDATA_L", Description: "Y axis data", Access: "R", Wide: true},
		{Address: RegZDataL, Name: "ZDATA_L", Description: "Z axis data", Access: "R", Wide: true},
		{Address: RegTDataL, Name: "TDATA_L", Description: "Temperature data", Access: "R", Wide: true},
		{Address: RegSoftReset, Name: "SOFT_RESET", Description: "Write 'R' (0x52) to reset", Access: "W"},
		{Address: RegThreshActL, Name: "THRESH_ACT_L", Description: "Activity threshold (11-bit)", Access: "RW", Wide: true},
		{Address: RegTimeAct, Name: "TIME_ACT", Description: "Activity time (samples)", Access: "RW"},
		{Address: RegThreshInactL, Name: "THRESH_INACT_L", Description: "Inactivity threshold (11-bit)", Access: "RW", Wide: true},
		{Address: RegTimeInactL, Name: "TIME_INACT_L", Description: "Inactivity time (samples)", Access: "RW", Wide: true},
		{Address: RegActInactCtl, Name: "ACT_INACT_CTL", Description: "Activity/inactivity control", Access: "RW",
			BitFields: []BitField{
				{Bits: "5:4", Name: "LINKLOOP", Description: "Link/loop mode", Values: "0=default, 1=linked, 3=loop"},
				{Bits: "3", Name: "INACT_REF", Description: "Inactivity referenced mode"},
				{Bits: "2", Name: "INACT_EN", Description: "Inactivity detection enable"},
				{Bits: "1", Name: "ACT_REF", Description: "Activity referenced mode"},
				{Bits: "0", Name: "ACT_EN", Description: "Activity detection enable"},
			}},
		{Address: RegFIFOControl, Name: "FIFO_CONTROL", Description: "FIFO control", Access: "RW",
			BitFields: []BitField{
				{Bits: "3", Name: "AH", Description: "Watermark bit 8"},
				{Bits: "2", Name: "FIFO_TEMP", Description: "Store temperature in FIFO"},
				{Bits: "1:0", Name: "FIFO_MODE", Description: "FIFO mode", Values: "0=disabled, 1=oldest saved, 2=stream, 3=triggered"},
			}},
		{Address: RegFIFOSamples, Name: "FIFO_SAMPLES", Description: "Watermark, low 8 bits", Access: "RW"},
		{Address: RegIntmap1, Name: "INTMAP1", Description: "INT1 function map", Access: "RW"},
		{Address: RegIntmap2, Name: "INTMAP2", Description: "INT2 function map", Access: "RW"},
		{Address: RegFilterCtl, Name: "FILTER_CTL", Description: "Filter control", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:6", Name: "RANGE", Description: "Measurement range", Values: "0=±2g, 1=±4g, 2=±8g"},
				{Bits: "4", Name: "HALF_BW", Description: "Bandwidth 1/4 ODR (1) or 1/2 ODR (0)"},
				{Bits: "3", Name: "EXT_SAMPLE", Description: "External sampling trigger on INT2"},
				{Bits: "2:0", Name: "ODR", Description: "Output data rate", Values: "0=12.5Hz ... 5=400Hz"},
			}},
		{Address: RegPowerCtl, Name: "POWER_CTL", Description: "Power control", Access: "RW",
			BitFields: []BitField{
				{Bits: "6", Name: "EXT_CLK", Description: "Use external clock"},
				{Bits: "5:4", Name: "LOW_NOISE", Description: "Noise mode", Values: "0=normal, 1=low, 2=ultralow"},
				{Bits: "3", Name: "WAKEUP", Description: "Wake-up mode"},
				{Bits: "2", Name: "AUTOSLEEP", Description: "Autosleep"},
				{Bits: "1:0", Name: "MEASURE", Description: "Measurement mode", Values: "0=standby, 2=measurement"},
			}},
		{Address: RegSelfTest, Name: "SELF_TEST", Description: "Self test", Access: "RW"},
	}
}
