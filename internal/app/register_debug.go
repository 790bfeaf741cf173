// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/accel_streamer/internal/adxl362"
	"github.com/relabs-tech/accel_streamer/internal/config"
)

// RunRegisterDebug dumps the full ADXL362 register file with decoded
// bit fields. The device is opened without touching its configuration
// so the dump reflects whatever state the part is in.
func RunRegisterDebug() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(cfg.AccelSPIDevice)
	if err != nil {
		return fmt.Errorf("SPI open (%s): %w", cfg.AccelSPIDevice, err)
	}
	defer port.Close()

	dev, err := adxl362.New(port, &adxl362.Opts{CheckID: false})
	if err != nil {
		return fmt.Errorf("device creation: %w", err)
	}

	ok, err := dev.ChipDetect()
	if err != nil {
		return fmt.Errorf("chip detect: %w", err)
	}
	if !ok {
		log.Println("WARNING: DEVID registers do not match an ADXL362")
	}

	for _, info := range adxl362.RegisterMap() {
		if info.Wide {
			v, err := dev.ReadRegister16(info.Address)
			if err != nil {
				return fmt.Errorf("read 0x%02X (%s): %w", info.Address, info.Name, err)
			}
			fmt.Printf("0x%02X  %-16s = 0x%04X  %s\n", info.Address, info.Name, v, info.Description)
			continue
		}

		v, err := dev.ReadRegister8(info.Address)
		if err != nil {
			return fmt.Errorf("read 0x%02X (%s): %w", info.Address, info.Name, err)
		}
		fmt.Printf("0x%02X  %-16s = 0x%02X    %s\n", info.Address, info.Name, v, info.Description)

		for _, f := range info.BitFields {
			fmt.Printf("        %-6s %-16s %s", f.Bits, f.Name, f.Description)
			if f.Values != "" {
				fmt.Printf(" (%s)", f.Values)
			}
			fmt.Println()
		}
	}

	return nil
}
