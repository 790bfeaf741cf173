// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/accel_streamer/internal/app"
	"github.com/relabs-tech/accel_streamer/internal/config"
)

func main() {
	log.Println("starting accel-streamer console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("accel_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
