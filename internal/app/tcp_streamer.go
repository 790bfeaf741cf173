// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"net"
	"time"

	"github.com/relabs-tech/accel_streamer/internal/adxl362"
	"github.com/relabs-tech/accel_streamer/internal/config"
	"github.com/relabs-tech/accel_streamer/internal/sensors"
)

// RunTCPStreamer drains the FIFO into a ring of capture buffers and
// forwards the raw FIFO bytes to a TCP server. The ring absorbs
// network hiccups; when it fills up the oldest unsent buffer is
// discarded so capture never stalls.
func RunTCPStreamer() error {
	log.Println("starting accel-streamer TCP streamer")

	cfg := config.Get()

	acc, err := sensors.OpenAccelerometer()
	if err != nil {
		log.Fatalf("failed to initialize accelerometer: %v", err)
		return err
	}
	defer acc.Close()

	free := make(chan *adxl362.CaptureBuffer, cfg.TCPSendBuffers)
	ready := make(chan *adxl362.CaptureBuffer, cfg.TCPSendBuffers)
	for i := 0; i < cfg.TCPSendBuffers; i++ {
		b, err := adxl362.NewCaptureBuffer(cfg.CaptureBufferBytes, cfg.AccelStoreTemp)
		if err != nil {
			log.Fatalf("failed to create capture buffer: %v", err)
			return err
		}
		free <- b
	}

	// Capture loop. Only one FIFO transfer is in flight at a time, the
	// SPI bus is not shared.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			var b *adxl362.CaptureBuffer
			select {
			case b = <-free:
			default:
				// Ring full: drop the oldest unsent buffer.
				select {
				case b = <-ready:
					log.Printf("send ring full, discarding %d samples", b.Samples())
					b.Release()
				default:
					continue
				}
			}

			started, done, err := acc.Dev.ReadFIFOAsync(b)
			if err != nil {
				log.Printf("FIFO read error: %v", err)
				free <- b
				continue
			}
			if !started {
				free <- b
				continue
			}
			res := <-done
			if res.Err != nil {
				log.Printf("FIFO transfer error: %v", res.Err)
				free <- b
				continue
			}
			if res.Samples == 0 {
				b.Release()
				free <- b
				continue
			}
			ready <- b
		}
	}()

	// Sending state machine: connect, send ready buffers, wait and
	// retry on any network error. A buffer survives reconnects and is
	// only released once its bytes were written.
	retryWait := time.Duration(cfg.TCPRetryWaitMs) * time.Millisecond
	var pending *adxl362.CaptureBuffer

	for {
		log.Printf("** trying connection to %s", cfg.TCPServerAddr)
		conn, err := net.Dial("tcp", cfg.TCPServerAddr)
		if err != nil {
			log.Printf("** connect failed: %v", err)
			time.Sleep(retryWait)
			continue
		}

		totalSent := 0
		for {
			b := pending
			if b == nil {
				b = <-ready
			}
			pending = b

			data, err := b.Bytes()
			if err != nil {
				log.Printf("buffer not sendable: %v", err)
				pending = nil
				free <- b
				continue
			}

			if _, err := conn.Write(data); err != nil {
				log.Printf("** error sending: %v totalSent=%d", err, totalSent)
				break
			}
			totalSent += len(data)

			b.Release()
			pending = nil
			free <- b
		}
		conn.Close()
		time.Sleep(retryWait)
	}
}
