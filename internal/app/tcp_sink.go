// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/accel_streamer/internal/adxl362"
	"github.com/relabs-tech/accel_streamer/internal/config"
)

// RunTCPSink accepts raw FIFO byte streams from TCP streamers, decodes
// them back into sample sets and logs throughput. Each connection gets
// its own decoder since alignment state is per stream.
func RunTCPSink() error {
	cfg := config.Get()

	ln, err := net.Listen("tcp", cfg.TCPSinkListenAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", cfg.TCPSinkListenAddr, err)
		return err
	}
	defer ln.Close()

	log.Printf("TCP sink listening on %s", cfg.TCPSinkListenAddr)

	var sampleCount int64
	var byteCount int64

	// Statistics goroutine
	go func() {
		interval := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			samples := atomic.SwapInt64(&sampleCount, 0)
			bytes := atomic.SwapInt64(&byteCount, 0)
			if samples > 0 {
				log.Printf("received %d samples (%.1f KB) in the last %v",
					samples, float64(bytes)/1024, interval)
			}
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("accept error: %v", err)
			continue
		}
		go func(conn net.Conn) {
			defer conn.Close()
			log.Printf("stream connected from %s", conn.RemoteAddr())

			dec := adxl362.NewStreamDecoder(cfg.AccelStoreTemp)
			buf := make([]byte, 4096)
			for {
				n, err := conn.Read(buf)
				if err != nil {
					log.Printf("stream from %s closed: %v", conn.RemoteAddr(), err)
					return
				}
				sets := dec.Decode(buf[:n])
				atomic.AddInt64(&sampleCount, int64(len(sets)))
				atomic.AddInt64(&byteCount, int64(n))
			}
		}(conn)
	}
}
