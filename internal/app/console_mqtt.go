package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/accel_streamer/internal/accel"
	"github.com/relabs-tech/accel_streamer/internal/config"
	"github.com/relabs-tech/accel_streamer/internal/env"
	"github.com/relabs-tech/accel_streamer/internal/orientation"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to sample batches
	samplesToken := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var b accel.Batch
		if err := json.Unmarshal(msg.Payload(), &b); err != nil {
			log.Printf("console: batch unmarshal error: %v", err)
			return
		}
		if len(b.Samples) == 0 {
			return
		}

		last := b.Samples[len(b.Samples)-1]
		fmt.Printf(
			"[ACC ]  src=%-6s n=%4d  x=%6d y=%6d z=%6d t=%6d  ±%dg\n",
			b.Source, len(b.Samples), last.X, last.Y, last.Z, last.T, b.RangeG,
		)
	})
	samplesToken.Wait()
	if samplesToken.Error() != nil {
		return samplesToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSamples)

	// Subscribe to tilt
	tiltToken := client.Subscribe(cfg.TopicTilt, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var t orientation.Tilt
		if err := json.Unmarshal(msg.Payload(), &t); err != nil {
			log.Printf("console: tilt unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[TILT]  ROLL=%6.2f  PITCH=%6.2f\n",
			t.Roll, t.Pitch,
		)
	})
	tiltToken.Wait()
	if tiltToken.Error() != nil {
		return tiltToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicTilt)

	// Subscribe to temperature
	tempToken := client.Subscribe(cfg.TopicTemp, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: temp unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[TEMP]  src=%-6s %.2f°C (%.2f°F)\n",
			s.Source, s.TemperatureC, s.TemperatureF,
		)
	})
	tempToken.Wait()
	if tempToken.Error() != nil {
		return tempToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicTemp)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
