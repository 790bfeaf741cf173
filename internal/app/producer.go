package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/accel_streamer/internal/accel"
	"github.com/relabs-tech/accel_streamer/internal/adxl362"
	"github.com/relabs-tech/accel_streamer/internal/config"
	"github.com/relabs-tech/accel_streamer/internal/env"
	"github.com/relabs-tech/accel_streamer/internal/orientation"
	"github.com/relabs-tech/accel_streamer/internal/sensors"
)

// RunProducer drains the accelerometer FIFO on a poll ticker and
// publishes sample batches, tilt and temperature over MQTT.
func RunProducer() error {
	log.Println("starting accel-streamer FIFO producer")

	cfg := config.Get()

	// --- Choose batch source (mock vs real accelerometer) ---
	useMock := false
	var mockSrc accel.BatchSource

	var acc *sensors.Accelerometer
	var buf *adxl362.CaptureBuffer

	if useMock {
		log.Println("using mock batch source")
		mockSrc = accel.NewMockSource(cfg.FIFOSamples)
	} else {
		var err error
		acc, err = sensors.OpenAccelerometer()
		if err != nil {
			log.Fatalf("failed to initialize accelerometer: %v", err)
			return err
		}
		defer acc.Close()

		buf, err = adxl362.NewCaptureBuffer(cfg.CaptureBufferBytes, cfg.AccelStoreTemp)
		if err != nil {
			log.Fatalf("failed to create capture buffer: %v", err)
			return err
		}
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		var batch accel.Batch
		var tempC float64
		haveTemp := false

		if useMock {
			var err error
			batch, err = mockSrc.NextBatch()
			if err != nil {
				log.Printf("error from mock batch source: %v", err)
				continue
			}
		} else {
			started, done, err := acc.Dev.ReadFIFOAsync(buf)
			if err != nil {
				log.Printf("FIFO read error: %v", err)
				continue
			}
			if !started {
				// Less than one full sample set pending.
				continue
			}
			res := <-done
			if res.Err != nil {
				log.Printf("FIFO transfer error: %v", res.Err)
				continue
			}
			if res.Samples == 0 {
				buf.Release()
				continue
			}

			batch = accel.Batch{
				Source:  "fifo",
				Time:    t.Format(time.RFC3339),
				RangeG:  acc.Dev.RangeG(),
				Samples: make([]accel.Sample, res.Samples),
			}
			for i := range batch.Samples {
				set, err := buf.Set(i)
				if err != nil {
					log.Printf("sample extraction error: %v", err)
					break
				}
				batch.Samples[i] = accel.Sample{X: set.X, Y: set.Y, Z: set.Z, T: set.T}
			}

			if cfg.AccelStoreTemp {
				// FIFO temperature uses the same 1/16 °C per LSB
				// scaling as the data register.
				tempC = float64(batch.Samples[len(batch.Samples)-1].T) / 16.0
				haveTemp = true
			} else if c, err := acc.Dev.TemperatureC(); err != nil {
				log.Printf("temperature read error: %v", err)
			} else {
				tempC = c
				haveTemp = true
			}

			buf.Release()
		}

		if len(batch.Samples) == 0 {
			continue
		}

		// 1) Sample batch
		if payload, err := json.Marshal(batch); err != nil {
			log.Printf("json marshal error (samples): %v", err)
			continue
		} else {
			if token := client.Publish(cfg.TopicSamples, 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("MQTT publish error (samples): %v", token.Error())
				continue
			}
		}

		// 2) Tilt from the most recent sample
		last := batch.Samples[len(batch.Samples)-1]
		tilt := orientation.ComputeTilt(float64(last.X), float64(last.Y), float64(last.Z))
		if payload, err := json.Marshal(tilt); err != nil {
			log.Printf("json marshal error (tilt): %v", err)
		} else {
			if token := client.Publish(cfg.TopicTilt, 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("MQTT publish error (tilt): %v", token.Error())
				continue
			}
		}

		// 3) Temperature
		if haveTemp {
			sample := env.FromCelsius(batch.Source, tempC)
			if payload, err := json.Marshal(sample); err != nil {
				log.Printf("json marshal error (temp): %v", err)
			} else {
				if token := client.Publish(cfg.TopicTemp, 0, true, payload); token.Wait() && token.Error() != nil {
					log.Printf("MQTT publish error (temp): %v", token.Error())
					continue
				}
			}
		}

		log.Printf("%s tick: %d samples | last x=%d y=%d z=%d | roll=%.2f pitch=%.2f",
			t.Format(time.RFC3339),
			len(batch.Samples),
			last.X, last.Y, last.Z,
			tilt.Roll, tilt.Pitch,
		)
	}
	return nil
}
