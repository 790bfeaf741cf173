package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/accel_streamer/internal/accel"
	"github.com/relabs-tech/accel_streamer/internal/adxl362"
	"github.com/relabs-tech/accel_streamer/internal/config"
)

// RunSerialIngest reads raw FIFO bytes forwarded over a serial link by
// a capture node, reassembles them into sample sets and republishes
// batches to MQTT. Chunk boundaries on a UART are arbitrary, so the
// streaming decoder does the alignment.
func RunSerialIngest() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSerial)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("serial ingest connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	dec := adxl362.NewStreamDecoder(cfg.AccelStoreTemp)
	buf := make([]byte, 1024)

	for {
		n, err := port.Read(buf)
		if err != nil {
			log.Printf("serial read error: %v", err)
			return err
		}
		if n == 0 {
			continue
		}

		sets := dec.Decode(buf[:n])
		if len(sets) == 0 {
			continue
		}

		batch := accel.Batch{
			Source:  "serial",
			Time:    time.Now().Format(time.RFC3339),
			RangeG:  cfg.AccelRange,
			Samples: make([]accel.Sample, len(sets)),
		}
		for i, s := range sets {
			batch.Samples[i] = accel.Sample{X: s.X, Y: s.Y, Z: s.Z, T: s.T}
		}

		payload, err := json.Marshal(batch)
		if err != nil {
			log.Printf("batch marshal error: %v", err)
			continue
		}

		token := client.Publish(cfg.TopicSamples, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("batch publish error: %v", token.Error())
			continue
		}
	}
}
