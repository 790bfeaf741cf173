package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accel_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `# test configuration
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_PRODUCER=accel-producer

TOPIC_SAMPLES=accel/samples
TOPIC_TILT=accel/tilt
TOPIC_TEMP=accel/temp

ACCEL_SPI_DEVICE=/dev/spidev0.0
ACCEL_RANGE=2
ACCEL_SAMPLE_RATE_HZ=100
ACCEL_STORE_TEMP=true
FIFO_SAMPLES=170
CAPTURE_BUFFER_BYTES=512

TCP_SERVER_ADDR=192.168.2.6:7123
TCP_RETRY_WAIT=2000
TCP_SEND_BUFFERS=128
TCP_SINK_LISTEN_ADDR=:7123

SERIAL_PORT=/dev/serial0
SERIAL_BAUD_RATE=115200

POLL_INTERVAL=100
CONSOLE_LOG_INTERVAL=1000

WEB_SERVER_PORT=8080

DISPLAY_I2C_ADDR=0x3C
DISPLAY_UPDATE_INTERVAL=250
`

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "accel-producer", cfg.MQTTClientIDProducer)
	assert.Equal(t, "accel/samples", cfg.TopicSamples)
	assert.Equal(t, "/dev/spidev0.0", cfg.AccelSPIDevice)
	assert.Equal(t, 2, cfg.AccelRange)
	assert.Equal(t, 100, cfg.AccelSampleRateHz)
	assert.True(t, cfg.AccelStoreTemp)
	assert.Equal(t, 170, cfg.FIFOSamples)
	assert.Equal(t, 512, cfg.CaptureBufferBytes)
	assert.Equal(t, "192.168.2.6:7123", cfg.TCPServerAddr)
	assert.Equal(t, 2000, cfg.TCPRetryWaitMs)
	assert.Equal(t, 128, cfg.TCPSendBuffers)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, 100, cfg.PollInterval)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.Equal(t, uint16(0x3C), cfg.DisplayI2CAddr)
	assert.Equal(t, 250, cfg.DisplayUpdateInterval)
}

func TestLoad_UnknownKey(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, validConfig+"BOGUS_KEY=1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_InvalidRange(t *testing.T) {
	t.Parallel()

	bad := writeConfig(t, validConfig+"ACCEL_RANGE=16\n")
	_, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCEL_RANGE")
}

func TestLoad_InvalidSampleRate(t *testing.T) {
	t.Parallel()

	bad := writeConfig(t, validConfig+"ACCEL_SAMPLE_RATE_HZ=400\n")
	_, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCEL_SAMPLE_RATE_HZ")
}

func TestLoad_FIFOSamplesOutOfRange(t *testing.T) {
	t.Parallel()

	bad := writeConfig(t, validConfig+"FIFO_SAMPLES=512\n")
	_, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIFO_SAMPLES")
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestLoad_MalformedLine(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "NOT A KEY VALUE PAIR\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config line")
}
