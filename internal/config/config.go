package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTClientIDSerial   string

	// Topics
	TopicSamples string
	TopicTilt    string
	TopicTemp    string

	// Accelerometer Hardware
	AccelSPIDevice string

	// Accelerometer Configuration
	// Measurement range in g: 2, 4 or 8
	AccelRange int
	// Output data rate in Hz: 3 (3.125), 6 (6.25), 12 (12.5), 25, 50,
	// 100 or 200
	AccelSampleRateHz int
	// Store the temperature channel in the FIFO alongside X/Y/Z
	AccelStoreTemp bool
	// FIFO watermark in samples (1-511)
	FIFOSamples int
	// Reassembly buffer size in bytes
	CaptureBufferBytes int

	// TCP streaming
	TCPServerAddr     string
	TCPRetryWaitMs    int // milliseconds
	TCPSendBuffers    int
	TCPSinkListenAddr string

	// Serial ingest
	SerialPort     string
	SerialBaudRate int

	// Timing
	PollInterval       int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Singleton state. globalConfig stays unexported so every other
// package goes through InitGlobal/Get; configOnce guards against double
// initialization and configMu lets many readers share Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_SERIAL":
		c.MQTTClientIDSerial = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_TILT":
		c.TopicTilt = value
	case "TOPIC_TEMP":
		c.TopicTemp = value

	// Accelerometer Hardware
	case "ACCEL_SPI_DEVICE":
		c.AccelSPIDevice = value

	// Accelerometer Configuration
	case "ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal != 2 && rangeVal != 4 && rangeVal != 8 {
			return fmt.Errorf("ACCEL_RANGE must be 2, 4 or 8 (g), got %d", rangeVal)
		}
		c.AccelRange = rangeVal
	case "ACCEL_SAMPLE_RATE_HZ":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ACCEL_SAMPLE_RATE_HZ %q: %w", value, err)
		}
		switch rate {
		case 3, 6, 12, 25, 50, 100, 200:
		default:
			return fmt.Errorf("ACCEL_SAMPLE_RATE_HZ must be 3, 6, 12, 25, 50, 100 or 200, got %d", rate)
		}
		c.AccelSampleRateHz = rate
	case "ACCEL_STORE_TEMP":
		storeTemp, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid ACCEL_STORE_TEMP %q: %w", value, err)
		}
		c.AccelStoreTemp = storeTemp
	case "FIFO_SAMPLES":
		samples, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FIFO_SAMPLES %q: %w", value, err)
		}
		if samples < 1 || samples > 511 {
			return fmt.Errorf("FIFO_SAMPLES must be 1-511, got %d", samples)
		}
		c.FIFOSamples = samples
	case "CAPTURE_BUFFER_BYTES":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAPTURE_BUFFER_BYTES %q: %w", value, err)
		}
		if size < 8 {
			return fmt.Errorf("CAPTURE_BUFFER_BYTES must be at least 8, got %d", size)
		}
		c.CaptureBufferBytes = size

	// TCP streaming
	case "TCP_SERVER_ADDR":
		c.TCPServerAddr = value
	case "TCP_RETRY_WAIT":
		wait, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TCP_RETRY_WAIT %q: %w", value, err)
		}
		c.TCPRetryWaitMs = wait
	case "TCP_SEND_BUFFERS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TCP_SEND_BUFFERS %q: %w", value, err)
		}
		if n < 2 {
			return fmt.Errorf("TCP_SEND_BUFFERS must be at least 2, got %d", n)
		}
		c.TCPSendBuffers = n
	case "TCP_SINK_LISTEN_ADDR":
		c.TCPSinkListenAddr = value

	// Serial ingest
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate

	// Timing
	case "POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL %q: %w", value, err)
		}
		c.PollInterval = interval
	case "CONSOLE_LOG_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_LOG_INTERVAL %q: %w", value, err)
		}
		c.ConsoleLogInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.AccelSPIDevice == "" {
		return fmt.Errorf("ACCEL_SPI_DEVICE is required")
	}
	if c.AccelRange == 0 {
		return fmt.Errorf("ACCEL_RANGE is required")
	}
	if c.AccelSampleRateHz == 0 {
		return fmt.Errorf("ACCEL_SAMPLE_RATE_HZ is required")
	}
	if c.FIFOSamples == 0 {
		return fmt.Errorf("FIFO_SAMPLES is required")
	}
	if c.CaptureBufferBytes == 0 {
		return fmt.Errorf("CAPTURE_BUFFER_BYTES is required")
	}
	if c.PollInterval == 0 {
		return fmt.Errorf("POLL_INTERVAL is required")
	}
	if c.ConsoleLogInterval == 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL is required")
	}
	return nil
}

// InitGlobal loads the global configuration from file. Only the first
// call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration. InitGlobal must have been
// called first, otherwise this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
