package accel

// Sample represents one decoded accelerometer reading. Values are raw
// device codes; scale depends on the configured measurement range.
type Sample struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
	T int16 `json:"t"` // raw temperature code, zero unless XYZT mode
}

// Batch is one FIFO drain worth of samples, suitable for JSON and MQTT.
type Batch struct {
	Source  string   `json:"source"` // "fifo", "serial", "mock"
	Time    string   `json:"time"`   // RFC3339
	RangeG  int      `json:"range_g"`
	Samples []Sample `json:"samples"`
}

// BatchSource is anything that can produce sample batches over time.
type BatchSource interface {
	NextBatch() (Batch, error)
}
