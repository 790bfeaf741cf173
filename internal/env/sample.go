package env

// Sample represents a single temperature measurement from the
// accelerometer's on-die sensor.
type Sample struct {
	Source string `json:"source"`

	TemperatureC float64 `json:"temp_c"` // °C
	TemperatureF float64 `json:"temp_f"` // °F
}

// FromCelsius fills both scales from a Celsius reading.
func FromCelsius(source string, c float64) Sample {
	return Sample{
		Source:       source,
		TemperatureC: c,
		TemperatureF: c*9.0/5.0 + 32.0,
	}
}
