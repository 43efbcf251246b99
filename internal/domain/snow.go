package domain

// SnowTemperatureThreshold is the air temperature (°C) below which
// precipitation is counted as snowfall.
const SnowTemperatureThreshold = 1.0

// HourlySnow returns the snow water equivalent (mm) one hour contributes.
func HourlySnow(o Observation) float64 {
	if o.Temperature < SnowTemperatureThreshold {
		return o.Precipitation
	}
	return 0
}

// SnowWaterEquivalent sums HourlySnow over a period. An empty period yields 0.
func SnowWaterEquivalent(obs []Observation) float64 {
	var swe float64
	for i := range obs {
		swe += HourlySnow(obs[i])
	}
	return swe
}
