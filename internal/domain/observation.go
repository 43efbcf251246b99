package domain

import (
	"math"
	"time"
)

// Observation is one hourly weather reading at the analysed location.
type Observation struct {
	Time          time.Time
	WindSpeed     float64 // m/s at 10 m
	WindDirection float64 // degrees, direction the wind blows from
	Temperature   float64 // °C at 2 m
	Precipitation float64 // mm over the hour

	// NoDirection marks an hour whose direction was not reported. Such hours
	// still supply snow but are left out of every wind transport total.
	NoDirection bool
}

// NormalizeDirection folds any finite angle into [0, 360).
func NormalizeDirection(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// ValidateObservations checks every reading and returns the first violation as
// a *ValidationError carrying the observation index.
func ValidateObservations(obs []Observation) error {
	for i := range obs {
		if err := validateObservation(i, obs[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateObservation(i int, o Observation) error {
	switch {
	case o.Time.IsZero():
		return &ValidationError{Field: "time", Index: i, Reason: "missing timestamp"}
	case !isFinite(o.WindSpeed):
		return &ValidationError{Field: "wind_speed", Index: i, Reason: "not a finite number"}
	case o.WindSpeed < 0:
		return &ValidationError{Field: "wind_speed", Index: i, Reason: "must not be negative"}
	case !isFinite(o.Precipitation):
		return &ValidationError{Field: "precipitation", Index: i, Reason: "not a finite number"}
	case o.Precipitation < 0:
		return &ValidationError{Field: "precipitation", Index: i, Reason: "must not be negative"}
	case !isFinite(o.Temperature):
		return &ValidationError{Field: "temperature", Index: i, Reason: "not a finite number"}
	case !o.NoDirection && !isFinite(o.WindDirection):
		return &ValidationError{Field: "wind_direction", Index: i, Reason: "not a finite number"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
