package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Location is the point the hourly series was sampled at.
type Location struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// HourlyColumns is the columnar "hourly" block of an Open-Meteo ERA5 response.
// Nulls decode to nil entries.
type HourlyColumns struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	Precipitation []*float64 `json:"precipitation"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
}

// RawRequest is the JSON message published by the collector.
type RawRequest struct {
	Location  Location       `json:"location"`
	StartYear int            `json:"start_year,omitempty"`
	EndYear   int            `json:"end_year,omitempty"`
	Params    ParamOverrides `json:"params"`
	Hourly    HourlyColumns  `json:"hourly"`
}

// AnalysisRequest is a decoded request ready for the aggregator.
type AnalysisRequest struct {
	Location     Location
	StartYear    int
	EndYear      int
	Overrides    ParamOverrides
	Observations []Observation // already restricted to the year range

	// Digest is a SHA-256 of the raw payload, used to key memoized results.
	Digest string
	// MissingDirections counts hours flagged NoDirection.
	MissingDirections int
}

// DriftReport is the serialized result published to the sink topic.
type DriftReport struct {
	ID        string         `json:"id"`
	Location  Location       `json:"location"`
	StartYear int            `json:"start_year,omitempty"`
	EndYear   int            `json:"end_year,omitempty"`
	Params    Params         `json:"params"`
	Hours     int            `json:"hours"`
	Seasons   []PeriodResult `json:"seasons"`
	Months    []PeriodResult `json:"months"`
	WindRose  WindRoseReport `json:"wind_rose"`

	MissingDirections int       `json:"missing_directions,omitempty"`
	ProcessedAt       time.Time `json:"processed_at"`
}

// WindRoseReport is the labelled wind rose carried by a report.
type WindRoseReport struct {
	Bins    []RoseBin `json:"bins"`
	MeanQt  float64   `json:"mean_qt"`
	Seasons int       `json:"seasons"`
}
