package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// SectorCount is the number of compass sectors in a wind rose.
	SectorCount = 16
	// SectorWidth is the angular width of one sector in degrees.
	SectorWidth = 360.0 / SectorCount

	transportExponent = 3.8
	transportDivisor  = 233847.0
	hourSeconds       = 3600.0
)

// CompassLabels names the sectors in bin order, starting at north.
var CompassLabels = [SectorCount]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// SectorTable holds transport (kg/m) per compass sector, bin 0 centered on
// north.
type SectorTable [SectorCount]float64

// Sum returns the total transport over all sectors.
func (t SectorTable) Sum() float64 {
	return floats.Sum(t[:])
}

// SectorCenter returns the center bearing of sector i in degrees.
func SectorCenter(i int) float64 {
	return float64(i) * SectorWidth
}

// SectorIndex maps a bearing to its sector. Bearings outside [0, 360) are
// folded first.
func SectorIndex(direction float64) int {
	shifted := NormalizeDirection(direction + SectorWidth/2)
	idx := int(math.Floor(shifted / SectorWidth))
	if idx >= SectorCount {
		idx = 0
	}
	return idx
}

// TransportIncrement is the transport capacity (kg/m) of one hour of wind at
// speed u (m/s).
func TransportIncrement(u float64) float64 {
	if u <= 0 {
		return 0
	}
	return math.Pow(u, transportExponent) * hourSeconds / transportDivisor
}

// PotentialTransport returns Qupot for a period. Hours without a direction
// are skipped so the result always matches SectorTransport(obs).Sum().
func PotentialTransport(obs []Observation) float64 {
	qupot, _ := windTransport(obs)
	return qupot
}

// SectorTransport splits a period's transport capacity by the direction the
// wind blew from.
func SectorTransport(obs []Observation) SectorTable {
	_, sectors := windTransport(obs)
	return sectors
}

// windTransport accumulates the scalar and per-sector totals in one pass.
func windTransport(obs []Observation) (float64, SectorTable) {
	var (
		qupot   float64
		sectors SectorTable
	)
	for i := range obs {
		if obs[i].NoDirection {
			continue
		}
		inc := TransportIncrement(obs[i].WindSpeed)
		qupot += inc
		sectors[SectorIndex(obs[i].WindDirection)] += inc
	}
	return qupot, sectors
}
