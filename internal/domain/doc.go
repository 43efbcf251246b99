// Package domain models wind-driven snow transport (snow drift) computed from
// hourly reanalysis weather data.
//
// # Data Source
//
// Hourly series originate from the Open-Meteo ERA5 archive
// (https://archive-api.open-meteo.com/v1/era5). The upstream collector
// downloads one calendar year per request with timezone=UTC and publishes the
// columnar "hourly" block, together with the location and the requested year
// range, as a single JSON message on the Kafka source topic.
//
// # Transport Model
//
// Snow supply:
//
//	Every hour with air temperature below 1.0 °C counts its precipitation
//	(mm) as snowfall water equivalent. Summed per period this gives Swe.
//	There is no melt, sublimation, or aging of the snowpack.
//
// Wind transport capacity:
//
//	Qupot = Σ u^3.8 · 3600 / 233847   (kg/m, u in m/s, one term per hour)
//
//	The exponent and divisor are empirical constants of the capacity formula
//	and are not configurable.
//
// Regime decision and saturation, with T the characteristic transport
// distance (m), F the fetch distance (m) and θ the relocation coefficient:
//
//	Qspot = 0.5 · T · Swe
//	Srwe  = θ · Swe
//	Qupot >  Qspot  →  snowfall controlled, Qinf = 0.5 · T · Srwe
//	Qupot <= Qspot  →  wind controlled,     Qinf = Qupot
//	Qt    = Qinf · (1 − 0.14^(F/T))
//
// # Periods
//
// A season Y runs from July 1 Y 00:00 to June 30 Y+1 23:59:59 UTC and is
// labelled "Y-Y+1". Months are calendar months inside a season, so December
// of Y and January of Y+1 belong to the same season. Periods without
// observations are omitted from results.
//
// # Wind Rose
//
// Transport capacity is split into 16 sectors of 22.5°, bin 0 centered on
// north: [348.75°, 360°) ∪ [0°, 11.25°). The rose published with a report is
// the unweighted per-bin mean over all seasons present, so partial seasons
// pull the mean down.
package domain
