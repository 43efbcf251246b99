package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// openMeteoTimeLayout is the minute-resolution ISO layout Open-Meteo uses for
// hourly timestamps when timezone=UTC.
const openMeteoTimeLayout = "2006-01-02T15:04"

// reportNamespace scopes deterministic report IDs.
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/couchcryptid/snow-drift-etl/report"))

// ParseRawEvent decodes a RawEvent's value into an AnalysisRequest. Hours
// outside the requested year range are dropped here.
func ParseRawEvent(raw RawEvent) (AnalysisRequest, error) {
	var rec RawRequest
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return AnalysisRequest{}, fmt.Errorf("parse raw event: %w", err)
	}
	if rec.StartYear != 0 && rec.EndYear != 0 && rec.StartYear > rec.EndYear {
		return AnalysisRequest{}, invalidParam("year range",
			fmt.Sprintf("start year %d is after end year %d", rec.StartYear, rec.EndYear))
	}

	obs, err := decodeHourly(rec.Hourly)
	if err != nil {
		return AnalysisRequest{}, err
	}
	obs = FilterYears(obs, rec.StartYear, rec.EndYear)

	missing := 0
	for i := range obs {
		if obs[i].NoDirection {
			missing++
		}
	}

	sum := sha256.Sum256(raw.Value)
	return AnalysisRequest{
		Location:          rec.Location,
		StartYear:         rec.StartYear,
		EndYear:           rec.EndYear,
		Overrides:         rec.Params,
		Observations:      obs,
		Digest:            hex.EncodeToString(sum[:]),
		MissingDirections: missing,
	}, nil
}

// decodeHourly turns the columnar block into observations. Every column must
// match the length of "time"; a null direction only flags the hour, any other
// null is a data quality error.
func decodeHourly(h HourlyColumns) ([]Observation, error) {
	n := len(h.Time)
	columns := []struct {
		name string
		len  int
	}{
		{"temperature_2m", len(h.Temperature)},
		{"precipitation", len(h.Precipitation)},
		{"wind_speed_10m", len(h.WindSpeed)},
		{"wind_direction_10m", len(h.WindDirection)},
	}
	for _, c := range columns {
		if c.len != n {
			return nil, &DataQualityError{
				Field:  "hourly." + c.name,
				Index:  -1,
				Reason: fmt.Sprintf("has %d values, time has %d", c.len, n),
			}
		}
	}

	obs := make([]Observation, n)
	for i := 0; i < n; i++ {
		ts, err := parseHourlyTime(h.Time[i])
		if err != nil {
			return nil, &DataQualityError{Field: "hourly.time", Index: i, Reason: err.Error()}
		}
		temp, err := required(h.Temperature[i], "hourly.temperature_2m", i)
		if err != nil {
			return nil, err
		}
		precip, err := required(h.Precipitation[i], "hourly.precipitation", i)
		if err != nil {
			return nil, err
		}
		speed, err := required(h.WindSpeed[i], "hourly.wind_speed_10m", i)
		if err != nil {
			return nil, err
		}

		o := Observation{Time: ts, WindSpeed: speed, Temperature: temp, Precipitation: precip}
		if d := h.WindDirection[i]; d != nil {
			o.WindDirection = NormalizeDirection(*d)
		} else {
			o.NoDirection = true
		}
		obs[i] = o
	}
	return obs, nil
}

func required(v *float64, field string, i int) (float64, error) {
	if v == nil {
		return 0, &DataQualityError{Field: field, Index: i, Reason: "missing value"}
	}
	return *v, nil
}

// parseHourlyTime accepts Open-Meteo's "2021-01-01T00:00" (UTC implied) or a
// full RFC 3339 timestamp.
func parseHourlyTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(openMeteoTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return t.UTC(), nil
}

// Key identifies a request for memoization: location, year range, resolved
// parameters, and the payload digest.
func (r AnalysisRequest) Key(p Params) string {
	return fmt.Sprintf("%.4f|%.4f|%d-%d|%g|%g|%g|%s",
		r.Location.Lat, r.Location.Lon, r.StartYear, r.EndYear, p.T, p.F, p.Theta, r.Digest)
}

// generateID derives a deterministic UUID from the request key so replays
// of the same message produce the same report ID.
func generateID(key string) string {
	return uuid.NewSHA1(reportNamespace, []byte(key)).String()
}

// NewDriftReport assembles the published report for an analysed request.
func NewDriftReport(req AnalysisRequest, p Params, a Analysis) DriftReport {
	seasons := a.Seasons
	if seasons == nil {
		seasons = []PeriodResult{}
	}
	months := a.Months
	if months == nil {
		months = []PeriodResult{}
	}
	return DriftReport{
		ID:        generateID(req.Key(p)),
		Location:  req.Location,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Params:    p,
		Hours:     len(req.Observations),
		Seasons:   seasons,
		Months:    months,
		WindRose: WindRoseReport{
			Bins:    a.WindRose.Bins(),
			MeanQt:  a.WindRose.MeanQt,
			Seasons: a.WindRose.Seasons,
		},
		MissingDirections: req.MissingDirections,
		ProcessedAt:       clock.Now().UTC(),
	}
}
