package domain

import (
	"fmt"
	"sort"
	"time"
)

// seasonStartMonth is the first calendar month of a snow season.
const seasonStartMonth = time.July

// Season identifies the snow season starting July 1 of the given year.
type Season int

// SeasonOf returns the season an instant falls in (UTC).
func SeasonOf(t time.Time) Season {
	t = t.UTC()
	if t.Month() >= seasonStartMonth {
		return Season(t.Year())
	}
	return Season(t.Year() - 1)
}

// Label formats the season as "2021-2022".
func (s Season) Label() string {
	return fmt.Sprintf("%d-%d", int(s), int(s)+1)
}

// Start is July 1 00:00 UTC of the season's first year.
func (s Season) Start() time.Time {
	return time.Date(int(s), seasonStartMonth, 1, 0, 0, 0, 0, time.UTC)
}

// End is June 30 23:59:59 UTC of the following year, the last second that
// belongs to the season.
func (s Season) End() time.Time {
	return time.Date(int(s)+1, time.June, 30, 23, 59, 59, 0, time.UTC)
}

// Contains reports whether t lies within [Start, End].
func (s Season) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(s.Start()) && !t.After(s.End())
}

// MonthPeriod is a calendar month inside a season.
type MonthPeriod struct {
	Season Season
	Month  time.Month
}

// MonthOf returns the month period an instant falls in (UTC).
func MonthOf(t time.Time) MonthPeriod {
	return MonthPeriod{Season: SeasonOf(t), Month: t.UTC().Month()}
}

// Label formats the month as "2021-2022/01".
func (m MonthPeriod) Label() string {
	return fmt.Sprintf("%s/%02d", m.Season.Label(), int(m.Month))
}

// Year is the calendar year the month falls in.
func (m MonthPeriod) Year() int {
	if m.Month >= seasonStartMonth {
		return int(m.Season)
	}
	return int(m.Season) + 1
}

// Start is the first instant of the month.
func (m MonthPeriod) Start() time.Time {
	return time.Date(m.Year(), m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last second of the month.
func (m MonthPeriod) End() time.Time {
	return m.Start().AddDate(0, 1, 0).Add(-time.Second)
}

// before orders month periods chronologically.
func (m MonthPeriod) before(o MonthPeriod) bool {
	if m.Season != o.Season {
		return m.Season < o.Season
	}
	return m.Start().Before(o.Start())
}

// SeasonGroup is the observations of one season.
type SeasonGroup struct {
	Season       Season
	Observations []Observation
}

// MonthGroup is the observations of one month period.
type MonthGroup struct {
	Period       MonthPeriod
	Observations []Observation
}

// PartitionSeasons groups observations by season in ascending order. Seasons
// without observations do not appear.
func PartitionSeasons(obs []Observation) []SeasonGroup {
	idx := make(map[Season]int)
	var groups []SeasonGroup
	for i := range obs {
		s := SeasonOf(obs[i].Time)
		j, ok := idx[s]
		if !ok {
			j = len(groups)
			idx[s] = j
			groups = append(groups, SeasonGroup{Season: s})
		}
		groups[j].Observations = append(groups[j].Observations, obs[i])
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Season < groups[b].Season })
	return groups
}

// PartitionMonths groups observations by (season, calendar month), ordered
// chronologically. Months without observations do not appear.
func PartitionMonths(obs []Observation) []MonthGroup {
	idx := make(map[MonthPeriod]int)
	var groups []MonthGroup
	for i := range obs {
		m := MonthOf(obs[i].Time)
		j, ok := idx[m]
		if !ok {
			j = len(groups)
			idx[m] = j
			groups = append(groups, MonthGroup{Period: m})
		}
		groups[j].Observations = append(groups[j].Observations, obs[i])
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Period.before(groups[b].Period) })
	return groups
}

// FilterYears keeps observations whose calendar year (UTC) lies in
// [startYear, endYear]. A zero bound is open.
func FilterYears(obs []Observation, startYear, endYear int) []Observation {
	if startYear == 0 && endYear == 0 {
		return obs
	}
	out := make([]Observation, 0, len(obs))
	for i := range obs {
		y := obs[i].Time.UTC().Year()
		if startYear != 0 && y < startYear {
			continue
		}
		if endYear != 0 && y > endYear {
			continue
		}
		out = append(out, obs[i])
	}
	return out
}
