package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
)

const DefaultUpdateInterval = 6 * time.Hour

// SupportedIntervals is the enumerated set of refresh cadences.
var SupportedIntervals = []time.Duration{
	30 * time.Minute,
	time.Hour,
	3 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

// DefaultStation is Provincetown, MA.
var DefaultStation = StationConfig{
	ID:       "8443970",
	Name:     "Provincetown, MA",
	TimeZone: "America/New_York",
}

// StationConfig describes one tracked station. Interval is zero when the
// station uses the global update interval.
type StationConfig struct {
	ID       string
	Name     string
	TimeZone string
	Interval time.Duration
}

func ValidInterval(d time.Duration) bool {
	for _, s := range SupportedIntervals {
		if d == s {
			return true
		}
	}
	return false
}

// ParseInterval accepts a Go duration ("6h") or a bare number of minutes
// ("360") and requires the result to be a supported interval.
func ParseInterval(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	var d time.Duration
	if minutes, err := strconv.Atoi(value); err == nil {
		d = time.Duration(minutes) * time.Minute
	} else {
		d, err = time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("parsing interval %q: %w", value, err)
		}
	}

	if !ValidInterval(d) {
		return 0, fmt.Errorf("unsupported interval: %s", d)
	}
	return d, nil
}

// ParseStations reads "id|name|tz[|interval]" entries separated by ';'.
func ParseStations(value string) ([]StationConfig, error) {
	var stations []StationConfig
	seen := make(map[string]bool)

	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, "|")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid station entry %q: want id|name|tz[|interval]", entry)
		}

		sc := StationConfig{
			ID:       strings.TrimSpace(parts[0]),
			Name:     strings.TrimSpace(parts[1]),
			TimeZone: strings.TrimSpace(parts[2]),
		}
		if sc.ID == "" {
			return nil, fmt.Errorf("invalid station entry %q: missing id", entry)
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("duplicate station id: %s", sc.ID)
		}
		seen[sc.ID] = true

		if sc.Name == "" {
			sc.Name = "Station " + sc.ID
		}
		if _, err := time.LoadLocation(sc.TimeZone); err != nil {
			return nil, fmt.Errorf("station %s: invalid time zone %q: %w", sc.ID, sc.TimeZone, err)
		}
		if len(parts) == 4 && strings.TrimSpace(parts[3]) != "" {
			interval, err := ParseInterval(parts[3])
			if err != nil {
				return nil, fmt.Errorf("station %s: %w", sc.ID, err)
			}
			sc.Interval = interval
		}

		stations = append(stations, sc)
	}

	if len(stations) == 0 {
		return nil, fmt.Errorf("no stations configured")
	}
	return stations, nil
}

// Station resolves the configured entry into a models.Station.
func (s StationConfig) Station(source models.Source) (models.Station, error) {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return models.Station{}, fmt.Errorf("loading time zone %q: %w", s.TimeZone, err)
	}
	return models.Station{
		ID:       s.ID,
		Name:     s.Name,
		Source:   source,
		Location: loc,
	}, nil
}

// IntervalOr returns the station's own interval or the fallback.
func (s StationConfig) IntervalOr(fallback time.Duration) time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return fallback
}
