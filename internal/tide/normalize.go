package tide

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// NOAA time format is "2006-01-02 15:04" in station local time
	noaaTimeLayout = "2006-01-02 15:04"

	// A reading more than this far outside its nominal day belongs to the
	// adjacent calendar day.
	dayWrapThreshold = 12 * time.Hour
)

var eventTimeLayouts = []string{noaaTimeLayout, "2006-01-02 15:04:05"}

// NormalizeDay converts one day of raw readings into samples ordered by time.
// Malformed records are skipped one by one; a nil payload yields no samples.
func NormalizeDay(day models.DailyPayload, loc *time.Location) []models.TideSample {
	if day.Payload == nil {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	dayStart := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 0, 0, 0, 0, loc)

	var samples []models.TideSample
	var skipped int
	switch p := day.Payload.(type) {
	case *models.IHMDayPayload:
		samples, skipped = normalizeIHM(p, dayStart)
	case *models.NOAADayPayload:
		samples, skipped = normalizeNOAA(p, dayStart)
	default:
		log.Warn().Str("dialect", string(day.Payload.Dialect())).Msg("Unsupported payload dialect")
		return nil
	}

	if skipped > 0 {
		log.Debug().
			Str("date", dayStart.Format("2006-01-02")).
			Int("skipped", skipped).
			Int("kept", len(samples)).
			Msg("Skipped malformed tide records")
	}

	return reconcile(samples)
}

func normalizeIHM(p *models.IHMDayPayload, dayStart time.Time) ([]models.TideSample, int) {
	clock := newDayClock(dayStart)
	samples := make([]models.TideSample, 0, len(p.Records))
	skipped := 0

	for _, rec := range p.Records {
		t, err := clock.place(rec.Hora)
		if err != nil {
			skipped++
			continue
		}
		height, err := parseHeight(rec.Altura)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, models.TideSample{
			Time:   t,
			Height: height,
			Type:   parseTideType(rec.Tipo),
		})
	}

	return samples, skipped
}

func normalizeNOAA(p *models.NOAADayPayload, dayStart time.Time) ([]models.TideSample, int) {
	samples := make([]models.TideSample, 0, p.Len())
	skipped := 0

	// Each record set is its own clock sequence.
	for _, set := range [][]models.NoaaPrediction{p.Predictions, p.HighLow} {
		clock := newDayClock(dayStart)
		for _, rec := range set {
			t, err := clock.placeNOAA(rec.Time)
			if err != nil {
				skipped++
				continue
			}
			height, err := parseHeight(rec.Height)
			if err != nil {
				skipped++
				continue
			}
			samples = append(samples, models.TideSample{
				Time:   t,
				Height: height,
				Type:   parseTideType(rec.Type),
			})
		}
	}

	return samples, skipped
}

// NormalizeMonthly converts dated high/low events into extrema ordered by time.
func NormalizeMonthly(p *models.MonthlyPayload, loc *time.Location) []models.Extremum {
	if p == nil {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	extrema := make([]models.Extremum, 0, len(p.Events))
	for _, ev := range p.Events {
		t, err := parseEventTime(ev.DateTime, loc)
		if err != nil {
			continue
		}
		height, err := parseHeight(ev.Height)
		if err != nil {
			continue
		}
		kind := parseTideType(ev.Type)
		if !kind.IsExtremum() {
			continue
		}
		extrema = append(extrema, models.Extremum{Time: t, Height: height, Type: kind})
	}

	sort.SliceStable(extrema, func(i, j int) bool {
		return extrema[i].Time.Before(extrema[j].Time)
	})
	return extrema
}

// parseEventTime reads a dated monthly event. IHM stamps carry seconds,
// NOAA stamps do not.
func parseEventTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	var err error
	for _, layout := range eventTimeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing event time %s: %w", value, err)
}

// reconcile orders samples by time (input order breaks ties) and collapses
// equal timestamps to the first occurrence. A tag on a dropped duplicate is
// carried onto the kept sample.
func reconcile(samples []models.TideSample) []models.TideSample {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})

	out := samples[:0]
	for _, s := range samples {
		if n := len(out); n > 0 && out[n-1].Time.Equal(s.Time) {
			if out[n-1].Type == models.TideTypeNone && s.Type.IsExtremum() {
				out[n-1].Type = s.Type
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// dayClock places clock readings on the calendar relative to a nominal day.
type dayClock struct {
	start time.Time
	prev  time.Time
}

func newDayClock(dayStart time.Time) *dayClock {
	return &dayClock{start: dayStart}
}

// place combines an "HH:MM" reading with the nominal day. A reading that
// jumps back more than 12 hours from its predecessor has crossed midnight.
func (c *dayClock) place(clock string) (time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(c.start.Year(), c.start.Month(), c.start.Day(), hour, minute, 0, 0, c.start.Location())
	if !c.prev.IsZero() && c.prev.Sub(t) > dayWrapThreshold {
		t = t.AddDate(0, 0, 1)
	}
	c.prev = t
	return t, nil
}

// placeNOAA accepts a full "2006-01-02 15:04" stamp or a bare clock reading.
func (c *dayClock) placeNOAA(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, " ") {
		return c.place(value)
	}

	t, err := time.ParseInLocation(noaaTimeLayout, value, c.start.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %s: %w", value, err)
	}

	end := c.start.AddDate(0, 0, 1)
	switch {
	case t.Before(c.start.Add(-dayWrapThreshold)):
		t = t.AddDate(0, 0, 1)
	case !t.Before(end.Add(dayWrapThreshold)):
		t = t.AddDate(0, 0, -1)
	}
	c.prev = t
	return t, nil
}

func parseClock(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0, fmt.Errorf("missing time")
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("parsing time %q", value)
}

func parseHeight(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if value == "" {
		return 0, fmt.Errorf("missing height")
	}
	height, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing height %s: %w", value, err)
	}
	if math.IsNaN(height) || math.IsInf(height, 0) {
		return 0, fmt.Errorf("invalid height %s", value)
	}
	return height, nil
}

func parseTideType(value string) models.TideType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "h", "hh", "high", "pleamar":
		return models.TideTypeHigh
	case "l", "ll", "low", "bajamar":
		return models.TideTypeLow
	}
	return models.TideTypeNone
}
