package tide

import (
	"sort"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
)

// Aggregate normalizes each day independently and merges the first dayRange
// days into one chronological series. Absent or empty days contribute no
// samples. The result depends only on its inputs.
func Aggregate(station models.Station, days []models.DailyPayload, dayRange int, asOf time.Time) models.StationSeries {
	if dayRange < models.MinDayRange {
		dayRange = models.MinDayRange
	}
	if dayRange > models.MaxDayRange {
		dayRange = models.MaxDayRange
	}

	span := dayRange
	if len(days) < span {
		span = len(days)
	}

	loc := station.Zone()
	var samples []models.TideSample
	for _, day := range days[:span] {
		samples = append(samples, NormalizeDay(day, loc)...)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
	samples = reconcile(samples)

	return models.StationSeries{
		StationID:   station.ID,
		StationName: station.Name,
		Samples:     samples,
		Extrema:     Extrema(samples),
		SpanDays:    span,
		AsOf:        asOf,
	}
}
