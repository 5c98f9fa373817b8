package tide

import (
	"sort"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
)

// HeightAt linearly interpolates the height at t. ok is false when there are
// fewer than two samples or t lies outside the sampled range.
func HeightAt(samples []models.TideSample, t time.Time) (height float64, ok bool) {
	if len(samples) < 2 {
		return 0, false
	}

	// First sample at or after t
	idx := sort.Search(len(samples), func(i int) bool {
		return !samples[i].Time.Before(t)
	})
	if idx == len(samples) {
		return 0, false
	}
	if samples[idx].Time.Equal(t) {
		return samples[idx].Height, true
	}
	if idx == 0 {
		return 0, false
	}

	s1 := samples[idx-1]
	s2 := samples[idx]
	span := s2.Time.Sub(s1.Time)
	if span == 0 {
		return s1.Height, true
	}
	ratio := float64(t.Sub(s1.Time)) / float64(span)
	return s1.Height + (s2.Height-s1.Height)*ratio, true
}

// NextExtremum returns the earliest extremum of the given type at or after t.
func NextExtremum(extrema []models.Extremum, t time.Time, kind models.TideType) (models.Extremum, bool) {
	for _, e := range extrema {
		if e.Type == kind && !e.Time.Before(t) {
			return e, true
		}
	}
	return models.Extremum{}, false
}

// TrendAt reports RISING when the next turning point after t is a high tide
// and FALLING when it is a low tide.
func TrendAt(extrema []models.Extremum, t time.Time) (models.TideType, bool) {
	for _, e := range extrema {
		if e.Time.After(t) {
			if e.Type == models.TideTypeHigh {
				return models.TideTypeRising, true
			}
			return models.TideTypeFalling, true
		}
	}
	return models.TideTypeNone, false
}
