package tide

import "github.com/bbernstein/tidecharts/internal/models"

// Extrema returns the source-tagged extrema when any sample carries a tag and
// only falls back to DetectExtrema for untagged series.
func Extrema(samples []models.TideSample) []models.Extremum {
	var tagged []models.Extremum
	for _, s := range samples {
		if s.Type.IsExtremum() {
			tagged = append(tagged, models.Extremum{Time: s.Time, Height: s.Height, Type: s.Type})
		}
	}
	if len(tagged) > 0 {
		return tagged
	}
	return DetectExtrema(samples)
}

// DetectExtrema marks local turning points in an ordered series. An interior
// sample is HIGH when it is >= both neighbours and LOW when it is <= both;
// HIGH wins on a flat triple. Every interior sample of a flat run is
// marked, so a raised plateau is all HIGH and a sunken one alternates LOW at
// its edges with HIGH inside. End samples only have one neighbour and are
// never marked.
func DetectExtrema(samples []models.TideSample) []models.Extremum {
	if len(samples) < 3 {
		return nil
	}

	var extrema []models.Extremum
	for i := 1; i < len(samples)-1; i++ {
		prev := samples[i-1].Height
		curr := samples[i].Height
		next := samples[i+1].Height

		var kind models.TideType
		switch {
		case curr >= prev && curr >= next:
			kind = models.TideTypeHigh
		case curr <= prev && curr <= next:
			kind = models.TideTypeLow
		default:
			continue
		}

		extrema = append(extrema, models.Extremum{
			Time:   samples[i].Time,
			Height: curr,
			Type:   kind,
		})
	}
	return extrema
}
