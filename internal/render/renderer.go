package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

// clock interface allows us to mock time in tests
type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (c *systemClock) Now() time.Time {
	return time.Now()
}

const (
	fontFamily = `font-family="'Segoe UI', 'Roboto', 'Helvetica Neue', sans-serif"`

	plotErrorMessage  = "Could not load tide data"
	tableErrorMessage = "No upcoming tides"
)

// Renderer turns a StationSeries into SVG artifacts. The output bytes depend
// only on the request; the clock is used for GeneratedAt metadata alone.
type Renderer struct {
	clock clock
}

func NewRenderer() *Renderer {
	return &Renderer{clock: &systemClock{}}
}

// Render produces the artifact for one (series, dayRange, theme, kind)
// combination. A series with nothing to show yields the diagnostic artifact
// rather than an error.
func (r *Renderer) Render(req models.RenderRequest) (models.RenderedArtifact, error) {
	if !models.ValidDayRange(req.DayRange) {
		return models.RenderedArtifact{}, fmt.Errorf("invalid day range: %d", req.DayRange)
	}
	colors, ok := palettes[req.Theme]
	if !ok {
		return models.RenderedArtifact{}, fmt.Errorf("invalid theme: %q", req.Theme)
	}

	var buf bytes.Buffer
	var diagnostic bool

	switch req.Kind {
	case models.KindPlot:
		if len(req.Series.Samples) == 0 {
			writeDiagnostic(&buf, colors, plotErrorMessage)
			diagnostic = true
		} else {
			writePlot(&buf, req.Series, req.DayRange, colors)
		}
	case models.KindTable:
		upcoming := upcomingExtrema(req.Series)
		if len(upcoming) == 0 {
			writeDiagnostic(&buf, colors, tableErrorMessage)
			diagnostic = true
		} else {
			writeTable(&buf, req.Series.StationName, upcoming, req.DayRange, colors)
		}
	default:
		return models.RenderedArtifact{}, fmt.Errorf("invalid artifact kind: %q", req.Kind)
	}

	if diagnostic {
		log.Debug().
			Str("station_id", req.Series.StationID).
			Str("kind", string(req.Kind)).
			Int("days", req.DayRange).
			Msg("Rendered diagnostic artifact")
	}

	return models.RenderedArtifact{
		Bytes:       buf.Bytes(),
		ContentType: models.ContentTypeSVG,
		GeneratedAt: r.clock.Now(),
		Diagnostic:  diagnostic,
	}, nil
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, value)
}

func daySuffix(days int) string {
	if days == 1 {
		return ""
	}
	return fmt.Sprintf(" (%dD)", days)
}
