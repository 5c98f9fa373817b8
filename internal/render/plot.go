package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/internal/tide"
)

const (
	plotWidth  = 800
	plotHeight = 400
	plotMargin = 60

	gridLines = 5
)

// axes maps the series' time and height domains onto the plot area. Built
// once per render.
type axes struct {
	start time.Time
	span  time.Duration
	low   float64
	high  float64
}

func newAxes(samples []models.TideSample) axes {
	start := samples[0].Time
	span := samples[len(samples)-1].Time.Sub(start)
	if span <= 0 {
		span = time.Hour
	}

	low, high := samples[0].Height, samples[0].Height
	for _, s := range samples[1:] {
		low = math.Min(low, s.Height)
		high = math.Max(high, s.Height)
	}
	pad := (high - low) * 0.1
	if pad == 0 {
		pad = 0.5
	}

	return axes{start: start, span: span, low: low - pad, high: high + pad}
}

func (a axes) x(t time.Time) float64 {
	ratio := float64(t.Sub(a.start)) / float64(a.span)
	return plotMargin + ratio*(plotWidth-2*plotMargin)
}

func (a axes) y(h float64) float64 {
	ratio := (h - a.low) / (a.high - a.low)
	return plotHeight - plotMargin - ratio*(plotHeight-2*plotMargin)
}

func (a axes) contains(t time.Time) bool {
	return !t.Before(a.start) && !t.After(a.start.Add(a.span))
}

func px(v float64) int {
	return int(math.Round(v))
}

func writePlot(w io.Writer, series models.StationSeries, days int, colors palette) {
	ax := newAxes(series.Samples)
	canvas := svg.New(w)
	canvas.Start(plotWidth, plotHeight)
	canvas.Rect(0, 0, plotWidth, plotHeight, attr("fill", colors.background))

	writeGrid(canvas, colors)
	writeCurve(canvas, ax, series.Samples, colors)

	if height, ok := tide.HeightAt(series.Samples, series.AsOf); ok && ax.contains(series.AsOf) {
		cx, cy := px(ax.x(series.AsOf)), px(ax.y(height))
		canvas.Circle(cx, cy, 4, attr("fill", colors.currentMarker))
		label := fmt.Sprintf("%.2fm @ %s", height, series.AsOf.In(ax.start.Location()).Format("15:04"))
		canvas.Text(cx, cy-15, label, labelStyle(colors.currentText))
	}

	for _, e := range series.Extrema {
		if !ax.contains(e.Time) {
			continue
		}
		ex, ey := px(ax.x(e.Time)), px(ax.y(e.Height))
		canvas.Circle(ex, ey, 4, attr("fill", colors.extremumColor(e.Type)))

		labelY := ey + 25
		if e.Type == models.TideTypeHigh {
			labelY = ey - 20
		}
		label := fmt.Sprintf("%.2fm @ %s", e.Height, e.Time.Format("15:04"))
		canvas.Text(ex, labelY, label, labelStyle(colors.text))
	}

	writeAxisLabels(canvas, ax, colors)

	title := fmt.Sprintf("TIDE PREDICTION%s - %s", daySuffix(days), strings.ToUpper(series.StationName))
	canvas.Text(plotWidth/2, 25, title,
		`text-anchor="middle"`, fontFamily,
		`font-size="16" font-weight="700" letter-spacing="1"`, attr("fill", colors.title))

	canvas.End()
}

func writeGrid(canvas *svg.SVG, colors palette) {
	innerW := plotWidth - 2*plotMargin
	innerH := plotHeight - 2*plotMargin
	style := []string{attr("stroke", colors.grid), `stroke-width="0.5"`}

	for i := 0; i < gridLines; i++ {
		x := plotMargin + i*innerW/(gridLines-1)
		canvas.Line(x, plotMargin, x, plotHeight-plotMargin, style...)
	}
	for i := 0; i < gridLines; i++ {
		y := plotMargin + i*innerH/(gridLines-1)
		canvas.Line(plotMargin, y, plotWidth-plotMargin, y, style...)
	}
}

func writeCurve(canvas *svg.SVG, ax axes, samples []models.TideSample, colors palette) {
	points := make([]string, len(samples))
	for i, s := range samples {
		points[i] = fmt.Sprintf("%.1f,%.1f", ax.x(s.Time), ax.y(s.Height))
	}

	line := "M " + points[0]
	if len(points) > 1 {
		line += " L " + strings.Join(points[1:], " L ")
	}

	bottom := ax.y(ax.low)
	end := ax.x(samples[len(samples)-1].Time)
	area := fmt.Sprintf("%s L %.1f,%.1f L %.1f,%.1f Z", line, end, bottom, ax.x(ax.start), bottom)

	canvas.Path(area, attr("fill", colors.fill), attr("opacity", colors.fillOpacity))
	canvas.Path(line, attr("stroke", colors.line), `stroke-width="2" fill="none"`)
}

func writeAxisLabels(canvas *svg.SVG, ax axes, colors palette) {
	innerW := plotWidth - 2*plotMargin
	innerH := plotHeight - 2*plotMargin
	tick := []string{fontFamily, `font-size="10" font-weight="500"`, attr("fill", colors.axis)}

	for i := 0; i < gridLines; i++ {
		ratio := float64(i) / float64(gridLines-1)
		x := plotMargin + i*innerW/(gridLines-1)
		at := ax.start.Add(time.Duration(float64(ax.span) * ratio))
		canvas.Text(x, plotHeight-plotMargin+15, at.Format("15:04"), append([]string{`text-anchor="middle"`}, tick...)...)
	}

	for i := 0; i < gridLines; i++ {
		ratio := float64(i) / float64(gridLines-1)
		y := plotHeight - plotMargin - i*innerH/(gridLines-1)
		height := ax.low + (ax.high-ax.low)*ratio
		canvas.Text(plotMargin-10, y+3, fmt.Sprintf("%.1fm", height), append([]string{`text-anchor="end"`}, tick...)...)
	}

	title := []string{`text-anchor="middle"`, fontFamily, `font-size="11" font-weight="600" letter-spacing="0.5"`, attr("fill", colors.axis)}
	canvas.Text(plotWidth/2, plotHeight-10, "TIME", title...)

	canvas.TranslateRotate(15, plotHeight/2, -90)
	canvas.Text(0, 0, "TIDE HEIGHT (M)", title...)
	canvas.Gend()
}

func labelStyle(fill string) string {
	return fmt.Sprintf(`text-anchor="middle" %s font-size="11" font-weight="500" fill="%s"`, fontFamily, fill)
}

func writeDiagnostic(w io.Writer, colors palette, message string) {
	canvas := svg.New(w)
	canvas.Start(plotWidth, plotHeight)
	canvas.Rect(0, 0, plotWidth, plotHeight, attr("fill", colors.errorBackground))
	canvas.Text(plotWidth/2, plotHeight/2, message,
		`text-anchor="middle" font-family="Arial" font-size="18"`, attr("fill", colors.errorText))
	canvas.End()
}
