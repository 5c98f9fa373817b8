package render

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/bbernstein/tidecharts/internal/models"
)

const (
	tableWidth     = 480
	tableHeader    = 90
	tableRowHeight = 28
	tableFooter    = 20

	colDate   = 20
	colKind   = 170
	colTime   = 300
	colHeight = tableWidth - 20
)

// upcomingExtrema drops every extremum strictly before the series' AsOf.
// Extrema are already chronological.
func upcomingExtrema(series models.StationSeries) []models.Extremum {
	var out []models.Extremum
	for _, e := range series.Extrema {
		if !e.Time.Before(series.AsOf) {
			out = append(out, e)
		}
	}
	return out
}

func writeTable(w io.Writer, name string, rows []models.Extremum, days int, colors palette) {
	height := tableHeader + len(rows)*tableRowHeight + tableFooter

	canvas := svg.New(w)
	canvas.Start(tableWidth, height)
	canvas.Rect(0, 0, tableWidth, height, attr("fill", colors.background))

	title := fmt.Sprintf("TIDE TABLE%s - %s", daySuffix(days), strings.ToUpper(name))
	canvas.Text(tableWidth/2, 32, title,
		`text-anchor="middle"`, fontFamily,
		`font-size="16" font-weight="700" letter-spacing="1"`, attr("fill", colors.title))

	header := []string{fontFamily, `font-size="11" font-weight="600" letter-spacing="0.5"`, attr("fill", colors.axis)}
	canvas.Text(colDate, 70, "DATE", header...)
	canvas.Text(colKind, 70, "TIDE", header...)
	canvas.Text(colTime, 70, "TIME", header...)
	canvas.Text(colHeight, 70, "HEIGHT", append([]string{`text-anchor="end"`}, header...)...)
	canvas.Line(colDate, 80, tableWidth-colDate, 80, attr("stroke", colors.grid), `stroke-width="1"`)

	cell := []string{fontFamily, `font-size="13" font-weight="500"`}
	lastDate := ""
	for i, e := range rows {
		top := tableHeader + i*tableRowHeight
		baseline := top + 19

		date := e.Time.Format("Mon Jan 2")
		if date != lastDate {
			if i > 0 {
				canvas.Line(colDate, top, tableWidth-colDate, top, attr("stroke", colors.grid), `stroke-width="0.5"`)
			}
			canvas.Text(colDate, baseline, date, append(cell, attr("fill", colors.text))...)
			lastDate = date
		}

		kind := "Low"
		if e.Type == models.TideTypeHigh {
			kind = "High"
		}
		canvas.Text(colKind, baseline, kind, append(cell, attr("fill", colors.extremumColor(e.Type)))...)
		canvas.Text(colTime, baseline, e.Time.Format("3:04 PM"), append(cell, attr("fill", colors.text))...)
		canvas.Text(colHeight, baseline, fmt.Sprintf("%.1f m", e.Height),
			append([]string{`text-anchor="end"`}, append(cell, attr("fill", colors.text))...)...)
	}

	canvas.End()
}
