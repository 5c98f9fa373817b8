package render

import "github.com/bbernstein/tidecharts/internal/models"

type palette struct {
	background    string
	grid          string
	line          string
	fill          string
	fillOpacity   string
	currentMarker string
	currentText   string
	high          string
	low           string
	text          string
	title         string
	axis          string

	errorBackground string
	errorText       string
}

var palettes = map[models.Theme]palette{
	models.ThemeDark: {
		background:      "#0a0e14",
		grid:            "#1a2332",
		line:            "#00f6ff",
		fill:            "#00f6ff",
		fillOpacity:     "0.15",
		currentMarker:   "#ff00ff",
		currentText:     "#00f6ff",
		high:            "#ff0080",
		low:             "#00ff9f",
		text:            "#e0e0e0",
		title:           "#00f6ff",
		axis:            "#8899aa",
		errorBackground: "#1e1e1e",
		errorText:       "#FF5722",
	},
	models.ThemeLight: {
		background:      "#f5f5f5",
		grid:            "#d0d0d0",
		line:            "#0099ff",
		fill:            "#0099ff",
		fillOpacity:     "0.2",
		currentMarker:   "#ff0080",
		currentText:     "#000000",
		high:            "#ff0066",
		low:             "#00cc88",
		text:            "#1a1a1a",
		title:           "#0066cc",
		axis:            "#4a4a4a",
		errorBackground: "white",
		errorText:       "red",
	},
}

// extremumColor picks the marker colour for a high or low tide.
func (p palette) extremumColor(t models.TideType) string {
	if t == models.TideTypeHigh {
		return p.high
	}
	return p.low
}
