package models

import (
	"fmt"
	"strings"
	"time"
)

const ContentTypeSVG = "image/svg+xml"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var Themes = []Theme{ThemeLight, ThemeDark}

type ArtifactKind string

const (
	KindPlot  ArtifactKind = "plot"
	KindTable ArtifactKind = "table"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(s)) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("invalid theme: %q", s)
}

// ParseArtifactKind accepts "plot" or "table" in any case.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch ArtifactKind(strings.ToLower(s)) {
	case KindPlot:
		return KindPlot, nil
	case KindTable:
		return KindTable, nil
	}
	return "", fmt.Errorf("invalid artifact kind: %q", s)
}

// Slot identifies one published artifact.
type Slot struct {
	StationID string       `json:"stationId"`
	DayRange  int          `json:"dayRange"`
	Theme     Theme        `json:"theme"`
	Kind      ArtifactKind `json:"kind"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%s/%s-%dd-%s", s.StationID, s.Kind, s.DayRange, s.Theme)
}

// RenderRequest is everything a renderer needs to produce one artifact.
type RenderRequest struct {
	Series   StationSeries
	DayRange int
	Theme    Theme
	Kind     ArtifactKind
}

// RenderedArtifact is immutable once produced. Diagnostic is set when the
// artifact is the fixed "no data" rendering rather than a real plot or table.
type RenderedArtifact struct {
	Bytes       []byte    `json:"-"`
	ContentType string    `json:"contentType"`
	GeneratedAt time.Time `json:"generatedAt"`
	Diagnostic  bool      `json:"diagnostic"`
}
