package models

import (
	"fmt"
	"math"
	"time"
)

type TideType string

const (
	TideTypeNone    TideType = ""
	TideTypeRising  TideType = "RISING"
	TideTypeFalling TideType = "FALLING"
	TideTypeHigh    TideType = "HIGH"
	TideTypeLow     TideType = "LOW"
)

// IsExtremum reports whether the type marks a high or low turning point.
func (t TideType) IsExtremum() bool {
	return t == TideTypeHigh || t == TideTypeLow
}

// TideSample is a single height reading. Type is set only when the source
// tagged the reading as a high or low tide.
type TideSample struct {
	Time   time.Time `json:"time"`
	Height float64   `json:"height"`
	Type   TideType  `json:"type,omitempty"`
}

// Extremum represents a high or low tide
type Extremum struct {
	Time   time.Time `json:"time"`
	Height float64   `json:"height"`
	Type   TideType  `json:"type"`
}

// StationSeries is the canonical, time-ordered series for one station built
// during a refresh cycle. AsOf is the instant the cycle considered "now".
type StationSeries struct {
	StationID   string       `json:"stationId"`
	StationName string       `json:"stationName"`
	Samples     []TideSample `json:"samples"`
	Extrema     []Extremum   `json:"extrema"`
	SpanDays    int          `json:"spanDays"`
	AsOf        time.Time    `json:"asOf"`
}

const (
	MinDayRange = 1
	MaxDayRange = 7
)

// ValidDayRange reports whether days is an accepted artifact day-range.
func ValidDayRange(days int) bool {
	return days >= MinDayRange && days <= MaxDayRange
}

// Validate checks if a TideSample's fields are valid
func (s *TideSample) Validate() error {
	if s.Time.IsZero() {
		return fmt.Errorf("sample time is required")
	}
	if math.IsNaN(s.Height) || math.IsInf(s.Height, 0) {
		return fmt.Errorf("invalid height: %f", s.Height)
	}
	switch s.Type {
	case TideTypeNone, TideTypeHigh, TideTypeLow:
	default:
		return fmt.Errorf("invalid tide type: %s", s.Type)
	}
	return nil
}

// Validate checks if an Extremum's fields are valid
func (e *Extremum) Validate() error {
	if e.Time.IsZero() {
		return fmt.Errorf("extremum time is required")
	}
	if !e.Type.IsExtremum() {
		return fmt.Errorf("invalid tide type: %s", e.Type)
	}
	return nil
}

// Validate checks the ordering invariant and the per-sample fields of a series.
func (s *StationSeries) Validate() error {
	if s.StationID == "" {
		return fmt.Errorf("station ID is required")
	}
	if s.SpanDays < 0 || s.SpanDays > MaxDayRange {
		return fmt.Errorf("invalid span: %d days", s.SpanDays)
	}
	for i := range s.Samples {
		if err := s.Samples[i].Validate(); err != nil {
			return fmt.Errorf("invalid sample at index %d: %w", i, err)
		}
		if i > 0 && s.Samples[i].Time.Before(s.Samples[i-1].Time) {
			return fmt.Errorf("sample at index %d is out of order", i)
		}
	}
	for i := range s.Extrema {
		if err := s.Extrema[i].Validate(); err != nil {
			return fmt.Errorf("invalid extremum at index %d: %w", i, err)
		}
	}
	return nil
}

// StationStatus is the per-station summary surfaced next to the artifacts.
type StationStatus struct {
	StationID     string    `json:"stationId"`
	StationName   string    `json:"stationName"`
	Available     bool      `json:"available"`
	LastAttempt   time.Time `json:"lastAttempt"`
	LastSuccess   time.Time `json:"lastSuccess"`
	LastError     string    `json:"lastError,omitempty"`
	CurrentHeight *float64  `json:"currentHeight"`
	Trend         *TideType `json:"trend"`
	NextHigh      *Extremum `json:"nextHigh"`
	NextLow       *Extremum `json:"nextLow"`
}
