package models

import "time"

type Source string

const (
	SourceNOAA Source = "NOAA"
	SourceIHM  Source = "IHM"
)

type Station struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Region   string         `json:"region,omitempty"`
	Source   Source         `json:"source"`
	Location *time.Location `json:"-"`
}

// Zone returns the station's time zone, falling back to time.Local.
func (s Station) Zone() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}
