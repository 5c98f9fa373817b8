package models

import "time"

type Dialect string

const (
	DialectIHM  Dialect = "IHM"
	DialectNOAA Dialect = "NOAA"
)

// RawPayload is one day of upstream readings in one of the known dialects.
// The set of implementations is closed; switch on the concrete type.
type RawPayload interface {
	Dialect() Dialect
	Len() int
}

// IHMRecord is a single "hora/altura/tipo" entry. Tipo is empty for plain
// curve points and "pleamar"/"bajamar" for high and low water.
type IHMRecord struct {
	Hora   string `json:"hora"`
	Altura string `json:"altura"`
	Tipo   string `json:"tipo,omitempty"`
}

// IHMDayPayload carries a day of records whose clock times are local to the
// station.
type IHMDayPayload struct {
	Records []IHMRecord `json:"records"`
}

func (p *IHMDayPayload) Dialect() Dialect { return DialectIHM }
func (p *IHMDayPayload) Len() int         { return len(p.Records) }

// NoaaPrediction represents the raw NOAA API prediction response
type NoaaPrediction struct {
	Time   string `json:"t"`              // Time of prediction
	Height string `json:"v"`              // Predicted water level
	Type   string `json:"type,omitempty"` // H for high, L for low
}

// NOAADayPayload holds the 6-minute predictions and the high/low predictions,
// which upstream serves as two separate record sets.
type NOAADayPayload struct {
	Predictions []NoaaPrediction `json:"predictions"`
	HighLow     []NoaaPrediction `json:"highLow"`
}

func (p *NOAADayPayload) Dialect() Dialect { return DialectNOAA }
func (p *NOAADayPayload) Len() int         { return len(p.Predictions) + len(p.HighLow) }

// DailyPayload pairs a raw payload with its nominal calendar day. A nil
// Payload means the day is absent.
type DailyPayload struct {
	Date    time.Time
	Payload RawPayload
}

// MonthlyEvent is a dated high or low water event. DateTime uses the
// "2006-01-02 15:04" layout in station local time.
type MonthlyEvent struct {
	DateTime string `json:"datetime"`
	Height   string `json:"height"`
	Type     string `json:"type"`
}

type MonthlyPayload struct {
	Month  time.Time      `json:"month"`
	Events []MonthlyEvent `json:"events"`
}
