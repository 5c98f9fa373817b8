package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DailyPayloadRecord represents a cached raw payload for a station and date
type DailyPayloadRecord struct {
	StationID   string  `dynamodbav:"stationId"`
	Date        string  `dynamodbav:"date"`
	Dialect     Dialect `dynamodbav:"dialect"`
	Body        []byte  `dynamodbav:"body"`
	LastUpdated int64   `dynamodbav:"lastUpdated"`
	TTL         int64   `dynamodbav:"ttl"`
}

// NewDailyPayloadRecord encodes payload into a record keyed by station and day.
func NewDailyPayloadRecord(stationID string, date time.Time, payload RawPayload) (*DailyPayloadRecord, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return &DailyPayloadRecord{
		StationID: stationID,
		Date:      date.Format("2006-01-02"),
		Dialect:   payload.Dialect(),
		Body:      body,
	}, nil
}

// Payload decodes the record body back into its dialect.
func (r *DailyPayloadRecord) Payload() (RawPayload, error) {
	var payload RawPayload
	switch r.Dialect {
	case DialectIHM:
		payload = &IHMDayPayload{}
	case DialectNOAA:
		payload = &NOAADayPayload{}
	default:
		return nil, fmt.Errorf("invalid dialect: %s", r.Dialect)
	}
	if err := json.Unmarshal(r.Body, payload); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", r.Dialect, err)
	}
	return payload, nil
}

// Validate checks if a DailyPayloadRecord's fields are valid
func (r *DailyPayloadRecord) Validate() error {
	if r.StationID == "" {
		return fmt.Errorf("station ID is required")
	}

	if r.Date == "" {
		return fmt.Errorf("date is required")
	}

	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("invalid date format: %s", r.Date)
	}

	switch r.Dialect {
	case DialectIHM, DialectNOAA:
	default:
		return fmt.Errorf("invalid dialect: %s", r.Dialect)
	}

	if len(r.Body) == 0 {
		return fmt.Errorf("body is required")
	}

	return nil
}
