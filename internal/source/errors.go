package source

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is matched by every fetch failure, whatever the
// underlying cause.
var ErrSourceUnavailable = errors.New("station data source unavailable")

var ErrStationNotFound = errors.New("station not found")

// SourceError represents a failed call to an upstream source
type SourceError struct {
	Op        string
	StationID string
	Err       error
}

func (e *SourceError) Error() string {
	if e.StationID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s for station %s: %v", e.Op, e.StationID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func newSourceError(op, stationID string, err error) *SourceError {
	return &SourceError{
		Op:        op,
		StationID: stationID,
		Err:       err,
	}
}
