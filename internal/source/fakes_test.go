package source

import (
	"context"
	"sync"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
)

// fakeSource serves canned payloads and counts calls.
type fakeSource struct {
	mu         sync.Mutex
	daily      map[string]models.RawPayload
	dailyErr   error
	stations   []models.Station
	stationErr error
	dailyCalls int
	listCalls  int
}

func dayKey(stationID string, date time.Time) string {
	return stationID + ":" + date.Format("2006-01-02")
}

func (f *fakeSource) FetchDaily(ctx context.Context, stationID string, date time.Time) (models.RawPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls++
	if f.dailyErr != nil {
		return nil, f.dailyErr
	}
	if p, ok := f.daily[dayKey(stationID, date)]; ok {
		return p, nil
	}
	return &models.IHMDayPayload{}, nil
}

func (f *fakeSource) FetchMonthly(ctx context.Context, stationID string, month time.Time) (*models.MonthlyPayload, error) {
	return &models.MonthlyPayload{Month: month}, nil
}

func (f *fakeSource) ListStations(ctx context.Context) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.stations, f.stationErr
}

type memoryStore struct {
	records map[string]models.DailyPayloadRecord
	getErr  error
	saveErr error
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]models.DailyPayloadRecord{}}
}

func (m *memoryStore) GetPayload(ctx context.Context, stationID string, date time.Time) (*models.DailyPayloadRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.records[dayKey(stationID, date)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memoryStore) SavePayload(ctx context.Context, record models.DailyPayloadRecord) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[record.StationID+":"+record.Date] = record
	return nil
}
