package tide

import (
	"testing"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestNormalizeDayIHM(t *testing.T) {
	day := models.DailyPayload{
		Date: testDay,
		Payload: &models.IHMDayPayload{Records: []models.IHMRecord{
			{Hora: "06:00", Altura: "1.0"},
			{Hora: "12:00", Altura: "3.0", Tipo: "pleamar"},
			{Hora: "18:00", Altura: "0.5", Tipo: "bajamar"},
		}},
	}

	samples := NormalizeDay(day, time.UTC)
	require.Len(t, samples, 3)

	assert.Equal(t, at(6, 0), samples[0].Time)
	assert.Equal(t, 1.0, samples[0].Height)
	assert.Equal(t, models.TideTypeNone, samples[0].Type)
	assert.Equal(t, models.TideTypeHigh, samples[1].Type)
	assert.Equal(t, models.TideTypeLow, samples[2].Type)
}

func TestNormalizeDaySkipsMalformedRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []models.IHMRecord
		want    int
	}{
		{
			name: "bad height",
			records: []models.IHMRecord{
				{Hora: "06:00", Altura: "abc"},
				{Hora: "07:00", Altura: "1.1"},
			},
			want: 1,
		},
		{
			name: "missing time",
			records: []models.IHMRecord{
				{Altura: "1.0"},
				{Hora: "07:00", Altura: "1.1"},
			},
			want: 1,
		},
		{
			name: "bad time",
			records: []models.IHMRecord{
				{Hora: "25:99", Altura: "1.0"},
			},
			want: 0,
		},
		{
			name: "infinite height",
			records: []models.IHMRecord{
				{Hora: "06:00", Altura: "Inf"},
				{Hora: "07:00", Altura: "NaN"},
			},
			want: 0,
		},
		{
			name: "comma decimal",
			records: []models.IHMRecord{
				{Hora: "06:00", Altura: "1,25"},
			},
			want: 1,
		},
		{
			name: "seconds in clock",
			records: []models.IHMRecord{
				{Hora: "06:00:30", Altura: "1.25"},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := models.DailyPayload{Date: testDay, Payload: &models.IHMDayPayload{Records: tt.records}}
			assert.Len(t, NormalizeDay(day, time.UTC), tt.want)
		})
	}
}

func TestNormalizeDayNilPayload(t *testing.T) {
	assert.Empty(t, NormalizeDay(models.DailyPayload{Date: testDay}, time.UTC))
}

func TestNormalizeDayWrapsPastMidnight(t *testing.T) {
	day := models.DailyPayload{
		Date: testDay,
		Payload: &models.IHMDayPayload{Records: []models.IHMRecord{
			{Hora: "18:00", Altura: "0.4", Tipo: "bajamar"},
			{Hora: "23:30", Altura: "2.9"},
			{Hora: "00:20", Altura: "3.1", Tipo: "pleamar"},
		}},
	}

	samples := NormalizeDay(day, time.UTC)
	require.Len(t, samples, 3)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 20, 0, 0, time.UTC), samples[2].Time)
}

func TestNormalizeDayNOAA(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	day := models.DailyPayload{
		Date: testDay,
		Payload: &models.NOAADayPayload{
			Predictions: []models.NoaaPrediction{
				{Time: "2024-03-10 00:00", Height: "1.0"},
				{Time: "2024-03-10 00:06", Height: "1.1"},
				{Time: "2024-03-10 00:12", Height: "bad"},
			},
			HighLow: []models.NoaaPrediction{
				{Time: "2024-03-10 00:06", Height: "1.1", Type: "H"},
				{Time: "2024-03-10 06:30", Height: "0.2", Type: "LL"},
			},
		},
	}

	samples := NormalizeDay(day, loc)
	require.Len(t, samples, 3)

	assert.True(t, samples[0].Time.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)))
	// Duplicate timestamp keeps the first reading and picks up the tag.
	assert.Equal(t, models.TideTypeHigh, samples[1].Type)
	assert.Equal(t, 1.1, samples[1].Height)
	assert.Equal(t, models.TideTypeLow, samples[2].Type)
}

func TestNormalizeDayNOAAShiftsOutOfWindow(t *testing.T) {
	day := models.DailyPayload{
		Date: testDay,
		Payload: &models.NOAADayPayload{
			Predictions: []models.NoaaPrediction{
				{Time: "2024-03-08 10:00", Height: "1.0"},
				{Time: "2024-03-10 10:00", Height: "1.5"},
				{Time: "2024-03-12 10:00", Height: "2.0"},
			},
		},
	}

	samples := NormalizeDay(day, time.UTC)
	require.Len(t, samples, 3)
	assert.Equal(t, time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC), samples[0].Time)
	assert.Equal(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), samples[1].Time)
	assert.Equal(t, time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC), samples[2].Time)
}

func TestNormalizeMonthly(t *testing.T) {
	payload := &models.MonthlyPayload{
		Month: testDay,
		Events: []models.MonthlyEvent{
			{DateTime: "2024-03-10 12:00", Height: "3.0", Type: "H"},
			{DateTime: "2024-03-10 06:00", Height: "0.1", Type: "L"},
			{DateTime: "garbage", Height: "1.0", Type: "H"},
			{DateTime: "2024-03-10 09:00", Height: "1.0", Type: "X"},
		},
	}

	extrema := NormalizeMonthly(payload, time.UTC)
	require.Len(t, extrema, 2)
	assert.Equal(t, models.TideTypeLow, extrema[0].Type)
	assert.Equal(t, at(12, 0), extrema[1].Time)

	assert.Nil(t, NormalizeMonthly(nil, time.UTC))
}

func TestNormalizeMonthlyEventLayouts(t *testing.T) {
	tests := []struct {
		name     string
		dateTime string
		want     time.Time
	}{
		{name: "minutes", dateTime: "2024-03-10 12:34", want: at(12, 34)},
		{name: "seconds", dateTime: "2024-03-10 12:34:00", want: at(12, 34)},
		{name: "padded", dateTime: " 2024-03-10 18:02:30 ", want: at(18, 2).Add(30 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := &models.MonthlyPayload{
				Month: testDay,
				Events: []models.MonthlyEvent{
					{DateTime: tt.dateTime, Height: "3,1", Type: "pleamar"},
					{DateTime: "2024-03-10 06:15:00", Height: "0.4", Type: "bajamar"},
				},
			}

			extrema := NormalizeMonthly(payload, time.UTC)
			require.Len(t, extrema, 2)
			assert.Equal(t, models.TideTypeLow, extrema[0].Type)
			assert.Equal(t, models.TideTypeHigh, extrema[1].Type)
			assert.Equal(t, tt.want, extrema[1].Time)
		})
	}
}
