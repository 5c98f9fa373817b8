package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) client.Interface {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return client.New(client.Options{BaseURL: server.URL, Timeout: 2 * time.Second, Name: t.Name()})
}

func TestNOAAClient_FetchDaily(t *testing.T) {
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/prod/datagetter", r.URL.Path)
		assert.Equal(t, "8443970", q.Get("station"))
		assert.Equal(t, "20240310", q.Get("begin_date"))
		assert.Equal(t, "20240310", q.Get("end_date"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "lst_ldt", q.Get("time_zone"))

		switch q.Get("interval") {
		case "6":
			_, _ = w.Write([]byte(`{"predictions":[{"t":"2024-03-10 00:00","v":"0.52"},{"t":"2024-03-10 00:06","v":"0.55"}]}`))
		case "hilo":
			_, _ = w.Write([]byte(`{"predictions":[{"t":"2024-03-10 04:12","v":"1.31","type":"H"}]}`))
		default:
			t.Errorf("unexpected interval %q", q.Get("interval"))
		}
	})

	payload, err := NewNOAAClient(httpClient).FetchDaily(context.Background(), "8443970", date)
	require.NoError(t, err)

	noaa, ok := payload.(*models.NOAADayPayload)
	require.True(t, ok)
	assert.Len(t, noaa.Predictions, 2)
	require.Len(t, noaa.HighLow, 1)
	assert.Equal(t, models.NoaaPrediction{Time: "2024-03-10 04:12", Height: "1.31", Type: "H"}, noaa.HighLow[0])
}

func TestNOAAClient_FetchDailyEmptyAndMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "error object", body: `{"error":{"message":"No Predictions data was found."}}`},
		{name: "malformed json", body: `{"predictions":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			payload, err := NewNOAAClient(httpClient).FetchDaily(context.Background(), "1", time.Now())
			require.NoError(t, err)
			assert.Equal(t, 0, payload.Len())
		})
	}
}

func TestNOAAClient_FetchDailyServerError(t *testing.T) {
	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewNOAAClient(httpClient).FetchDaily(context.Background(), "8443970", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	var sourceErr *SourceError
	require.True(t, errors.As(err, &sourceErr))
	assert.Equal(t, "8443970", sourceErr.StationID)

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestNOAAClient_FetchMonthly(t *testing.T) {
	month := time.Date(2024, 2, 17, 0, 0, 0, 0, time.UTC)

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20240201", q.Get("begin_date"))
		assert.Equal(t, "20240229", q.Get("end_date"))
		assert.Equal(t, "hilo", q.Get("interval"))
		_, _ = w.Write([]byte(`{"predictions":[
			{"t":"2024-02-01 03:00","v":"1.2","type":"H"},
			{"t":"2024-02-01 09:10","v":"0.1","type":"L"}]}`))
	})

	monthly, err := NewNOAAClient(httpClient).FetchMonthly(context.Background(), "8443970", month)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), monthly.Month)
	assert.Equal(t, []models.MonthlyEvent{
		{DateTime: "2024-02-01 03:00", Height: "1.2", Type: "H"},
		{DateTime: "2024-02-01 09:10", Height: "0.1", Type: "L"},
	}, monthly.Events)
}

func TestNOAAClient_ListStations(t *testing.T) {
	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mdapi/prod/webapi/stations.json", r.URL.Path)
		assert.Equal(t, "tidepredictions", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"stations":[
			{"id":"8443970","name":"Provincetown","state":"MA"},
			{"id":"1611400","name":"Nawiliwili","state":"HI"},
			{"id":"TPT2707","name":"Port Louis","state":""}]}`))
	})

	stations, err := NewNOAAClient(httpClient).ListStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Station{
		{ID: "8443970", Name: "Provincetown", Region: "MA", Source: models.SourceNOAA},
		{ID: "1611400", Name: "Nawiliwili", Region: "HI", Source: models.SourceNOAA},
	}, stations)
}

func TestNOAAClient_ListStationsMalformed(t *testing.T) {
	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := NewNOAAClient(httpClient).ListStations(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestNewSource(t *testing.T) {
	httpClient := client.New(client.Options{})

	src, err := New(models.SourceNOAA, httpClient)
	require.NoError(t, err)
	assert.IsType(t, &NOAAClient{}, src)

	src, err = New(models.SourceIHM, httpClient)
	require.NoError(t, err)
	assert.IsType(t, &IHMClient{}, src)

	_, err = New("UKHO", httpClient)
	assert.Error(t, err)
}
