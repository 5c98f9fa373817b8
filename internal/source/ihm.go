package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	ihmTidePath    = "/api-ihm/getmarea?request=gettide&format=json&id=%s&%s=%s"
	ihmStationPath = "/api-ihm/getmarea?request=getlist&format=json"
)

// flexString decodes a JSON string or number. IHM is inconsistent about
// quoting ids and heights.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

type ihmRecord struct {
	Fecha  flexString `json:"fecha"`
	Hora   flexString `json:"hora"`
	Altura flexString `json:"altura"`
	Tipo   flexString `json:"tipo"`
}

type ihmResponse struct {
	Mareas struct {
		Datos struct {
			Marea []ihmRecord `json:"marea"`
		} `json:"datos"`
	} `json:"mareas"`
}

// IHMClient reads predictions from the Spanish Instituto Hidrográfico de la
// Marina.
type IHMClient struct {
	httpClient client.Interface
}

var _ Source = (*IHMClient)(nil)

func NewIHMClient(httpClient client.Interface) *IHMClient {
	return &IHMClient{httpClient: httpClient}
}

func (c *IHMClient) FetchDaily(ctx context.Context, stationID string, date time.Time) (models.RawPayload, error) {
	records, err := c.fetchRecords(ctx, stationID, "date", date.Format("20060102"))
	if err != nil {
		return nil, newSourceError("fetching daily tides", stationID, err)
	}

	payload := &models.IHMDayPayload{Records: make([]models.IHMRecord, 0, len(records))}
	for _, r := range records {
		payload.Records = append(payload.Records, models.IHMRecord{
			Hora:   string(r.Hora),
			Altura: string(r.Altura),
			Tipo:   string(r.Tipo),
		})
	}
	return payload, nil
}

// FetchMonthly keeps only the tagged records; untagged monthly points are
// curve samples and carry nothing the fallback needs.
func (c *IHMClient) FetchMonthly(ctx context.Context, stationID string, month time.Time) (*models.MonthlyPayload, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	records, err := c.fetchRecords(ctx, stationID, "month", first.Format("200601"))
	if err != nil {
		return nil, newSourceError("fetching monthly tides", stationID, err)
	}

	events := make([]models.MonthlyEvent, 0, len(records))
	for _, r := range records {
		if r.Tipo == "" || r.Fecha == "" {
			continue
		}
		events = append(events, models.MonthlyEvent{
			DateTime: strings.TrimSpace(string(r.Fecha)) + " " + strings.TrimSpace(string(r.Hora)),
			Height:   string(r.Altura),
			Type:     string(r.Tipo),
		})
	}
	return &models.MonthlyPayload{Month: first, Events: events}, nil
}

func (c *IHMClient) fetchRecords(ctx context.Context, stationID, param, value string) ([]ihmRecord, error) {
	resp, err := c.httpClient.Get(ctx, fmt.Sprintf(ihmTidePath, url.QueryEscape(stationID), param, value))
	if err != nil {
		return nil, err
	}

	var ihmResp ihmResponse
	if err := json.Unmarshal(resp.Body, &ihmResp); err != nil {
		log.Warn().Err(err).Str("station_id", stationID).Msg("Malformed IHM response, treating as empty")
		return nil, nil
	}
	return ihmResp.Mareas.Datos.Marea, nil
}

func (c *IHMClient) ListStations(ctx context.Context) ([]models.Station, error) {
	resp, err := c.httpClient.Get(ctx, ihmStationPath)
	if err != nil {
		return nil, newSourceError("fetching stations", "", err)
	}

	var ihmResp struct {
		Estaciones struct {
			Puertos []struct {
				ID     flexString `json:"id"`
				Puerto string     `json:"puerto"`
				Zona   string     `json:"zona"`
			} `json:"puertos"`
		} `json:"estaciones"`
	}
	if err := json.Unmarshal(resp.Body, &ihmResp); err != nil {
		return nil, newSourceError("decoding stations", "", err)
	}

	stations := make([]models.Station, 0, len(ihmResp.Estaciones.Puertos))
	for _, p := range ihmResp.Estaciones.Puertos {
		if p.ID == "" {
			continue
		}
		stations = append(stations, models.Station{
			ID:     string(p.ID),
			Name:   p.Puerto,
			Region: p.Zona,
			Source: models.SourceIHM,
		})
	}
	return stations, nil
}
