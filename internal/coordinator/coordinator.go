package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bbernstein/tidecharts/internal/metrics"
	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/internal/publish"
	"github.com/bbernstein/tidecharts/internal/source"
	"github.com/bbernstein/tidecharts/internal/tide"
	"github.com/rs/zerolog/log"
)

var ErrCycleInProgress = errors.New("refresh already in progress")

const (
	defaultFetchTimeout = 15 * time.Second
	defaultCycleTimeout = 2 * time.Minute
)

// Renderer produces one artifact.
type Renderer interface {
	Render(req models.RenderRequest) (models.RenderedArtifact, error)
}

// clock interface allows us to mock time in tests
type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (c *systemClock) Now() time.Time {
	return time.Now()
}

type Options struct {
	PlotDays  []int
	TableDays []int

	// FetchTimeout bounds each upstream call; CycleTimeout bounds the whole
	// cycle.
	FetchTimeout time.Duration
	CycleTimeout time.Duration

	// OnStateChange, if set, is called on every transition.
	OnStateChange func(stationID string, from, to State)
}

// Coordinator owns one station's refresh lifecycle. Cycles never overlap;
// the last good series, status and artifacts survive a failed cycle.
type Coordinator struct {
	station   models.Station
	source    source.Source
	renderer  Renderer
	publisher publish.Publisher
	opts      Options
	clock     clock

	running atomic.Bool

	mu     sync.RWMutex
	state  State
	series *models.StationSeries
	status models.StationStatus
}

func New(station models.Station, src source.Source, renderer Renderer, publisher publish.Publisher, opts Options) *Coordinator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = defaultCycleTimeout
	}
	opts.PlotDays = validRanges(opts.PlotDays)
	opts.TableDays = validRanges(opts.TableDays)
	if len(opts.PlotDays) == 0 && len(opts.TableDays) == 0 {
		opts.PlotDays = []int{models.MinDayRange}
	}

	return &Coordinator{
		station:   station,
		source:    src,
		renderer:  renderer,
		publisher: publisher,
		opts:      opts,
		clock:     &systemClock{},
		status: models.StationStatus{
			StationID:   station.ID,
			StationName: station.Name,
		},
	}
}

func validRanges(days []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, d := range days {
		if models.ValidDayRange(d) && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

func (c *Coordinator) Station() models.Station {
	return c.station
}

func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) Status() models.StationStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Series returns the last successfully built series.
func (c *Coordinator) Series() (models.StationSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.series == nil {
		return models.StationSeries{}, false
	}
	return *c.series, true
}

// dayRanges is the sorted union of plot and table ranges.
func (c *Coordinator) dayRanges() []int {
	return validRanges(append(append([]int{}, c.opts.PlotDays...), c.opts.TableDays...))
}

func (c *Coordinator) fetchDays() int {
	ranges := c.dayRanges()
	return ranges[len(ranges)-1]
}

func (c *Coordinator) setState(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	if c.opts.OnStateChange != nil && from != to {
		c.opts.OnStateChange(c.station.ID, from, to)
	}
}

// Refresh runs one cycle. Only a failure of the fetch phase as a whole is
// returned, wrapping source.ErrSourceUnavailable; per-day fetch failures and
// per-slot render failures are absorbed.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	defer c.running.Store(false)

	start := c.clock.Now()
	now := start.In(c.station.Zone())

	ctx, cancel := context.WithTimeout(ctx, c.opts.CycleTimeout)
	defer cancel()

	c.setState(StateFetching)
	days, monthly, err := c.fetch(ctx, now)
	if err != nil {
		c.fail(now, err)
		metrics.ObserveCycle(c.station.ID, metrics.ResultFailure, time.Since(start))
		return fmt.Errorf("refreshing station %s: %w", c.station.ID, err)
	}

	c.setState(StateProcessing)
	series := tide.Aggregate(c.station, days, c.fetchDays(), now)
	status := c.buildStatus(series, monthly, now)

	c.setState(StateRendering)
	rendered, failed := c.renderAll(ctx, days, now)

	c.mu.Lock()
	c.series = &series
	c.status = status
	c.mu.Unlock()
	c.setState(StateIdle)
	c.publisher.MarkUpdated(c.station.ID, true)

	metrics.ObserveCycle(c.station.ID, metrics.ResultSuccess, time.Since(start))
	log.Info().
		Str("station_id", c.station.ID).
		Int("samples", len(series.Samples)).
		Int("extrema", len(series.Extrema)).
		Int("rendered", rendered).
		Int("render_failures", failed).
		Msg("Station refreshed")

	return nil
}

func (c *Coordinator) fail(now time.Time, err error) {
	c.setState(StateFailed)

	c.mu.Lock()
	c.status.Available = false
	c.status.LastAttempt = now
	c.status.LastError = err.Error()
	c.mu.Unlock()

	c.publisher.MarkUpdated(c.station.ID, false)
	log.Warn().Err(err).Str("station_id", c.station.ID).Msg("Station update failed, keeping last good data")

	c.setState(StateIdle)
}

// fetch reads the daily payloads in order, then the month. A failed day is
// recorded with a nil payload. The phase fails when every day fails, the
// cycle deadline passes, or a fetch panics.
func (c *Coordinator) fetch(ctx context.Context, now time.Time) (days []models.DailyPayload, monthly *models.MonthlyPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			days, monthly = nil, nil
			err = fmt.Errorf("%w: panic during fetch: %v", source.ErrSourceUnavailable, r)
		}
	}()

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n := c.fetchDays()
	days = make([]models.DailyPayload, 0, n)
	failed := 0

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("%w: fetch phase aborted: %w", source.ErrSourceUnavailable, err)
		}

		date := today.AddDate(0, 0, i)
		payload, err := c.fetchDay(ctx, date)
		if err != nil {
			failed++
			metrics.ObserveFetch("daily", metrics.ResultFailure)
			log.Warn().
				Err(err).
				Str("station_id", c.station.ID).
				Str("date", date.Format("2006-01-02")).
				Msg("Daily fetch failed, day left empty")
			payload = nil
		} else {
			metrics.ObserveFetch("daily", metrics.ResultSuccess)
		}
		days = append(days, models.DailyPayload{Date: date, Payload: payload})
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: fetch phase aborted: %w", source.ErrSourceUnavailable, err)
	}
	if failed == n {
		return nil, nil, fmt.Errorf("%w: all %d daily fetches failed", source.ErrSourceUnavailable, n)
	}

	monthly, err = c.fetchMonth(ctx, today)
	if err != nil {
		metrics.ObserveFetch("monthly", metrics.ResultFailure)
		log.Warn().Err(err).Str("station_id", c.station.ID).Msg("Monthly fetch failed")
		monthly = nil
	} else {
		metrics.ObserveFetch("monthly", metrics.ResultSuccess)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: fetch phase aborted: %w", source.ErrSourceUnavailable, err)
	}
	return days, monthly, nil
}

func (c *Coordinator) fetchDay(ctx context.Context, date time.Time) (models.RawPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()
	return c.source.FetchDaily(ctx, c.station.ID, date)
}

func (c *Coordinator) fetchMonth(ctx context.Context, month time.Time) (*models.MonthlyPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()
	return c.source.FetchMonthly(ctx, c.station.ID, month)
}

// buildStatus derives the current height, trend and next high/low. The
// monthly extrema stand in when the daily window has no upcoming turn.
func (c *Coordinator) buildStatus(series models.StationSeries, monthly *models.MonthlyPayload, now time.Time) models.StationStatus {
	status := models.StationStatus{
		StationID:   c.station.ID,
		StationName: c.station.Name,
		Available:   true,
		LastAttempt: now,
		LastSuccess: now,
	}

	if height, ok := tide.HeightAt(series.Samples, now); ok {
		height = math.Round(height*100) / 100
		status.CurrentHeight = &height
	}

	monthlyExtrema := tide.NormalizeMonthly(monthly, c.station.Zone())

	for _, kind := range []models.TideType{models.TideTypeHigh, models.TideTypeLow} {
		next, ok := tide.NextExtremum(series.Extrema, now, kind)
		if !ok {
			next, ok = tide.NextExtremum(monthlyExtrema, now, kind)
		}
		if !ok {
			continue
		}
		if kind == models.TideTypeHigh {
			status.NextHigh = &next
		} else {
			status.NextLow = &next
		}
	}

	trend, ok := tide.TrendAt(series.Extrema, now)
	if !ok {
		trend, ok = tide.TrendAt(monthlyExtrema, now)
	}
	if ok {
		status.Trend = &trend
	}

	return status
}

// renderAll renders every configured slot. A failing slot keeps whatever
// was published before.
func (c *Coordinator) renderAll(ctx context.Context, days []models.DailyPayload, now time.Time) (rendered, failed int) {
	for _, dayRange := range c.dayRanges() {
		series := tide.Aggregate(c.station, days, dayRange, now)

		for _, kind := range []models.ArtifactKind{models.KindPlot, models.KindTable} {
			if !c.wants(kind, dayRange) {
				continue
			}
			for _, theme := range models.Themes {
				slot := models.Slot{StationID: c.station.ID, DayRange: dayRange, Theme: theme, Kind: kind}
				if err := c.renderSlot(ctx, slot, series); err != nil {
					failed++
					metrics.ObserveRender(string(kind), metrics.ResultFailure)
					log.Error().
						Err(err).
						Str("station_id", c.station.ID).
						Int("day_range", dayRange).
						Str("theme", string(theme)).
						Str("kind", string(kind)).
						Msg("Render failed, keeping previous artifact")
					continue
				}
				rendered++
			}
		}
	}
	return rendered, failed
}

func (c *Coordinator) wants(kind models.ArtifactKind, dayRange int) bool {
	ranges := c.opts.PlotDays
	if kind == models.KindTable {
		ranges = c.opts.TableDays
	}
	for _, d := range ranges {
		if d == dayRange {
			return true
		}
	}
	return false
}

func (c *Coordinator) renderSlot(ctx context.Context, slot models.Slot, series models.StationSeries) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic rendering %s: %v", slot, r)
		}
	}()

	artifact, err := c.renderer.Render(models.RenderRequest{
		Series:   series,
		DayRange: slot.DayRange,
		Theme:    slot.Theme,
		Kind:     slot.Kind,
	})
	if err != nil {
		return fmt.Errorf("rendering %s: %w", slot, err)
	}

	if err := c.publisher.Publish(ctx, slot, artifact); err != nil {
		return fmt.Errorf("publishing %s: %w", slot, err)
	}

	result := metrics.ResultSuccess
	if artifact.Diagnostic {
		result = metrics.ResultDiagnostic
	}
	metrics.ObserveRender(string(slot.Kind), result)
	return nil
}
