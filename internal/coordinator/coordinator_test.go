package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/bbernstein/tidecharts/internal/publish"
	"github.com/bbernstein/tidecharts/internal/render"
	"github.com/bbernstein/tidecharts/internal/source"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

var cycleNow = time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

var testStation = models.Station{
	ID:       "33",
	Name:     "Bilbao",
	Source:   models.SourceIHM,
	Location: time.UTC,
}

// dayRecords is one day of 4-hourly heights with a high at 08:00 and a low
// at 16:00.
func dayRecords() []models.IHMRecord {
	heights := []string{"0.5", "2.0", "3.1", "1.8", "0.4", "1.2"}
	records := make([]models.IHMRecord, 0, len(heights))
	for i, h := range heights {
		records = append(records, models.IHMRecord{Hora: fmt.Sprintf("%02d:00", i*4), Altura: h})
	}
	return records
}

type scriptedSource struct {
	mu         sync.Mutex
	daily      func(ctx context.Context, date time.Time) (models.RawPayload, error)
	monthly    func(ctx context.Context, month time.Time) (*models.MonthlyPayload, error)
	dailyCalls []time.Time
}

func (s *scriptedSource) FetchDaily(ctx context.Context, stationID string, date time.Time) (models.RawPayload, error) {
	s.mu.Lock()
	s.dailyCalls = append(s.dailyCalls, date)
	daily := s.daily
	s.mu.Unlock()

	if daily != nil {
		return daily(ctx, date)
	}
	return &models.IHMDayPayload{Records: dayRecords()}, nil
}

func (s *scriptedSource) FetchMonthly(ctx context.Context, stationID string, month time.Time) (*models.MonthlyPayload, error) {
	if s.monthly != nil {
		return s.monthly(ctx, month)
	}
	return &models.MonthlyPayload{Month: month}, nil
}

func (s *scriptedSource) ListStations(ctx context.Context) ([]models.Station, error) {
	return nil, nil
}

// stampingRenderer wraps the real renderer so tests can tell cycles apart
// and inject per-slot failures.
type stampingRenderer struct {
	inner   Renderer
	stamp   time.Time
	panicOn func(req models.RenderRequest) bool
	failOn  func(req models.RenderRequest) bool
}

func (r *stampingRenderer) Render(req models.RenderRequest) (models.RenderedArtifact, error) {
	if r.panicOn != nil && r.panicOn(req) {
		panic("renderer exploded")
	}
	if r.failOn != nil && r.failOn(req) {
		return models.RenderedArtifact{}, errors.New("renderer failed")
	}
	artifact, err := r.inner.Render(req)
	artifact.GeneratedAt = r.stamp
	return artifact, err
}

type transitions struct {
	mu     sync.Mutex
	states []State
}

func (tr *transitions) record(stationID string, from, to State) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.states = append(tr.states, to)
}

func (tr *transitions) list() []State {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]State(nil), tr.states...)
}

func testOptions(tr *transitions) Options {
	opts := Options{
		PlotDays:     []int{1, 3, 7},
		TableDays:    []int{1, 3},
		FetchTimeout: time.Second,
		CycleTimeout: 5 * time.Second,
	}
	if tr != nil {
		opts.OnStateChange = tr.record
	}
	return opts
}

func newTestCoordinator(src source.Source, renderer Renderer, store *publish.Store, opts Options) *Coordinator {
	c := New(testStation, src, renderer, store, opts)
	c.clock = &fakeClock{now: cycleNow}
	return c
}

func allSlots(c *Coordinator) []models.Slot {
	var slots []models.Slot
	for _, d := range c.opts.PlotDays {
		for _, theme := range models.Themes {
			slots = append(slots, models.Slot{StationID: testStation.ID, DayRange: d, Theme: theme, Kind: models.KindPlot})
		}
	}
	for _, d := range c.opts.TableDays {
		for _, theme := range models.Themes {
			slots = append(slots, models.Slot{StationID: testStation.ID, DayRange: d, Theme: theme, Kind: models.KindTable})
		}
	}
	return slots
}

func TestRefreshPublishesEverySlot(t *testing.T) {
	tr := &transitions{}
	src := &scriptedSource{}
	store := publish.NewStore()
	c := newTestCoordinator(src, render.NewRenderer(), store, testOptions(tr))

	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, []State{StateFetching, StateProcessing, StateRendering, StateIdle}, tr.list())
	assert.Equal(t, StateIdle, c.State())

	require.Len(t, src.dailyCalls, 7)
	for i, date := range src.dailyCalls {
		assert.Equal(t, time.Date(2024, 3, 10+i, 0, 0, 0, 0, time.UTC), date)
	}

	series, ok := c.Series()
	require.True(t, ok)
	assert.Equal(t, 7, series.SpanDays)
	assert.Len(t, series.Samples, 42)
	assert.Equal(t, cycleNow, series.AsOf)

	slots := allSlots(c)
	assert.Len(t, slots, 10)
	for _, slot := range slots {
		artifact, ok := store.Get(slot)
		require.True(t, ok, slot.String())
		assert.False(t, artifact.Diagnostic, slot.String())
		assert.Equal(t, models.ContentTypeSVG, artifact.ContentType)
		assert.True(t, store.IsFresh(slot))
	}
}

func TestRefreshStatus(t *testing.T) {
	c := newTestCoordinator(&scriptedSource{}, render.NewRenderer(), publish.NewStore(), testOptions(nil))
	require.NoError(t, c.Refresh(context.Background()))

	status := c.Status()
	assert.True(t, status.Available)
	assert.Equal(t, "Bilbao", status.StationName)
	assert.Equal(t, cycleNow, status.LastSuccess)
	assert.Empty(t, status.LastError)

	require.NotNil(t, status.CurrentHeight)
	assert.InDelta(t, 2.45, *status.CurrentHeight, 1e-9)

	require.NotNil(t, status.Trend)
	assert.Equal(t, models.TideTypeFalling, *status.Trend)

	require.NotNil(t, status.NextLow)
	assert.Equal(t, cycleNow.Add(6*time.Hour), status.NextLow.Time)
	assert.Equal(t, 0.4, status.NextLow.Height)

	require.NotNil(t, status.NextHigh)
	assert.Equal(t, cycleNow.Add(10*time.Hour), status.NextHigh.Time)
	assert.Equal(t, 1.2, status.NextHigh.Height)
}

func TestRefreshOneDayTimesOut(t *testing.T) {
	slowDay := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	src := &scriptedSource{
		daily: func(ctx context.Context, date time.Time) (models.RawPayload, error) {
			if date.Equal(slowDay) {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &models.IHMDayPayload{Records: dayRecords()}, nil
		},
	}
	opts := testOptions(nil)
	opts.FetchTimeout = 50 * time.Millisecond
	store := publish.NewStore()
	c := newTestCoordinator(src, render.NewRenderer(), store, opts)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, src.dailyCalls, 7, "later days are still fetched")

	series, ok := c.Series()
	require.True(t, ok)
	assert.Len(t, series.Samples, 36)
	for _, s := range series.Samples {
		assert.NotEqual(t, 13, s.Time.Day(), "the failed day contributes no samples")
	}

	assert.True(t, c.Status().Available)
	assert.True(t, store.IsFresh(models.Slot{StationID: "33", DayRange: 7, Theme: models.ThemeDark, Kind: models.KindPlot}))
}

func TestRefreshTotalFailureKeepsLastGood(t *testing.T) {
	tr := &transitions{}
	src := &scriptedSource{}
	store := publish.NewStore()
	renderer := &stampingRenderer{inner: render.NewRenderer(), stamp: cycleNow}
	c := newTestCoordinator(src, renderer, store, testOptions(tr))

	require.NoError(t, c.Refresh(context.Background()))
	before, _ := c.Series()
	statusBefore := c.Status()
	artifactsBefore := map[models.Slot]models.RenderedArtifact{}
	for _, slot := range allSlots(c) {
		artifactsBefore[slot], _ = store.Get(slot)
	}

	src.mu.Lock()
	src.daily = func(ctx context.Context, date time.Time) (models.RawPayload, error) {
		return nil, errors.New("connection refused")
	}
	src.mu.Unlock()
	renderer.stamp = cycleNow.Add(time.Hour)
	c.clock = &fakeClock{now: cycleNow.Add(time.Hour)}

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)

	after, ok := c.Series()
	require.True(t, ok)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("series changed after failed cycle (-before +after):\n%s", diff)
	}

	for slot, artifact := range artifactsBefore {
		got, ok := store.Get(slot)
		require.True(t, ok)
		assert.Equal(t, artifact.Bytes, got.Bytes, slot.String())
		assert.Equal(t, cycleNow, got.GeneratedAt, slot.String())
		assert.False(t, store.IsFresh(slot))
	}

	status := c.Status()
	assert.False(t, status.Available)
	assert.Contains(t, status.LastError, "all 7 daily fetches failed")
	assert.Equal(t, cycleNow.Add(time.Hour), status.LastAttempt)
	assert.Equal(t, statusBefore.LastSuccess, status.LastSuccess)
	assert.Equal(t, statusBefore.CurrentHeight, status.CurrentHeight)

	states := tr.list()
	assert.Equal(t, []State{StateFetching, StateFailed, StateIdle}, states[len(states)-3:])
	assert.Equal(t, StateIdle, c.State())
}

func TestRefreshCycleTimeoutAbortsWholeCycle(t *testing.T) {
	src := &scriptedSource{
		daily: func(ctx context.Context, date time.Time) (models.RawPayload, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	opts := testOptions(nil)
	opts.CycleTimeout = 100 * time.Millisecond
	store := publish.NewStore()
	c := newTestCoordinator(src, render.NewRenderer(), store, opts)

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, src.dailyCalls, 1, "no further days after the cycle deadline")
	assert.Empty(t, store.Slots("33"))

	_, ok := c.Series()
	assert.False(t, ok)
}

func TestRefreshFetchPanicFailsCycle(t *testing.T) {
	src := &scriptedSource{
		daily: func(ctx context.Context, date time.Time) (models.RawPayload, error) {
			panic("decoder bug")
		},
	}
	c := newTestCoordinator(src, render.NewRenderer(), publish.NewStore(), testOptions(nil))

	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.running.Load())
}

func TestRefreshAllEmptyRendersDiagnostics(t *testing.T) {
	src := &scriptedSource{
		daily: func(ctx context.Context, date time.Time) (models.RawPayload, error) {
			return &models.IHMDayPayload{}, nil
		},
	}
	store := publish.NewStore()
	c := newTestCoordinator(src, render.NewRenderer(), store, testOptions(nil))

	require.NoError(t, c.Refresh(context.Background()))

	for _, slot := range allSlots(c) {
		artifact, ok := store.Get(slot)
		require.True(t, ok, slot.String())
		assert.True(t, artifact.Diagnostic, slot.String())
		assert.Contains(t, string(artifact.Bytes), "<svg")
	}

	status := c.Status()
	assert.True(t, status.Available)
	assert.Nil(t, status.CurrentHeight)
	assert.Nil(t, status.NextHigh)
	assert.Nil(t, status.Trend)
}

func TestRenderFailureIsIsolated(t *testing.T) {
	store := publish.NewStore()
	renderer := &stampingRenderer{inner: render.NewRenderer(), stamp: cycleNow}
	c := newTestCoordinator(&scriptedSource{}, renderer, store, testOptions(nil))
	require.NoError(t, c.Refresh(context.Background()))

	panicSlot := models.Slot{StationID: "33", DayRange: 1, Theme: models.ThemeDark, Kind: models.KindTable}
	errorSlot := models.Slot{StationID: "33", DayRange: 3, Theme: models.ThemeLight, Kind: models.KindPlot}
	matches := func(slot models.Slot) func(models.RenderRequest) bool {
		return func(req models.RenderRequest) bool {
			return req.DayRange == slot.DayRange && req.Theme == slot.Theme && req.Kind == slot.Kind
		}
	}
	renderer.stamp = cycleNow.Add(time.Hour)
	renderer.panicOn = matches(panicSlot)
	renderer.failOn = matches(errorSlot)

	require.NoError(t, c.Refresh(context.Background()))

	for _, slot := range allSlots(c) {
		artifact, ok := store.Get(slot)
		require.True(t, ok)
		if slot == panicSlot || slot == errorSlot {
			assert.Equal(t, cycleNow, artifact.GeneratedAt, "failed slot %s keeps its previous artifact", slot)
			continue
		}
		assert.Equal(t, cycleNow.Add(time.Hour), artifact.GeneratedAt, slot.String())
	}
	assert.True(t, c.Status().Available, "render failures do not fail the update")
}

func TestMonthlyFallbackForNextExtrema(t *testing.T) {
	src := &scriptedSource{
		daily: func(ctx context.Context, date time.Time) (models.RawPayload, error) {
			return &models.IHMDayPayload{Records: []models.IHMRecord{
				{Hora: "00:00", Altura: "0.1"},
				{Hora: "06:00", Altura: "0.5"},
				{Hora: "12:00", Altura: "0.9"},
				{Hora: "18:00", Altura: "1.3"},
			}}, nil
		},
		monthly: func(ctx context.Context, month time.Time) (*models.MonthlyPayload, error) {
			assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), month)
			return &models.MonthlyPayload{Month: month, Events: []models.MonthlyEvent{
				{DateTime: "2024-03-10 03:00", Height: "0.0", Type: "L"},
				{DateTime: "2024-03-10 22:00", Height: "1.5", Type: "H"},
				{DateTime: "2024-03-11 04:10", Height: "0.2", Type: "L"},
			}}, nil
		},
	}
	opts := testOptions(nil)
	opts.PlotDays = []int{1}
	opts.TableDays = nil
	c := newTestCoordinator(src, render.NewRenderer(), publish.NewStore(), opts)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, src.dailyCalls, 1)

	status := c.Status()
	require.NotNil(t, status.CurrentHeight)
	assert.InDelta(t, 0.77, *status.CurrentHeight, 1e-9)
	require.NotNil(t, status.NextHigh)
	assert.Equal(t, time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC), status.NextHigh.Time)
	require.NotNil(t, status.NextLow)
	assert.Equal(t, time.Date(2024, 3, 11, 4, 10, 0, 0, time.UTC), status.NextLow.Time)
	require.NotNil(t, status.Trend)
	assert.Equal(t, models.TideTypeRising, *status.Trend)
}

func TestMonthlyFailureIsNotFatal(t *testing.T) {
	src := &scriptedSource{
		monthly: func(ctx context.Context, month time.Time) (*models.MonthlyPayload, error) {
			return nil, errors.New("503")
		},
	}
	c := newTestCoordinator(src, render.NewRenderer(), publish.NewStore(), testOptions(nil))

	require.NoError(t, c.Refresh(context.Background()))
	assert.True(t, c.Status().Available)
}

func TestRefreshRejectsOverlap(t *testing.T) {
	c := newTestCoordinator(&scriptedSource{}, render.NewRenderer(), publish.NewStore(), testOptions(nil))
	c.running.Store(true)

	assert.ErrorIs(t, c.Refresh(context.Background()), ErrCycleInProgress)
}

func TestNewNormalizesOptions(t *testing.T) {
	c := New(testStation, &scriptedSource{}, render.NewRenderer(), publish.NewStore(), Options{
		PlotDays:  []int{3, 0, 3, 9, 1},
		TableDays: []int{2},
	})

	assert.Equal(t, []int{1, 3}, c.opts.PlotDays)
	assert.Equal(t, []int{1, 2, 3}, c.dayRanges())
	assert.Equal(t, 3, c.fetchDays())
	assert.Equal(t, defaultFetchTimeout, c.opts.FetchTimeout)
	assert.Equal(t, defaultCycleTimeout, c.opts.CycleTimeout)

	c = New(testStation, &scriptedSource{}, render.NewRenderer(), publish.NewStore(), Options{})
	assert.Equal(t, []int{1}, c.opts.PlotDays)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
