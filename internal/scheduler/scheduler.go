package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bbernstein/tidecharts/internal/config"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Refresher runs one refresh cycle for a station.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs one singleton job per station, tagged with the station id.
type Scheduler struct {
	scheduler *gocron.Scheduler
	timeout   time.Duration
}

// New creates a Scheduler. timeout bounds each run; zero means no bound
// beyond the refresher's own.
func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		timeout:   timeout,
	}
}

// AddStation schedules r every interval, starting immediately. An existing
// job for the station is replaced.
func (s *Scheduler) AddStation(stationID string, interval time.Duration, r Refresher) error {
	if !config.ValidInterval(interval) {
		return fmt.Errorf("unsupported update interval %s for station %s", interval, stationID)
	}

	_ = s.scheduler.RemoveByTag(stationID)

	_, err := s.scheduler.Every(interval).
		Tag(stationID).
		SingletonMode().
		Do(s.run, stationID, r)
	if err != nil {
		return fmt.Errorf("scheduling station %s: %w", stationID, err)
	}

	log.Info().Str("station_id", stationID).Dur("interval", interval).Msg("Station scheduled")
	return nil
}

// RemoveStation stops future runs for the station.
func (s *Scheduler) RemoveStation(stationID string) error {
	if err := s.scheduler.RemoveByTag(stationID); err != nil {
		return fmt.Errorf("removing station %s: %w", stationID, err)
	}
	log.Info().Str("station_id", stationID).Msg("Station unscheduled")
	return nil
}

// Stations lists the scheduled station ids.
func (s *Scheduler) Stations() []string {
	var ids []string
	for _, job := range s.scheduler.Jobs() {
		ids = append(ids, job.Tags()...)
	}
	return ids
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run(stationID string, r Refresher) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Debug().Str("station_id", stationID).Msg("Running scheduled refresh")
	if err := r.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("station_id", stationID).Msg("Scheduled refresh failed")
	}
}
