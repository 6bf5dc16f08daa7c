package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/agro-weather/internal/weather"
)

// Recorder records the current observation for a place.
type Recorder interface {
	RecordCurrent(ctx context.Context, place weather.Place) error
}

// Scheduler periodically records current observations for configured locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	recorder  Recorder
	locations []weather.Place
	interval  time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Place, interval time.Duration, recorder Recorder) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		recorder:  recorder,
		locations: locations,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce records every configured location concurrently and waits for all
// of them to finish.
func (s *Scheduler) RunOnce() {
	log.Println("scheduler: running observation record job")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.recorder.RecordCurrent(ctx, loc); err != nil {
				log.Printf("scheduler: record failed for %s: %v", loc.Name, err)
			}
		}()
	}
	wg.Wait()
	log.Println("scheduler: completed observation record job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
