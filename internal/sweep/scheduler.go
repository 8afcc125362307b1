package sweep

import (
	"log"
	"time"

	"github.com/pvolkov/remindly/internal/model"
	"github.com/robfig/cron/v3"
)

// Scheduler fires the sweep on a fixed cron schedule, once per minute by
// default. One scheduler per deployed instance: running two concurrently
// can double-send, the durable sent flag is the only cross-restart state.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	spec    string
	loc     *time.Location
	logger  *log.Logger
}

// NewScheduler creates a Scheduler around the given sweeper.
func NewScheduler(sweeper *Sweeper, spec string, loc *time.Location, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		sweeper: sweeper,
		spec:    spec,
		loc:     loc,
		logger:  logger,
	}
}

// Start registers the sweep job and starts the scheduler loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Printf("scheduler: sweep registered with spec %q", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) run() {
	now := time.Now().In(s.loc)
	processed, err := s.sweeper.RunOnce(model.DateOf(now), model.ClockOf(now))
	if err != nil {
		s.logger.Printf("scheduler: sweep failed: %v", err)
		return
	}
	if processed > 0 {
		s.logger.Printf("scheduler: sweep processed %d reminder(s)", processed)
	}
}
