package scheduler

import (
	"context"
	"fmt"
	"sync"

	"campsite_notification_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Poller runs one poll cycle.
type Poller interface {
	RunCycle(ctx context.Context) app.CycleReport
}

// PollScheduler runs a poll cycle right away and then on a cron schedule.
// A tick that arrives while a cycle is still running is skipped.
type PollScheduler struct {
	cronEngine *cron.Cron
	poller     Poller
	cronSpec   string
	logger     *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	first  sync.WaitGroup
}

// NewPollScheduler schedules poller with a robfig/cron spec such as "@every 5m".
func NewPollScheduler(poller Poller, cronSpec string, logger *logrus.Entry) *PollScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &PollScheduler{
		cronEngine: cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		poller:     poller,
		cronSpec:   cronSpec,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start registers the poll job, starts cron and runs the first cycle at once.
func (s *PollScheduler) Start() error {
	s.logger.WithField("schedule", s.cronSpec).Info("Starting poll scheduler...")

	job := cron.NewChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.logger))).
		Then(cron.FuncJob(s.runCycle))
	if _, err := s.cronEngine.AddJob(s.cronSpec, job); err != nil {
		return fmt.Errorf("could not add poll job %q: %w", s.cronSpec, err)
	}
	s.cronEngine.Start()

	s.first.Add(1)
	go func() {
		defer s.first.Done()
		job.Run()
	}()
	return nil
}

func (s *PollScheduler) runCycle() {
	if s.ctx.Err() != nil {
		return
	}
	report := s.poller.RunCycle(s.ctx)
	s.logger.WithFields(report.Fields()).Debug("Poll job done")
}

// Stop cancels the running cycle and waits for it to return.
func (s *PollScheduler) Stop() {
	s.logger.Info("Stopping poll scheduler...")
	s.cancel()
	<-s.cronEngine.Stop().Done()
	s.first.Wait()
	s.logger.Info("Poll scheduler stopped.")
}
