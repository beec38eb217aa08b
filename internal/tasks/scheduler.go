package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler submits tasks on cron schedules and remembers the latest
// submission per task name.
type Scheduler struct {
	queue *Queue
	cron  *cron.Cron
}

func NewScheduler(q *Queue) *Scheduler {
	return &Scheduler{
		queue: q,
		cron:  cron.New(),
	}
}

// Schedule submits name with args on every tick of spec, e.g. "0 3 * * *"
// or "@every 6h".
func (s *Scheduler) Schedule(spec, name string, args any) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.submit(ctx, name, args)
	})
	return err
}

func (s *Scheduler) submit(ctx context.Context, name string, args any) {
	id, err := s.queue.Submit(ctx, name, args)
	if err != nil {
		log.Error().Err(err).Str("task", name).Msg("scheduled submit failed")
		return
	}
	if err := s.queue.SetLatest(ctx, name, id); err != nil {
		log.Error().Err(err).Str("task", name).Msg("could not record latest task")
		return
	}
	log.Info().Str("task", name).Str("task_id", id).Msg("scheduled task submitted")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("entries", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}
