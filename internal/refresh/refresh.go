// Package refresh recomputes scores that have gone stale so that the next
// lookup for a popular title is served from the store.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/trimscore/internal/resolver"
)

// Queue lists ids whose score is missing or older than before and records
// each refresh try so repeatedly failing ids stop heading the list.
type Queue interface {
	ListStale(ctx context.Context, before time.Time, limit int) ([]string, error)
	MarkRefreshAttempt(ctx context.Context, id string, at time.Time) error
}

// Resolver recomputes a score and knows where the current freshness day starts.
type Resolver interface {
	Resolve(ctx context.Context, id string) (resolver.Resolution, error)
	DayStart(t time.Time) time.Time
}

// Report summarizes one refresh batch.
type Report struct {
	Listed    int
	Refreshed int
	Failed    int
}

// Job refreshes one batch of stale scores per run.
type Job struct {
	queue     Queue
	resolver  Resolver
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewJob builds a refresh job. A non-positive batchSize falls back to 50.
func NewJob(queue Queue, res Resolver, batchSize int, logger zerolog.Logger) *Job {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Job{
		queue:     queue,
		resolver:  res,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger.With().Str("component", "refresh").Logger(),
	}
}

// Run recomputes every stale id in the batch. Individual failures are counted,
// not returned; only a failing listing aborts the run.
func (j *Job) Run(ctx context.Context) (Report, error) {
	now := j.now()
	cutoff := j.resolver.DayStart(now)
	ids, err := j.queue.ListStale(ctx, cutoff, j.batchSize)
	if err != nil {
		return Report{}, fmt.Errorf("list stale scores: %w", err)
	}

	report := Report{Listed: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := j.queue.MarkRefreshAttempt(ctx, id, now); err != nil {
			j.logger.Warn().Err(err).Str("id", id).Msg("recording refresh attempt failed")
		}
		if _, err := j.resolver.Resolve(ctx, id); err != nil {
			report.Failed++
			j.logger.Warn().Err(err).Str("id", id).Msg("refresh failed")
			continue
		}
		report.Refreshed++
	}

	j.logger.Info().
		Time("cutoff", cutoff).
		Int("listed", report.Listed).
		Int("refreshed", report.Refreshed).
		Int("failed", report.Failed).
		Msg("refresh batch finished")
	return report, nil
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewScheduler registers job under a standard five-field cron spec. A run that
// is still going when the next one is due causes that next run to be skipped.
func NewScheduler(spec string, job *Job, logger zerolog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{
		cron:   c,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
	_, err := c.AddFunc(spec, func() {
		if _, err := job.Run(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("refresh run failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("starting scheduler")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}
