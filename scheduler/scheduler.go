// Package scheduler drives the recurring scrape and promo-refresh cycles.
package scheduler

import (
	"context"
	"time"

	"cruise-deal-scraper/utils"

	"github.com/google/uuid"
)

// Job is one recurring task. The run ID ties all of a cycle's log lines
// together.
type Job func(ctx context.Context, runID string) error

// Scheduler runs the scrape job and the promo job on independent cadences.
// Both run once immediately on Start.
type Scheduler struct {
	scrapeEvery time.Duration
	promoEvery  time.Duration
	scrape      Job
	promo       Job
	logger      *utils.Logger
	stop        chan struct{}
	done        chan struct{}
}

func New(scrapeEvery, promoEvery time.Duration, scrape, promo Job, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		scrapeEvery: scrapeEvery,
		promoEvery:  promoEvery,
		scrape:      scrape,
		promo:       promo,
		logger:      logger,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start blocks until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)

	s.logger.Info("Scheduler started: scrape every %s, promo refresh every %s", s.scrapeEvery, s.promoEvery)

	s.runJob(ctx, "scrape", s.scrape)
	s.runJob(ctx, "promo", s.promo)

	scrapeTicker := time.NewTicker(s.scrapeEvery)
	promoTicker := time.NewTicker(s.promoEvery)
	defer scrapeTicker.Stop()
	defer promoTicker.Stop()

	for {
		select {
		case <-scrapeTicker.C:
			s.runJob(ctx, "scrape", s.scrape)
		case <-promoTicker.C:
			s.runJob(ctx, "promo", s.promo)
		case <-s.stop:
			s.logger.Info("Scheduler stopping")
			return
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, name string, job Job) {
	if job == nil {
		return
	}
	runID := uuid.NewString()
	s.logger.Info("Run %s (%s) starting", runID, name)
	start := time.Now()
	if err := job(ctx, runID); err != nil {
		s.logger.Error("Run %s (%s) failed after %s: %v", runID, name, time.Since(start).Round(time.Second), err)
		return
	}
	s.logger.Success("Run %s (%s) finished in %s", runID, name, time.Since(start).Round(time.Second))
}

// Stop signals the scheduler and waits for the current cycle to end.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}
