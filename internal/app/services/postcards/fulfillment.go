package postcards

import (
	"context"
	"sync"
	"time"

	"github.com/spacenexus/platform/internal/app/domain/postcard"
	"github.com/spacenexus/platform/internal/app/system"
	"github.com/spacenexus/platform/pkg/logger"
)

var _ system.Service = (*Fulfillment)(nil)

// StageDurations configures how long a postcard sits in each state before
// the runner advances it.
type StageDurations struct {
	// Launch is the time from creation to launched_to_space.
	Launch time.Duration
	// Return is the time from launch to returned_to_earth.
	Return time.Duration
	// Mail is the time from return to mailed_to_owner.
	Mail time.Duration
}

// Fulfillment is the background process standing in for the real
// launch/return logistics. It periodically scans the collection and
// advances postcards whose current stage has run its course. The store's
// transition check still applies, so the runner can never move a card
// backwards.
type Fulfillment struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration
	stages   StageDurations
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewFulfillment creates a lifecycle-managed fulfillment runner.
func NewFulfillment(service *Service, interval time.Duration, stages StageDurations, log *logger.Logger) *Fulfillment {
	if log == nil {
		log = logger.NewDefault("postcard-fulfillment")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Fulfillment{
		service:  service,
		log:      log,
		interval: interval,
		stages:   stages,
		now:      time.Now,
	}
}

func (f *Fulfillment) Name() string { return "postcard-fulfillment" }

func (f *Fulfillment) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.running = true
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				f.tick(runCtx)
			}
		}
	}()

	f.log.Info("postcard fulfillment runner started")
	return nil
}

func (f *Fulfillment) Stop(ctx context.Context) error {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return nil
	}
	cancel := f.cancel
	f.running = false
	f.cancel = nil
	f.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	f.log.Info("postcard fulfillment runner stopped")
	return nil
}

func (f *Fulfillment) tick(ctx context.Context) {
	cards, err := f.service.store.ListPostcards(ctx)
	if err != nil {
		f.log.WithError(err).Warn("fulfillment scan failed")
		return
	}

	now := f.now()
	for _, card := range cards {
		next, due := f.nextStage(card, now)
		if !due {
			continue
		}
		if _, err := f.service.Advance(ctx, card.ID, next, now); err != nil {
			f.log.WithError(err).WithField("postcard_id", card.ID).Warn("fulfillment advance failed")
		}
	}
}

// nextStage decides whether a card's current stage has expired and which
// state it moves to.
func (f *Fulfillment) nextStage(card postcard.Postcard, now time.Time) (postcard.Status, bool) {
	next, ok := card.Status.Next()
	if !ok {
		return "", false
	}

	var since time.Time
	var wait time.Duration
	switch card.Status {
	case postcard.StatusCreated:
		since, wait = card.CreatedAt, f.stages.Launch
	case postcard.StatusLaunched:
		if card.LaunchDate == nil {
			return "", false
		}
		since, wait = *card.LaunchDate, f.stages.Return
	case postcard.StatusReturned:
		if card.ReturnDate == nil {
			return "", false
		}
		since, wait = *card.ReturnDate, f.stages.Mail
	default:
		return "", false
	}

	if wait <= 0 || now.Sub(since) < wait {
		return "", false
	}
	return next, true
}
