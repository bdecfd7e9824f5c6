package stress

import (
	"context"

	"golang.org/x/time/rate"
)

// Scheduler paces request starts and bounds how many are in flight.
type Scheduler struct {
	limiter *rate.Limiter
	sem     chan struct{}
}

func NewScheduler(config *Config) *Scheduler {
	s := &Scheduler{}
	if config.Rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}

	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	s.sem = make(chan struct{}, concurrency)
	return s
}

// Wait blocks until the rate limiter admits the next request.
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.limiter != nil {
		return s.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// Acquire takes a concurrency slot.
func (s *Scheduler) Acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (s *Scheduler) Release() {
	<-s.sem
}

// InFlight returns the number of slots currently held.
func (s *Scheduler) InFlight() int {
	return len(s.sem)
}
