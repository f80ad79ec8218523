package service

import (
	"sync"
	"time"
)

// Refresher coalesces bursts of refresh requests into a single
// recomputation: each request cancels the still-pending timer and
// re-arms it, so the work runs once after a quiet period and always
// sees the latest state.
type Refresher struct {
	mu    sync.Mutex
	delay time.Duration
	run   func()
	timer *time.Timer
	stop  bool
}

// NewRefresher creates a refresher that invokes run once per quiet
// period of the given delay.
func NewRefresher(delay time.Duration, run func()) *Refresher {
	return &Refresher{delay: delay, run: run}
}

// Request schedules a refresh, superseding any still-pending one.
func (r *Refresher) Request() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, r.fire)
}

func (r *Refresher) fire() {
	r.mu.Lock()
	if r.stop {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	r.mu.Unlock()

	r.run()
}

// Stop cancels any pending refresh and rejects future requests.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stop = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
