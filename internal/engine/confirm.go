package engine

import (
	"context"
	"sync"
	"time"
)

// DebounceConfirmer is a multi-sample confirmation strategy: a country
// switch is confirmed only after the same candidate code has been seen
// a required number of times within a rolling window. A single stray
// fix near a border never flips the timeline.
type DebounceConfirmer struct {
	mu       sync.Mutex
	required int
	window   time.Duration

	candidate string
	count     int
	lastSeen  time.Time
}

// NewDebounceConfirmer creates a confirmer requiring `required`
// consecutive observations of the same candidate within `window`.
// required <= 1 confirms immediately.
func NewDebounceConfirmer(required int, window time.Duration) *DebounceConfirmer {
	return &DebounceConfirmer{required: required, window: window}
}

// Confirm implements ConfirmFunc.
func (d *DebounceConfirmer) Confirm(_ context.Context, countryCode string, at time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if countryCode != d.candidate || at.Sub(d.lastSeen) > d.window {
		d.candidate = countryCode
		d.count = 0
	}
	d.count++
	d.lastSeen = at

	if d.count >= d.required {
		d.candidate = ""
		d.count = 0
		return true, nil
	}
	return false, nil
}
