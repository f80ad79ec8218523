// Package engine implements the stay-interval state machine: it turns
// a stream of country observations into a timeline of non-overlapping
// stay intervals with at most one interval open at a time.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mark1ns0n/country-days-backend/internal/models"
)

// Store is the persistence contract the engine depends on. Every
// operation is individually atomic; CloseInterval plus InsertInterval
// during a switch are two separate operations, not one transaction.
type Store interface {
	FetchOpenInterval(ctx context.Context) (*models.StayInterval, error)
	InsertInterval(ctx context.Context, countryCode string, entryAt time.Time, exitAt *time.Time, source string, confidence float64) (*models.StayInterval, error)
	CloseInterval(ctx context.Context, id string, exitAt time.Time) error
	TouchInterval(ctx context.Context, id string, at time.Time) error
}

// ConfirmFunc decides whether a candidate country switch is genuine or
// border flapping. It may block on an external signal; returning an
// error or a cancelled context counts as "not confirmed".
type ConfirmFunc func(ctx context.Context, countryCode string, at time.Time) (bool, error)

// ChangeKind classifies what an observation did to the timeline.
type ChangeKind string

const (
	ChangeCreated    ChangeKind = "CREATED"    // first interval, or reopened after repair
	ChangeExtended   ChangeKind = "EXTENDED"   // same-country continuation
	ChangeSwitched   ChangeKind = "SWITCHED"   // old interval closed, new one opened
	ChangeSuppressed ChangeKind = "SUPPRESSED" // candidate switch not confirmed
)

// ChangeEvent is the explicit mutation signal returned from
// ProcessObservation. Consumers use it to drive downstream refresh
// instead of listening on an ambient broadcast channel.
type ChangeEvent struct {
	Kind        ChangeKind
	CountryCode string
	Previous    string
	At          time.Time
	Interval    *models.StayInterval
}

// Mutated reports whether the event changed the interval timeline.
func (e ChangeEvent) Mutated() bool {
	return e.Kind == ChangeCreated || e.Kind == ChangeSwitched
}

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// StayEngine consumes observations and maintains the single-open-
// interval invariant. A mutex serializes observations so a pending
// confirmation cannot race a second candidate switch against the same
// open interval.
type StayEngine struct {
	store   Store
	confirm ConfirmFunc
	now     func() time.Time
	mu      sync.Mutex
}

// Option configures a StayEngine at construction time.
type Option func(*StayEngine)

// WithConfirm installs the anti-flapping confirmation gate. Without it
// every candidate switch is accepted.
func WithConfirm(fn ConfirmFunc) Option {
	return func(e *StayEngine) { e.confirm = fn }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *StayEngine) { e.now = now }
}

// New creates a stay engine bound to its interval store.
func New(store Store, opts ...Option) *StayEngine {
	e := &StayEngine{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessObservation feeds one observation through the state machine:
//
//  1. no open interval        -> open one for the observed country
//  2. same country            -> bump the open interval's updatedAt
//  3. different country       -> confirm, then close old + open new
//
// Storage failures are returned to the caller untouched; the engine
// never retries. A failure between close and insert is reported as
// ErrInconsistentTimeline so a reconciliation pass can repair it.
func (e *StayEngine) ProcessObservation(ctx context.Context, obs models.Observation) (ChangeEvent, error) {
	code := strings.ToUpper(strings.TrimSpace(obs.CountryCode))
	if !countryCodeRe.MatchString(code) {
		return ChangeEvent{}, fmt.Errorf("%w: %q", ErrInvalidCountryCode, obs.CountryCode)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	open, err := e.store.FetchOpenInterval(ctx)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("failed to fetch open interval: %w", err)
	}

	if open == nil {
		created, err := e.store.InsertInterval(ctx, code, obs.At, nil, obs.Source, obs.Confidence)
		if err != nil {
			return ChangeEvent{}, fmt.Errorf("failed to insert first interval: %w", err)
		}
		return ChangeEvent{Kind: ChangeCreated, CountryCode: code, At: obs.At, Interval: created}, nil
	}

	if open.CountryCode == code {
		if err := e.store.TouchInterval(ctx, open.ID, e.now()); err != nil {
			return ChangeEvent{}, fmt.Errorf("failed to touch open interval: %w", err)
		}
		return ChangeEvent{Kind: ChangeExtended, CountryCode: code, At: obs.At, Interval: open}, nil
	}

	// Candidate switch. The gate runs under the engine mutex: no second
	// observation may race this one while the decision is pending.
	if e.confirm != nil {
		confirmed, err := e.confirm(ctx, code, obs.At)
		if err != nil || !confirmed {
			return ChangeEvent{Kind: ChangeSuppressed, CountryCode: code, Previous: open.CountryCode, At: obs.At}, nil
		}
	}

	if err := e.store.CloseInterval(ctx, open.ID, obs.At); err != nil {
		return ChangeEvent{}, fmt.Errorf("failed to close interval %s: %w", open.ID, err)
	}

	created, err := e.store.InsertInterval(ctx, code, obs.At, nil, obs.Source, obs.Confidence)
	if err != nil {
		// The old interval is already closed; surfacing a plain storage
		// error here would hide that the timeline now has zero open
		// intervals.
		return ChangeEvent{}, fmt.Errorf("%w (closed %s at %s): %v",
			ErrInconsistentTimeline, open.CountryCode, obs.At.Format(time.RFC3339), err)
	}

	return ChangeEvent{
		Kind:        ChangeSwitched,
		CountryCode: code,
		Previous:    open.CountryCode,
		At:          obs.At,
		Interval:    created,
	}, nil
}
