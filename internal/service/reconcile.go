package service

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ReconcileReport describes the outcome of a consistency pass.
type ReconcileReport struct {
	Consistent bool      `json:"consistent"`
	Repaired   bool      `json:"repaired"`
	Country    string    `json:"country,omitempty"`
	ResumedAt  time.Time `json:"resumedAt,omitempty"`
}

// Reconcile detects the close-succeeded/insert-failed inconsistency:
// zero open intervals even though the latest closed interval implies
// the user is somewhere. Treating that state as "no country" would
// silently corrupt later day assignment, so it is surfaced here and,
// when repair is set, fixed by reopening the last known country from
// its exit time.
func (s *TimelineService) Reconcile(ctx context.Context, repair bool) (ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.stays.FetchOpenInterval(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("failed to fetch open interval: %w", err)
	}
	if open != nil {
		return ReconcileReport{Consistent: true}, nil
	}

	latest, err := s.stays.LatestClosedInterval(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("failed to fetch latest closed interval: %w", err)
	}
	if latest == nil {
		// Empty timeline, nothing to repair.
		return ReconcileReport{Consistent: true}, nil
	}

	report := ReconcileReport{
		Consistent: false,
		Country:    latest.CountryCode,
		ResumedAt:  *latest.ExitAt,
	}
	if !repair {
		return report, nil
	}

	if _, err := s.stays.InsertInterval(ctx, latest.CountryCode, *latest.ExitAt, nil, "reconcile", latest.Confidence); err != nil {
		return report, fmt.Errorf("failed to reopen interval: %w", err)
	}
	report.Repaired = true
	log.Printf("timeline: reconciled, reopened %s from %s", latest.CountryCode, latest.ExitAt.Format(time.RFC3339))
	return report, nil
}
