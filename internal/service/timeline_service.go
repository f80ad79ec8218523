package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mark1ns0n/country-days-backend/internal/engine"
	"github.com/mark1ns0n/country-days-backend/internal/models"
	"github.com/mark1ns0n/country-days-backend/internal/repository"
	"github.com/mark1ns0n/country-days-backend/internal/spatial"
)

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// TimelineOptions tunes the ingest pipeline's anti-flapping policy.
// Zero values disable the corresponding gate.
type TimelineOptions struct {
	// MinSwitchMeters suppresses a candidate switch when the fix moved
	// less than this distance since the previous accepted fix.
	MinSwitchMeters float64
	// ConfirmSamples / ConfirmWindow debounce switches: the candidate
	// country must be seen this many times inside the window.
	ConfirmSamples int
	ConfirmWindow  time.Duration
	// OnChange receives every timeline mutation event.
	OnChange func(engine.ChangeEvent)
}

// IngestResult reports what one observation did.
type IngestResult struct {
	Accepted bool                 `json:"accepted"`
	Note     string               `json:"note,omitempty"`
	Change   engine.ChangeKind    `json:"change,omitempty"`
	Interval *models.StayInterval `json:"interval,omitempty"`
}

// TimelineService owns the write path: it validates and audits raw
// observations, feeds them to the stay engine, and signals mutations.
// A mutex enforces the single-logical-writer model; one observation is
// processed at a time.
type TimelineService struct {
	stays  *repository.StayRepository
	logs   *repository.LogRepository
	engine *engine.StayEngine
	opts   TimelineOptions

	mu      sync.Mutex
	hasFix  bool
	lastLat float64
	lastLon float64
	curLat  float64
	curLon  float64
}

// NewTimelineService wires the ingest pipeline. The engine's
// confirmation gate is composed here from the configured distance and
// debounce policies; with both disabled every switch is accepted. The
// previous accepted fix is reloaded from the audit log so the distance
// gate survives process restarts.
func NewTimelineService(stays *repository.StayRepository, logs *repository.LogRepository, opts TimelineOptions) *TimelineService {
	s := &TimelineService{stays: stays, logs: logs, opts: opts}
	s.seedLastFix()

	var engOpts []engine.Option
	if gate := s.buildGate(); gate != nil {
		engOpts = append(engOpts, engine.WithConfirm(gate))
	}
	s.engine = engine.New(stays, engOpts...)
	return s
}

func (s *TimelineService) seedLastFix() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fix, err := s.logs.LatestAcceptedFix(ctx)
	if err != nil {
		log.Printf("timeline: could not reload last accepted fix: %v", err)
		return
	}
	if fix != nil {
		s.lastLat, s.lastLon, s.hasFix = fix.Latitude, fix.Longitude, true
	}
}

// buildGate composes the switch-confirmation predicate. Both gates
// must pass; either alone suffices as a policy. The gate runs inside
// Ingest's critical section, so reading curLat/curLon is safe.
func (s *TimelineService) buildGate() engine.ConfirmFunc {
	var debounce *engine.DebounceConfirmer
	if s.opts.ConfirmSamples > 1 {
		debounce = engine.NewDebounceConfirmer(s.opts.ConfirmSamples, s.opts.ConfirmWindow)
	}
	minMeters := s.opts.MinSwitchMeters

	if debounce == nil && minMeters <= 0 {
		return nil
	}

	return func(ctx context.Context, code string, at time.Time) (bool, error) {
		if minMeters > 0 && s.hasFix {
			moved := spatial.HaversineDistance(s.lastLat, s.lastLon, s.curLat, s.curLon)
			if moved < minMeters {
				return false, nil
			}
		}
		if debounce != nil {
			return debounce.Confirm(ctx, code, at)
		}
		return true, nil
	}
}

// Ingest runs one observation through the pipeline: audit-log it,
// reject it if unusable, otherwise hand it to the engine. Input
// rejection is a normal result, not an error; only storage faults
// return one.
func (s *TimelineService) Ingest(ctx context.Context, req models.ObservationRequest) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := time.Now().UTC()
	if req.Timestamp > 0 {
		at = time.Unix(req.Timestamp, 0).UTC()
	}

	code := strings.ToUpper(strings.TrimSpace(req.CountryCode))

	reject := func(note string) (IngestResult, error) {
		_, err := s.logs.AppendLog(ctx, models.LocationEventLog{
			Timestamp: at,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Source:    req.Source,
			Accepted:  false,
			Note:      note,
		})
		if err != nil {
			return IngestResult{}, err
		}
		return IngestResult{Accepted: false, Note: note}, nil
	}

	if !spatial.ValidCoordinate(req.Latitude, req.Longitude) {
		return reject("invalid coordinates")
	}
	if !countryCodeRe.MatchString(code) {
		return reject("no country code resolved")
	}

	if _, err := s.logs.AppendLog(ctx, models.LocationEventLog{
		Timestamp:            at,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		Source:               req.Source,
		CountryCodeCandidate: code,
		Accepted:             true,
	}); err != nil {
		return IngestResult{}, err
	}

	s.curLat, s.curLon = req.Latitude, req.Longitude

	event, err := s.engine.ProcessObservation(ctx, models.Observation{
		CountryCode: code,
		At:          at,
		Source:      req.Source,
		Confidence:  req.Confidence,
	})
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to process observation: %w", err)
	}

	s.lastLat, s.lastLon, s.hasFix = req.Latitude, req.Longitude, true

	if event.Mutated() {
		log.Printf("timeline: %s -> %s at %s", event.Previous, event.CountryCode, event.At.Format(time.RFC3339))
		if s.opts.OnChange != nil {
			s.opts.OnChange(event)
		}
	}

	return IngestResult{
		Accepted: true,
		Change:   event.Kind,
		Interval: event.Interval,
	}, nil
}

// RecentLogs exposes the audit trail, newest first.
func (s *TimelineService) RecentLogs(ctx context.Context, limit int) ([]models.LocationEventLog, error) {
	return s.logs.FetchRecentLogs(ctx, limit)
}

// OpenInterval returns the current open interval, or nil.
func (s *TimelineService) OpenInterval(ctx context.Context) (*models.StayInterval, error) {
	return s.stays.FetchOpenInterval(ctx)
}

// Intervals retrieves intervals with filtering and pagination.
func (s *TimelineService) Intervals(ctx context.Context, filter models.IntervalFilter) ([]models.StayInterval, int64, error) {
	return s.stays.GetIntervals(ctx, filter)
}
