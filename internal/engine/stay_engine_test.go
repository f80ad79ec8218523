package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark1ns0n/country-days-backend/internal/models"
)

// memStore is an in-memory Store used to exercise the engine without a
// database. failInsert makes the next insert fail, to simulate the
// close-succeeded/insert-failed inconsistency.
type memStore struct {
	intervals  []*models.StayInterval
	failInsert error
	failFetch  error
}

func (s *memStore) FetchOpenInterval(_ context.Context) (*models.StayInterval, error) {
	if s.failFetch != nil {
		return nil, s.failFetch
	}
	for _, iv := range s.intervals {
		if iv.ExitAt == nil {
			return iv, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertInterval(_ context.Context, countryCode string, entryAt time.Time, exitAt *time.Time, source string, confidence float64) (*models.StayInterval, error) {
	if s.failInsert != nil {
		err := s.failInsert
		s.failInsert = nil
		return nil, err
	}
	iv := &models.StayInterval{
		ID:          uuid.NewString(),
		CountryCode: countryCode,
		EntryAt:     entryAt,
		ExitAt:      exitAt,
		Source:      source,
		Confidence:  confidence,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.intervals = append(s.intervals, iv)
	return iv, nil
}

func (s *memStore) CloseInterval(_ context.Context, id string, exitAt time.Time) error {
	for _, iv := range s.intervals {
		if iv.ID == id {
			t := exitAt
			iv.ExitAt = &t
			iv.UpdatedAt = time.Now()
			return nil
		}
	}
	return errors.New("interval not found")
}

func (s *memStore) TouchInterval(_ context.Context, id string, at time.Time) error {
	for _, iv := range s.intervals {
		if iv.ID == id {
			iv.UpdatedAt = at
			return nil
		}
	}
	return errors.New("interval not found")
}

func TestProcessObservation_CreatesFirstInterval(t *testing.T) {
	store := &memStore{}
	eng := New(store)

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ev, err := eng.ProcessObservation(context.Background(), models.Observation{
		CountryCode: "US", At: t0, Source: "test", Confidence: 1.0,
	})
	require.NoError(t, err)

	assert.Equal(t, ChangeCreated, ev.Kind)
	require.Len(t, store.intervals, 1)
	assert.Equal(t, "US", store.intervals[0].CountryCode)
	assert.Equal(t, t0, store.intervals[0].EntryAt)
	assert.Nil(t, store.intervals[0].ExitAt)
}

func TestProcessObservation_SameCountryIsIdempotent(t *testing.T) {
	store := &memStore{}
	eng := New(store)
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "US", At: t0, Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	ev, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "US", At: t0.Add(time.Minute), Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	assert.Equal(t, ChangeExtended, ev.Kind)
	assert.False(t, ev.Mutated())
	require.Len(t, store.intervals, 1)
	assert.Equal(t, t0, store.intervals[0].EntryAt, "entryAt must not move on continuation")
	assert.Nil(t, store.intervals[0].ExitAt)
}

func TestProcessObservation_SwitchClosesAndOpens(t *testing.T) {
	store := &memStore{}
	eng := New(store)
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	_, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "US", At: t0, Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	ev, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "FR", At: t1, Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	assert.Equal(t, ChangeSwitched, ev.Kind)
	assert.Equal(t, "US", ev.Previous)
	require.Len(t, store.intervals, 2)

	closed := store.intervals[0]
	require.NotNil(t, closed.ExitAt)
	assert.Equal(t, "US", closed.CountryCode)
	assert.Equal(t, t1, *closed.ExitAt)

	open := store.intervals[1]
	assert.Equal(t, "FR", open.CountryCode)
	assert.Equal(t, t1, open.EntryAt)
	assert.Nil(t, open.ExitAt)
}

func TestProcessObservation_UnconfirmedSwitchIsNoOp(t *testing.T) {
	store := &memStore{}
	eng := New(store, WithConfirm(func(context.Context, string, time.Time) (bool, error) {
		return false, nil
	}))
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "US", At: t0, Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	ev, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "FR", At: t0.Add(time.Hour), Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	assert.Equal(t, ChangeSuppressed, ev.Kind)
	require.Len(t, store.intervals, 1)
	assert.Nil(t, store.intervals[0].ExitAt, "open interval must be untouched")
}

func TestProcessObservation_ConfirmErrorCountsAsNotConfirmed(t *testing.T) {
	store := &memStore{}
	eng := New(store, WithConfirm(func(context.Context, string, time.Time) (bool, error) {
		return false, context.Canceled
	}))
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "US", At: t0, Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	ev, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "FR", At: t0.Add(time.Hour), Source: "test", Confidence: 1.0})
	require.NoError(t, err)
	assert.Equal(t, ChangeSuppressed, ev.Kind)
	require.Len(t, store.intervals, 1)
}

func TestProcessObservation_InsertFailureAfterCloseIsInconsistency(t *testing.T) {
	store := &memStore{}
	eng := New(store)
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := eng.ProcessObservation(ctx, models.Observation{CountryCode: "US", At: t0, Source: "test", Confidence: 1.0})
	require.NoError(t, err)

	store.failInsert = errors.New("disk full")
	_, err = eng.ProcessObservation(ctx, models.Observation{CountryCode: "FR", At: t0.Add(time.Hour), Source: "test", Confidence: 1.0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentTimeline)

	// The old interval really was closed; zero intervals are open now.
	open, err := store.FetchOpenInterval(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestProcessObservation_StorageFetchFailureIsSurfaced(t *testing.T) {
	store := &memStore{failFetch: errors.New("db locked")}
	eng := New(store)

	_, err := eng.ProcessObservation(context.Background(), models.Observation{
		CountryCode: "US", At: time.Now(), Source: "test", Confidence: 1.0,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInconsistentTimeline)
}

func TestProcessObservation_RejectsInvalidCountryCode(t *testing.T) {
	store := &memStore{}
	eng := New(store)

	for _, code := range []string{"", "USA", "1A", "u"} {
		_, err := eng.ProcessObservation(context.Background(), models.Observation{
			CountryCode: code, At: time.Now(), Source: "test", Confidence: 1.0,
		})
		assert.ErrorIs(t, err, ErrInvalidCountryCode, "code %q", code)
	}
	assert.Empty(t, store.intervals)
}

func TestProcessObservation_NormalizesLowercaseCode(t *testing.T) {
	store := &memStore{}
	eng := New(store)

	ev, err := eng.ProcessObservation(context.Background(), models.Observation{
		CountryCode: "fr", At: time.Now(), Source: "test", Confidence: 1.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "FR", ev.CountryCode)
}
