package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebounceConfirmer_RequiresRepeatedCandidate(t *testing.T) {
	d := NewDebounceConfirmer(3, 10*time.Minute)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ok, err := d.Confirm(ctx, "FR", t0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = d.Confirm(ctx, "FR", t0.Add(time.Minute))
	assert.False(t, ok)

	ok, _ = d.Confirm(ctx, "FR", t0.Add(2*time.Minute))
	assert.True(t, ok, "third consecutive sample should confirm")
}

func TestDebounceConfirmer_DifferentCandidateResetsCount(t *testing.T) {
	d := NewDebounceConfirmer(2, 10*time.Minute)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := d.Confirm(ctx, "FR", t0)
	assert.False(t, ok)

	// Flap to another country and back; neither run reaches 2.
	ok, _ = d.Confirm(ctx, "DE", t0.Add(time.Minute))
	assert.False(t, ok)

	ok, _ = d.Confirm(ctx, "FR", t0.Add(2*time.Minute))
	assert.False(t, ok)

	ok, _ = d.Confirm(ctx, "FR", t0.Add(3*time.Minute))
	assert.True(t, ok)
}

func TestDebounceConfirmer_WindowExpiryResetsCount(t *testing.T) {
	d := NewDebounceConfirmer(2, 5*time.Minute)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := d.Confirm(ctx, "FR", t0)
	assert.False(t, ok)

	ok, _ = d.Confirm(ctx, "FR", t0.Add(time.Hour))
	assert.False(t, ok, "stale first sample must not count")
}

func TestDebounceConfirmer_SingleSampleThreshold(t *testing.T) {
	d := NewDebounceConfirmer(1, time.Minute)
	ok, err := d.Confirm(context.Background(), "FR", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}
