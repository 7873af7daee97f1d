package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookwise/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	session := models.NewSession("s-1", now)
	session.State = models.StateCollectingSlots
	session.Slots[models.SlotDate] = models.SlotValue{Date: "2026-03-03", Confidence: 0.9}
	require.NoError(t, store.Save(ctx, session))

	// Mutating the original must not leak into the stored copy.
	session.Slots[models.SlotDate] = models.SlotValue{Date: "2026-04-01", Confidence: 0.9}

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCollectingSlots, got.State)
	assert.Equal(t, "2026-03-03", got.Slots[models.SlotDate].Date)
}

func TestMemoryStoreMissingSession(t *testing.T) {
	store := NewMemorySessionStore()
	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsCode(err, "sessionNotFound"))
}

func TestMemoryStoreActiveIDs(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, models.NewSession("a", now)))
	require.NoError(t, store.Save(ctx, models.NewSession("b", now)))
	require.NoError(t, store.Delete(ctx, "a"))

	ids, err := store.ActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}
