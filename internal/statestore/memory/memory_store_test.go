package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
	"github.com/meldeo/dialog-status-tracker/internal/statestore"
)

const pollThreshold = 30 * time.Second

func TestCreateState_InsertsWithBaselineHistory(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()
	now := time.Now().UTC()

	created, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "https://ext.example/messages/ref-1", now)
	require.NoError(t, err)
	assert.Equal(t, core_domain.MessageTypeDialog, created.MessageType)
	assert.Equal(t, core_domain.StateNew, created.CurrentState)
	assert.Equal(t, "ref-1", created.ExternalRefID)
	assert.Equal(t, "https://ext.example/messages/ref-1", created.ExternalMessageURL)
	assert.Nil(t, created.ExternalDeliveryState)
	assert.Nil(t, created.AppRecStatus)
	assert.Nil(t, created.LastPolledAt)

	found, err := store.FindOrNull(ctx, "ref-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	history := store.HistoryFor("ref-1")
	require.Len(t, history, 1)
	assert.Equal(t, core_domain.StateNew, history[0].OldState)
	assert.Equal(t, core_domain.StateNew, history[0].NewState)
}

func TestCreateState_UpsertPreservesOriginalURL(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "https://ext.example/original", now)
	require.NoError(t, err)

	// Upsert state: a second create for the same reference id behaves as an
	// update and must not touch the URL.
	updated, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "https://ext.example/other", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "https://ext.example/original", updated.ExternalMessageURL)

	history := store.HistoryFor("ref-1")
	assert.Len(t, history, 2)
}

func TestUpdateState_TransitionsAndAppendsHistory(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "url", now)
	require.NoError(t, err)

	delivery := core_domain.DeliveryAcknowledged
	appRec := core_domain.AppRecOK
	updated, err := store.UpdateState(ctx, core_domain.MessageTypeDialog, core_domain.StateProcessed, "ref-1", &delivery, &appRec, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, core_domain.StateProcessed, updated.CurrentState)
	require.NotNil(t, updated.ExternalDeliveryState)
	assert.Equal(t, core_domain.DeliveryAcknowledged, *updated.ExternalDeliveryState)
	require.NotNil(t, updated.AppRecStatus)
	assert.Equal(t, core_domain.AppRecOK, *updated.AppRecStatus)
	assert.Equal(t, now.Add(time.Minute), updated.LastStateChange)

	history := store.HistoryFor("ref-1")
	require.Len(t, history, 2)
	assert.Equal(t, core_domain.StateNew, history[1].OldState)
	assert.Equal(t, core_domain.StateProcessed, history[1].NewState)
}

func TestUpdateState_UnknownRefIDReturnsNotFound(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)

	_, err := store.UpdateState(context.Background(), core_domain.MessageTypeDialog, core_domain.StateProcessed, "missing", nil, nil, time.Now().UTC())
	assert.ErrorIs(t, err, statestore.ErrStateNotFound)
}

func TestFindForPolling_NeverPolledIsEligible(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()

	_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "url", time.Now().UTC())
	require.NoError(t, err)

	pollable, err := store.FindForPolling(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pollable, 1)
	assert.Equal(t, "ref-1", pollable[0].ExternalRefID)
}

func TestFindForPolling_RecentlyPolledIsExcluded(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()

	_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "url", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.MarkPolled(ctx, "ref-1", time.Now().UTC()))

	pollable, err := store.FindForPolling(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pollable)
}

func TestFindForPolling_StalePollIsEligibleAgain(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()

	_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "url", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.MarkPolled(ctx, "ref-1", time.Now().UTC().Add(-2*pollThreshold)))

	pollable, err := store.FindForPolling(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pollable, 1)
}

func TestFindForPolling_ProcessedIsNeverReturned(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()
	longAgo := time.Now().UTC().Add(-24 * time.Hour)

	_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "url", longAgo)
	require.NoError(t, err)
	delivery := core_domain.DeliveryAcknowledged
	appRec := core_domain.AppRecOK
	_, err = store.UpdateState(ctx, core_domain.MessageTypeDialog, core_domain.StateProcessed, "ref-1", &delivery, &appRec, longAgo)
	require.NoError(t, err)

	pollable, err := store.FindForPolling(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pollable)
}

func TestFindForPolling_RespectsLimit(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, ref := range []string{"ref-1", "ref-2", "ref-3"} {
		_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, ref, "url", now)
		require.NoError(t, err)
	}

	pollable, err := store.FindForPolling(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, pollable, 2)
}

func TestMarkPolled_DoesNotTouchStateOrHistory(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.CreateState(ctx, core_domain.MessageTypeDialog, core_domain.StateNew, "ref-1", "url", now)
	require.NoError(t, err)

	polledAt := now.Add(time.Minute)
	require.NoError(t, store.MarkPolled(ctx, "ref-1", polledAt))

	found, err := store.FindOrNull(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, core_domain.StateNew, found.CurrentState)
	require.NotNil(t, found.LastPolledAt)
	assert.Equal(t, polledAt, *found.LastPolledAt)
	assert.Len(t, store.HistoryFor("ref-1"), 1)
}

func TestMarkPolled_UnknownRefIDReturnsNotFound(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	err := store.MarkPolled(context.Background(), "missing", time.Now().UTC())
	assert.ErrorIs(t, err, statestore.ErrStateNotFound)
}

func TestFindOrNull_AbsenceIsNotAnError(t *testing.T) {
	store := NewMemoryStateStore(pollThreshold)
	found, err := store.FindOrNull(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, found)
}
