package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/pkg/logger"
)

func TestSweepRemovesIneligibleEntries(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())
	ctx := context.Background()

	active := openConversation(t, st)
	handed := openConversation(t, st)
	bypassed := openConversation(t, st)

	recordInbound(t, st, active.ID, "keep")
	recordInbound(t, st, handed.ID, "drop")
	recordInbound(t, st, bypassed.ID, "drop")

	_, err := lc.AssignSeller(ctx, handed.ID, "seller-1")
	require.NoError(t, err)
	_, err = lc.Transition(ctx, handed.ID, model.StatusSentToSeller)
	require.NoError(t, err)
	_, err = lc.SetFallbackMode(ctx, bypassed.ID, true)
	require.NoError(t, err)

	sweeper := NewSweeper(st, logger.NewNop())
	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedCount)

	remaining, err := st.CountQueueEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// Second sweep finds nothing further.
	result, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.DeletedCount)
}

func TestSweepRecordsAudit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := NewSweeper(st, logger.NewNop()).Sweep(ctx)
	require.NoError(t, err)

	records, err := st.ListAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "queue_cleanup", records[0].Action)
	assert.True(t, records[0].Success)
	assert.Contains(t, records[0].Detail, "deleted 0")
}

func TestSweepAuditSurvivesCanceledContext(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())

	bypassed := openConversation(t, st)
	recordInbound(t, st, bypassed.ID, "drop")
	_, err := lc.SetFallbackMode(context.Background(), bypassed.ID, true)
	require.NoError(t, err)

	// The audit write detaches from the request context, so a cancellation
	// racing the sweep still leaves an audit row behind.
	ctx, cancel := context.WithCancel(context.Background())
	result, err := NewSweeper(st, logger.NewNop()).Sweep(ctx)
	cancel()
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)

	records, err := st.ListAudit(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Success)
}
