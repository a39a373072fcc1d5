package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openConversation(t *testing.T, st *store.Store) *model.Conversation {
	t.Helper()
	intake := NewIntake(st, logger.NewNop())
	conv, err := intake.OpenConversation(context.Background(), &model.CreateConversationRequest{
		ChannelAddress: "+55" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	return conv
}

type capturingPublisher struct {
	events []*model.ConversationEvent
	err    error
}

func (p *capturingPublisher) PublishEvent(_ context.Context, event *model.ConversationEvent) (uint64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.events = append(p.events, event)
	return uint64(len(p.events)), nil
}

func TestTransitionUnknownStatus(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())
	conv := openConversation(t, st)

	_, err := lc.Transition(context.Background(), conv.ID, model.Status("escalated"))
	assert.ErrorIs(t, err, model.ErrPrecondition)

	// The failed transition leaves the conversation unchanged.
	got, err := st.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBotAttending, got.Status)
}

func TestTransitionNotFound(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())

	_, err := lc.Transition(context.Background(), uuid.NewString(), model.StatusFinished)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTransitionSellerBoundWithoutSeller(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())
	conv := openConversation(t, st)

	for _, target := range []model.Status{
		model.StatusSentToSeller,
		model.StatusFinished,
		model.StatusSold,
		model.StatusLost,
	} {
		_, err := lc.Transition(context.Background(), conv.ID, target)
		assert.ErrorIs(t, err, model.ErrPrecondition, "target %s", target)
	}

	got, err := st.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBotAttending, got.Status)
	assert.Nil(t, got.AssignedSeller)
}

func TestTransitionAfterSellerAssignment(t *testing.T) {
	st := newTestStore(t)
	events := &capturingPublisher{}
	lc := NewLifecycle(st, events, logger.NewNop())
	conv := openConversation(t, st)

	_, err := lc.AssignSeller(context.Background(), conv.ID, "seller-7")
	require.NoError(t, err)

	updated, err := lc.Transition(context.Background(), conv.ID, model.StatusSentToSeller)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSentToSeller, updated.Status)
	require.NotNil(t, updated.AssignedSeller)
	assert.Equal(t, "seller-7", *updated.AssignedSeller)

	require.Len(t, events.events, 2)
	assert.Equal(t, model.EventTypeSellerAssigned, events.events[0].Type)
	assert.Equal(t, model.EventTypeStatusChanged, events.events[1].Type)
	assert.Equal(t, "sent_to_seller", events.events[1].Metadata["to"])
}

func TestTransitionClearsSellerOnNonSellerTarget(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())
	conv := openConversation(t, st)
	ctx := context.Background()

	_, err := lc.AssignSeller(ctx, conv.ID, "seller-7")
	require.NoError(t, err)
	_, err = lc.Transition(ctx, conv.ID, model.StatusSold)
	require.NoError(t, err)

	// Reopening with the bot clears the hand-off target.
	updated, err := lc.Transition(ctx, conv.ID, model.StatusBotAttending)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBotAttending, updated.Status)
	assert.Nil(t, updated.AssignedSeller)
}

func TestTransitionOpenGraph(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())
	conv := openConversation(t, st)
	ctx := context.Background()

	// No ordering is imposed: lost can go straight back to bot_attending,
	// sold can follow finished, and so on.
	_, err := lc.AssignSeller(ctx, conv.ID, "seller-1")
	require.NoError(t, err)
	for _, target := range []model.Status{
		model.StatusLost,
		model.StatusBotAttending,
		model.StatusWaitingEvaluation,
		model.StatusAttending,
	} {
		updated, terr := lc.Transition(ctx, conv.ID, target)
		require.NoError(t, terr, "target %s", target)
		assert.Equal(t, target, updated.Status)
	}
}

func TestAssignSellerEmpty(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())
	conv := openConversation(t, st)

	_, err := lc.AssignSeller(context.Background(), conv.ID, "")
	assert.ErrorIs(t, err, model.ErrPrecondition)
}

func TestTransitionSurvivesPublishFailure(t *testing.T) {
	st := newTestStore(t)
	events := &capturingPublisher{err: errors.New("stream unavailable")}
	lc := NewLifecycle(st, events, logger.NewNop())
	conv := openConversation(t, st)

	updated, err := lc.Transition(context.Background(), conv.ID, model.StatusWaitingEvaluation)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitingEvaluation, updated.Status)
}

func TestSetFallbackMode(t *testing.T) {
	st := newTestStore(t)
	lc := NewLifecycle(st, nil, logger.NewNop())
	conv := openConversation(t, st)
	ctx := context.Background()

	updated, err := lc.SetFallbackMode(ctx, conv.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.FallbackMode)
	assert.Equal(t, model.StatusBotAttending, updated.Status, "fallback does not touch status")

	updated, err = lc.SetFallbackMode(ctx, conv.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.FallbackMode)
}
