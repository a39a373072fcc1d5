package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
)

func TestOpenConversationFirstContact(t *testing.T) {
	st := newTestStore(t)
	intake := NewIntake(st, logger.NewNop())
	ctx := context.Background()

	name := "Joana"
	conv, err := intake.OpenConversation(ctx, &model.CreateConversationRequest{
		CustomerName:   &name,
		ChannelAddress: "+5511999990000",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusBotAttending, conv.Status)
	assert.Nil(t, conv.AssignedSeller)
	assert.False(t, conv.FallbackMode)

	// Same channel address returns the existing conversation.
	again, err := intake.OpenConversation(ctx, &model.CreateConversationRequest{
		ChannelAddress: "+5511999990000",
	})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
}

func TestOpenConversationEmptyAddress(t *testing.T) {
	st := newTestStore(t)
	intake := NewIntake(st, logger.NewNop())

	_, err := intake.OpenConversation(context.Background(), &model.CreateConversationRequest{})
	assert.ErrorIs(t, err, model.ErrPrecondition)
}

func TestRecordInboundMirrorsToQueue(t *testing.T) {
	st := newTestStore(t)
	intake := NewIntake(st, logger.NewNop())
	ctx := context.Background()
	conv := openConversation(t, st)

	msg, entry, err := intake.RecordInbound(ctx, conv.ID, &model.SendMessageRequest{
		Content: "quero saber o preço",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, msg.SenderRole, "defaults to customer")
	assert.Equal(t, model.ContentText, msg.ContentType)
	assert.Equal(t, model.DeliveryStatusSent, msg.DeliveryStatus)
	require.NotNil(t, entry)
	assert.Equal(t, msg.Content, entry.Content)
	assert.Equal(t, conv.ID, entry.ConversationID)

	queued, err := st.ListQueueEntries(ctx, store.QueueFilter{ConversationID: conv.ID})
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	history, err := intake.History(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestRecordInboundUnknownConversation(t *testing.T) {
	st := newTestStore(t)
	intake := NewIntake(st, logger.NewNop())

	_, _, err := intake.RecordInbound(context.Background(), uuid.NewString(), &model.SendMessageRequest{
		Content: "hello",
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestHistoryUnknownConversation(t *testing.T) {
	st := newTestStore(t)
	intake := NewIntake(st, logger.NewNop())

	_, err := intake.History(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}
